// Package formatting parses and renders values that appear in config files
// and model output: byte sizes and JSON embedded in free text.
package formatting

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Binary (base-1024) units. The SI-looking names are base-1024 as well,
// matching how upload limits are written in config.
var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n with the largest unit that keeps the value at
// or above one. Negative precision is treated as zero.
func FormatBytes(n int64, precision int) string {
	precision = max(precision, 0)

	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	size := float64(n)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}

	if i == 0 {
		return sign + strconv.FormatInt(n, 10) + " B"
	}
	return sign + strconv.FormatFloat(size, 'f', precision, 64) + " " + units[i]
}

// ParseBytes parses a size such as "50MB", "1.5 GiB", or "4096" into a
// byte count. Units are case-insensitive and the IEC forms (KiB, MiB, ...)
// are accepted as aliases. A bare number is a byte count.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	number, unit := s, ""
	if split >= 0 {
		number, unit = s[:split], strings.TrimSpace(s[split:])
	}

	if number == "" {
		return 0, fmt.Errorf("invalid byte size %q: missing number", s)
	}
	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}

	exp, err := unitExponent(unit)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}

	bytes := value * math.Pow(1024, float64(exp))
	if bytes > math.MaxInt64 {
		return 0, fmt.Errorf("invalid byte size %q: overflows int64", s)
	}
	return int64(bytes), nil
}

func unitExponent(unit string) (int, error) {
	u := strings.ToUpper(unit)
	if u == "" {
		return 0, nil
	}
	if len(u) == 3 && u[1] == 'I' {
		u = u[:1] + u[2:]
	}
	for i, known := range units {
		if u == known {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown unit %q", unit)
}
