// Package damage defines the closed set of building damage classes and
// their parsing, ordering, and display colors.
package damage

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidClass indicates a value outside the damage label set.
var ErrInvalidClass = errors.New("invalid damage class")

// Class is a building damage outcome. The ordinal order runs from least
// to most severe, with Unclassified last.
type Class int

const (
	NoDamage Class = iota
	MinorDamage
	Destroyed
	Unclassified
)

// Labels is the closed label set a model or ground truth may produce.
var Labels = []Class{NoDamage, MinorDamage, Destroyed}

var names = map[Class]string{
	NoDamage:     "no-damage",
	MinorDamage:  "minor-damage",
	Destroyed:    "destroyed",
	Unclassified: "unclassified",
}

var colors = map[Class]string{
	NoDamage:     "#00ff00",
	MinorDamage:  "#ffff00",
	Destroyed:    "#ff0000",
	Unclassified: "#808080",
}

var aliases = map[string]Class{
	"no-damage":    NoDamage,
	"minor-damage": MinorDamage,
	"destroyed":    Destroyed,
	"minor":        MinorDamage,
}

func (c Class) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// Color returns the map display color for the class.
func (c Class) Color() string {
	if v, ok := colors[c]; ok {
		return v
	}
	return colors[Unclassified]
}

// Labeled reports whether c belongs to the closed label set.
func (c Class) Labeled() bool {
	return c >= NoDamage && c <= Destroyed
}

// Parse converts a label into a Class from the closed label set.
// Matching ignores case and accepts spaces or underscores in place of hyphens,
// so the FEMA spellings "NO DAMAGE", "MINOR", and "DESTROYED" also parse.
func Parse(s string) (Class, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "-", "_", "-").Replace(key)

	if c, ok := aliases[key]; ok {
		return c, nil
	}
	return Unclassified, fmt.Errorf("%w: %q", ErrInvalidClass, s)
}

func (c Class) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Class) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == names[Unclassified] {
		*c = Unclassified
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value stores the class by name.
func (c Class) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan reads a class stored by name.
func (c *Class) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidClass, src)
	}
	if s == names[Unclassified] {
		*c = Unclassified
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
