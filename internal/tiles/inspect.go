package tiles

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"regexp"
	"strings"

	"github.com/JaimeStill/vantage/internal/labels"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

type inspection struct {
	width     int
	height    int
	buildings int
	complete  bool
}

// inspect validates the files of a tile and derives its pixel dimensions
// and building count. Pre and post images must share dimensions.
func inspect(cmd CreateCommand) (inspection, error) {
	var in inspection

	if !namePattern.MatchString(cmd.Name) {
		return in, fmt.Errorf("%w: tile name %q", ErrInvalidFile, cmd.Name)
	}

	for _, img := range []struct {
		part string
		data []byte
	}{{"pre", cmd.Pre}, {"post", cmd.Post}} {
		if len(img.data) == 0 {
			continue
		}

		w, h, err := imageSize(img.data)
		if err != nil {
			return in, fmt.Errorf("%w: %s image: %v", ErrInvalidImage, img.part, err)
		}
		if in.width != 0 && (in.width != w || in.height != h) {
			return in, fmt.Errorf(
				"%w: pre is %dx%d, post is %dx%d",
				ErrInvalidImage, in.width, in.height, w, h,
			)
		}
		in.width, in.height = w, h
	}

	if len(cmd.Labels) > 0 {
		f, err := labels.Decode(bytes.NewReader(cmd.Labels))
		if err != nil {
			return in, fmt.Errorf("%w: %w", ErrInvalidFile, err)
		}
		in.buildings = f.Count()
	}

	if len(cmd.GroundTruth) > 0 {
		f, err := labels.Decode(bytes.NewReader(cmd.GroundTruth))
		if err != nil {
			return in, fmt.Errorf("%w: ground truth: %w", ErrInvalidFile, err)
		}
		if !f.HasGroundTruth() {
			return in, fmt.Errorf("%w: ground truth carries no damage subtypes", ErrInvalidFile)
		}
	}

	in.complete = len(cmd.Pre) > 0 && len(cmd.Post) > 0 && len(cmd.Labels) > 0
	return in, nil
}

func imageSize(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("empty image %dx%d", cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}

// disasterOf returns the event prefix of a tile name, the text before the
// first underscore in names like santa-rosa-wildfire_00000012.
func disasterOf(name string) string {
	event, _, _ := strings.Cut(name, "_")
	return event
}
