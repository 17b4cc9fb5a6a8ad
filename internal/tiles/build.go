package tiles

import (
	"github.com/JaimeStill/vantage/internal/geometry"
	"github.com/JaimeStill/vantage/internal/labels"
	"github.com/JaimeStill/vantage/internal/workflow"
)

// BuildTile assembles assessment input from a tile's storage keys,
// dimensions, and stripped labels. Features whose geometry fails to parse
// are carried as rejected footprints.
func BuildTile(name, preKey, postKey string, width, height int, f *labels.File) *workflow.Tile {
	footprints, rejected := f.Footprints()
	return &workflow.Tile{
		Context: geometry.TileContext{
			TileID:    name,
			PreImage:  preKey,
			PostImage: postKey,
			Width:     width,
			Height:    height,
		},
		Footprints: footprints,
		Rejected:   rejected,
	}
}
