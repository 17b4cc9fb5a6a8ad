package tiles

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/JaimeStill/vantage/internal/evaluation"
	"github.com/JaimeStill/vantage/internal/labels"
	"github.com/JaimeStill/vantage/internal/workflow"
)

// File name suffixes of an xView2-style tile.
const (
	SuffixPre    = "_pre_disaster.png"
	SuffixPost   = "_post_disaster.png"
	SuffixLabels = "_post_disaster.json"
)

// Subdirectories searched by Scan. Files may also sit directly in the
// scanned directory.
var (
	preDirs   = []string{"pre", "."}
	postDirs  = []string{"post", "."}
	labelDirs = []string{"fema", "labels", "."}
	truthDirs = []string{"truth", "ground_truth"}
)

// Entry describes one tile discovered on disk. Paths are slash-separated
// and relative to the scanned directory so they can be used as keys of a
// local storage rooted there.
type Entry struct {
	Name          string   `json:"name"`
	Disaster      string   `json:"disaster"`
	PrePath       string   `json:"pre_path,omitempty"`
	PostPath      string   `json:"post_path"`
	LabelsPath    string   `json:"labels_path,omitempty"`
	TruthPath     string   `json:"truth_path,omitempty"`
	Width         int      `json:"width"`
	Height        int      `json:"height"`
	BuildingCount int      `json:"building_count"`
	IsComplete    bool     `json:"is_complete"`
	Problems      []string `json:"problems,omitempty"`

	root   string
	labels *labels.File
}

// Manifest is the outcome of scanning a tile directory.
type Manifest struct {
	Root    string  `json:"root"`
	Entries []Entry `json:"entries"`
}

// Complete returns the entries whose three required files are present and valid.
func (m *Manifest) Complete() []Entry {
	return slices.DeleteFunc(slices.Clone(m.Entries), func(e Entry) bool {
		return !e.IsComplete
	})
}

// Find returns the entry with the given name.
func (m *Manifest) Find(name string) (*Entry, bool) {
	for i := range m.Entries {
		if m.Entries[i].Name == name {
			return &m.Entries[i], true
		}
	}
	return nil, false
}

// Scan discovers tiles under root. Every post-event image defines a tile;
// its pre-event image and labels are matched by name. Files that are
// missing or unreadable are listed as problems and leave the entry
// incomplete. Entries are sorted by name.
func Scan(root string) (*Manifest, error) {
	fsys := os.DirFS(root)

	posts, err := find(fsys, postDirs, SuffixPost)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	m := &Manifest{Root: root}
	for _, post := range posts {
		name := strings.TrimSuffix(path.Base(post), SuffixPost)
		e := inspectEntry(fsys, name, post)
		e.root = root
		m.Entries = append(m.Entries, e)
	}

	slices.SortFunc(m.Entries, func(a, b Entry) int {
		return strings.Compare(a.Name, b.Name)
	})
	return m, nil
}

func inspectEntry(fsys fs.FS, name, post string) Entry {
	e := Entry{Name: name, Disaster: disasterOf(name), PostPath: post}

	e.PrePath = locate(fsys, preDirs, name+SuffixPre)
	e.LabelsPath = locate(fsys, labelDirs, name+SuffixLabels)
	e.TruthPath = locate(fsys, truthDirs, name+SuffixLabels)

	cmd := CreateCommand{Name: name}
	read := func(p, part string) []byte {
		if p == "" {
			e.Problems = append(e.Problems, part+" missing")
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			e.Problems = append(e.Problems, fmt.Sprintf("%s unreadable: %v", part, err))
			return nil
		}
		return data
	}

	cmd.Pre = read(e.PrePath, "pre image")
	cmd.Post = read(e.PostPath, "post image")
	cmd.Labels = read(e.LabelsPath, "labels")

	in, err := inspect(cmd)
	if err != nil {
		e.Problems = append(e.Problems, err.Error())
		return e
	}

	e.Width, e.Height = in.width, in.height
	e.BuildingCount = in.buildings
	e.IsComplete = in.complete

	if e.IsComplete {
		f, err := labels.Decode(bytes.NewReader(cmd.Labels))
		if err == nil {
			e.labels = f
		}
	}
	return e
}

// Tile returns the assessment input for a complete entry.
func (e *Entry) Tile() (*workflow.Tile, error) {
	if !e.IsComplete || e.labels == nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrIncomplete, e.Name, strings.Join(e.Problems, "; "))
	}
	return BuildTile(e.Name, e.PrePath, e.PostPath, e.Width, e.Height, e.labels), nil
}

// GroundTruth returns labels from the entry's ground-truth file. When no
// such file exists, subtypes carried by the labels file itself are used.
func (e *Entry) GroundTruth() ([]evaluation.Label, error) {
	if e.TruthPath != "" {
		f, err := os.Open(filepath.Join(e.root, filepath.FromSlash(e.TruthPath)))
		if err != nil {
			return nil, err
		}
		defer f.Close()

		lf, err := labels.Decode(f)
		if err != nil {
			return nil, err
		}
		return lf.GroundTruth(), nil
	}

	if e.labels != nil && e.labels.HasGroundTruth() {
		return e.labels.GroundTruth(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoGroundTruth, e.Name)
}

func find(fsys fs.FS, dirs []string, suffix string) ([]string, error) {
	var out []string
	for _, dir := range dirs {
		matches, err := fs.Glob(fsys, path.Join(dir, "*"+suffix))
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	if len(out) == 0 {
		return nil, errors.New("no post-event images found")
	}
	return dedupeByBase(out), nil
}

func dedupeByBase(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		base := path.Base(p)
		if seen[base] {
			continue
		}
		seen[base] = true
		out = append(out, p)
	}
	return out
}

func locate(fsys fs.FS, dirs []string, name string) string {
	for _, dir := range dirs {
		p := path.Join(dir, name)
		if _, err := fs.Stat(fsys, p); err == nil {
			return p
		}
	}
	return ""
}
