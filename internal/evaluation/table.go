package evaluation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/JaimeStill/vantage/internal/damage"
	"github.com/JaimeStill/vantage/internal/geometry"
)

// Table column names.
const (
	ColumnTileID     = "tile_id"
	ColumnPredClass  = "pred_class"
	ColumnFemaClass  = "fema_class"
	ColumnConfidence = "confidence"
	ColumnGeometry   = "geometry"
)

var requiredColumns = []string{ColumnTileID, ColumnPredClass, ColumnFemaClass}

// Row is one line of tabular evaluation input. Classes and geometry are
// kept raw and validated when rows become records.
type Row struct {
	Line       int      `json:"line"`
	TileID     string   `json:"tile_id"`
	PredClass  string   `json:"pred_class"`
	FemaClass  string   `json:"fema_class"`
	Confidence *float64 `json:"confidence,omitempty"`
	Geometry   string   `json:"geometry,omitempty"`
}

// Table is decoded tabular input.
type Table struct {
	Rows        []Row
	HasGeometry bool
}

// ReadTable decodes CSV evaluation input. Only structural problems are
// errors. Rows with missing or invalid values are kept and excluded later.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyTable
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	_, hasGeometry := cols[ColumnGeometry]
	table := &Table{HasGeometry: hasGeometry}

	for line := 2; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}

		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[i])
		}

		row := Row{
			Line:      line,
			TileID:    get(ColumnTileID),
			PredClass: get(ColumnPredClass),
			FemaClass: get(ColumnFemaClass),
			Geometry:  get(ColumnGeometry),
		}
		if v, err := strconv.ParseFloat(get(ColumnConfidence), 64); err == nil {
			row.Confidence = &v
		}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// Records converts table rows into evaluation records. Without a geometry
// column each row is one record. With one, rows are grouped by tile and the
// ground truth of each tile is the region with the largest overlap.
func (t *Table) Records() ([]Record, Mismatches) {
	if !t.HasGeometry {
		return rowRecords(t.Rows)
	}
	return tileRecords(t.Rows)
}

func rowRecords(rows []Row) ([]Record, Mismatches) {
	var m Mismatches
	records := make([]Record, 0, len(rows))

	for _, row := range rows {
		if row.TileID == "" {
			m.MissingLabel++
			continue
		}

		r, reason := pair(row.TileID, row.FemaClass, row.PredClass)
		switch reason {
		case invalidLabel:
			m.InvalidLabel++
			continue
		case invalidPrediction:
			m.InvalidPrediction++
			continue
		}

		r.Confidence = row.Confidence
		records = append(records, r)
	}

	return records, m
}

type tileGroup struct {
	id         string
	predicted  string
	confidence *float64
	regions    []Region
	bound      orb.Bound
}

// tileRecords groups region rows by tile and resolves each tile's truth.
// Rows carry no tile extent, so the overlap target is the union of the
// tile's region bounds and the largest region by area wins.
func tileRecords(rows []Row) ([]Record, Mismatches) {
	var m Mismatches
	var order []string
	groups := make(map[string]*tileGroup)

	for _, row := range rows {
		if row.TileID == "" {
			m.MissingLabel++
			continue
		}

		g, ok := groups[row.TileID]
		if !ok {
			g = &tileGroup{id: row.TileID}
			groups[row.TileID] = g
			order = append(order, row.TileID)
		}
		if g.predicted == "" && row.PredClass != "" {
			g.predicted = row.PredClass
			g.confidence = row.Confidence
		}

		class, err := damage.Parse(row.FemaClass)
		if err != nil {
			m.InvalidLabel++
			continue
		}

		ring, err := geometry.ParseRing(row.Geometry)
		if err != nil {
			m.InvalidGeometry++
			continue
		}

		poly := orb.Polygon{ring}
		if len(g.regions) == 0 {
			g.bound = poly.Bound()
		} else {
			g.bound = g.bound.Union(poly.Bound())
		}
		g.regions = append(g.regions, Region{Class: class, Geometry: poly})
	}

	records := make([]Record, 0, len(order))
	for _, id := range order {
		g := groups[id]
		if len(g.regions) == 0 {
			continue
		}

		predicted, err := damage.Parse(g.predicted)
		if err != nil {
			m.InvalidPrediction++
			continue
		}

		truth, ok := ResolveOverlap(g.bound, g.regions)
		if !ok {
			m.InvalidGeometry++
			continue
		}

		records = append(records, Record{
			UID:        g.id,
			Truth:      truth,
			Predicted:  predicted,
			Confidence: g.confidence,
		})
	}

	return records, m
}
