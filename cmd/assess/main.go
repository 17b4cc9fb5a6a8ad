// Command assess runs damage assessment over a local tile directory, or
// scores a table of predictions, without a database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	var (
		dir     = flag.String("dir", "", "Tile directory to assess")
		tile    = flag.String("tile", "", "Assess only the tile with this filename stem")
		out     = flag.String("out", "", "Write per-tile predictions as JSON to this file")
		geoJSON = flag.String("geojson", "", "Write a GeoJSON FeatureCollection to this file")
		table   = flag.String("table", "", "Evaluate a CSV table of predictions instead of assessing tiles")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch {
	case *table != "":
		err = evaluateTable(*table, os.Stdout)
	case *dir != "":
		err = assessDir(ctx, options{
			dir:     *dir,
			tile:    *tile,
			out:     *out,
			geoJSON: *geoJSON,
		}, os.Stderr, os.Stdout)
	default:
		fmt.Fprintln(os.Stderr, "usage: assess -dir <tiles> [-tile stem] [-out predictions.json] [-geojson out.geojson] | -table file.csv")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}
