package main

import (
	"fmt"
	"image/color"

	"github.com/dave/whw/config"
	"github.com/dave/whw/geo"
	"github.com/dave/whw/gpkg"
	"github.com/dave/whw/render"

	"github.com/paulmach/orb"
)

// Category is a landcover class with a fill style of its own.
type Category string

const (
	CategoryForest Category = "forest"
	CategoryGrass  Category = "grass"
	CategoryWater  Category = "water"
	CategoryOther  Category = "other"
)

// classifyNature buckets an OSM-tagged landcover feature. The tag sets
// mirror the ones the caches were built with.
func classifyNature(tags map[string]string) Category {
	switch tags["natural"] {
	case "wood", "tundra":
		return CategoryForest
	case "heath":
		return CategoryGrass
	}
	switch tags["landuse"] {
	case "forest":
		return CategoryForest
	case "meadow", "farmland", "grass", "orchard":
		return CategoryGrass
	}
	switch tags["landcover"] {
	case "grass", "crop":
		return CategoryGrass
	}
	return CategoryOther
}

func classifyWater(map[string]string) Category {
	return CategoryWater
}

// stylePolygons filters, smooths and simplifies the cached polygons of one
// dataset and assigns fill colors by category. Categories without a color
// are dropped. Returns the styled polygons and the dataset CRS (0 when the
// dataset is empty or carries none); layers with different SRS ids in one
// dataset are an error.
func stylePolygons(
	layers []gpkg.Layer,
	fs config.FeatureStyle,
	classify func(map[string]string) Category,
	colors map[Category]color.RGBA,
) ([]render.Polygon, int, error) {
	var styled []render.Polygon
	epsg := 0
	for _, layer := range layers {
		if layer.SRSID > 0 {
			if epsg == 0 {
				epsg = layer.SRSID
			} else if layer.SRSID != epsg {
				return nil, 0, fmt.Errorf("mixed feature CRS: table %q is EPSG:%d, expected EPSG:%d", layer.Table, layer.SRSID, epsg)
			}
		}
		for _, feature := range layer.Features {
			fill, ok := colors[classify(feature.Tags)]
			if !ok {
				continue
			}
			for _, poly := range explode(feature.Geometry) {
				out, keep := processPolygon(poly, fs)
				if !keep {
					continue
				}
				styled = append(styled, render.Polygon{Geometry: out, Fill: fill})
			}
		}
	}
	return styled, epsg, nil
}

// processPolygon is the geometry pass: metric area filter, Chaikin
// smoothing and topology safe simplification, all in web mercator meters.
func processPolygon(p orb.Polygon, fs config.FeatureStyle) (orb.Polygon, bool) {
	if len(p) == 0 || len(p[0]) < 4 {
		return nil, false
	}
	merc := geo.ToMercator(p)
	if geo.Area(merc) < fs.MinAreaM2 {
		return nil, false
	}
	merc = geo.SmoothPolygon(merc, fs.SmoothIterations)
	merc = geo.SimplifyPolygon(merc, fs.SimplifyM)
	return geo.ToWGS84(merc), true
}

func explode(g orb.Geometry) []orb.Polygon {
	switch geom := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{geom}
	case orb.MultiPolygon:
		return geom
	case orb.Collection:
		var polys []orb.Polygon
		for _, sub := range geom {
			polys = append(polys, explode(sub)...)
		}
		return polys
	}
	return nil
}
