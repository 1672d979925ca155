package main

import (
	"image/color"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/dave/whw/config"
	"github.com/dave/whw/gpkg"
	"github.com/paulmach/orb"
)

func TestClassifyNature(t *testing.T) {
	cases := []struct {
		tags map[string]string
		want Category
	}{
		{map[string]string{"natural": "wood"}, CategoryForest},
		{map[string]string{"natural": "tundra"}, CategoryForest},
		{map[string]string{"natural": "heath"}, CategoryGrass},
		{map[string]string{"landuse": "forest"}, CategoryForest},
		{map[string]string{"landuse": "meadow"}, CategoryGrass},
		{map[string]string{"landuse": "farmland"}, CategoryGrass},
		{map[string]string{"landcover": "grass"}, CategoryGrass},
		{map[string]string{"landcover": "crop"}, CategoryGrass},
		{map[string]string{"natural": "scree"}, CategoryOther},
		{map[string]string{}, CategoryOther},
		// natural wins over landuse
		{map[string]string{"natural": "wood", "landuse": "meadow"}, CategoryForest},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, classifyNature(c.tags))
	}
}

func TestClassifyWater(t *testing.T) {
	assert.Equal(t, CategoryWater, classifyWater(nil))
	assert.Equal(t, CategoryWater, classifyWater(map[string]string{"water": "loch"}))
}

// degreeSquare is roughly 0.1 by 0.1 degrees, far above any area filter.
func degreeSquare() orb.Polygon {
	return orb.Polygon{{{-4.5, 56.0}, {-4.4, 56.0}, {-4.4, 56.1}, {-4.5, 56.1}, {-4.5, 56.0}}}
}

// tinySquare is a few meters across, below every area filter.
func tinySquare() orb.Polygon {
	return orb.Polygon{{{-4.5, 56.0}, {-4.49995, 56.0}, {-4.49995, 56.00005}, {-4.5, 56.00005}, {-4.5, 56.0}}}
}

func TestProcessPolygonAreaFilter(t *testing.T) {
	fs := config.Default().Nature

	_, keep := processPolygon(tinySquare(), fs)
	assert.False(t, keep)

	out, keep := processPolygon(degreeSquare(), fs)
	assert.True(t, keep)
	assert.True(t, len(out) > 0)
	assert.True(t, out[0].Closed())
}

func TestProcessPolygonDegenerate(t *testing.T) {
	fs := config.Default().Nature
	_, keep := processPolygon(orb.Polygon{}, fs)
	assert.False(t, keep)
	_, keep = processPolygon(orb.Polygon{{{0, 0}, {1, 1}, {0, 0}}}, fs)
	assert.False(t, keep)
}

func TestStylePolygons(t *testing.T) {
	layers := []gpkg.Layer{{
		Table: "nature",
		SRSID: 4326,
		Features: []gpkg.Feature{
			{Geometry: degreeSquare(), Tags: map[string]string{"landuse": "forest"}},
			{Geometry: degreeSquare(), Tags: map[string]string{"natural": "heath"}},
			{Geometry: degreeSquare(), Tags: map[string]string{"natural": "scree"}},
			{Geometry: tinySquare(), Tags: map[string]string{"landuse": "forest"}},
			{Geometry: orb.MultiPolygon{degreeSquare(), degreeSquare()}, Tags: map[string]string{"landuse": "forest"}},
		},
	}}
	forest := color.RGBA{R: 0x6a, G: 0x84, B: 0x5e, A: 255}
	grass := color.RGBA{R: 0xad, G: 0xb8, B: 0x8f, A: 255}
	colors := map[Category]color.RGBA{CategoryForest: forest, CategoryGrass: grass}

	styled, epsg, err := stylePolygons(layers, config.Default().Nature, classifyNature, colors)
	assert.NoError(t, err)
	assert.Equal(t, 4326, epsg)
	// scree has no color and the tiny square is filtered; the multi
	// polygon contributes one styled polygon per part
	assert.Equal(t, 4, len(styled))
	assert.Equal(t, forest, styled[0].Fill)
	assert.Equal(t, grass, styled[1].Fill)
}

func TestStylePolygonsEmpty(t *testing.T) {
	styled, epsg, err := stylePolygons(nil, config.Default().Nature, classifyNature, nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(styled))
	assert.Equal(t, 0, epsg)
}

func TestStylePolygonsMixedCRS(t *testing.T) {
	layers := []gpkg.Layer{
		{Table: "a", SRSID: 4326, Features: []gpkg.Feature{
			{Geometry: degreeSquare(), Tags: map[string]string{"landuse": "forest"}},
		}},
		{Table: "b", SRSID: 27700},
	}
	colors := map[Category]color.RGBA{CategoryForest: {A: 255}}
	_, _, err := stylePolygons(layers, config.Default().Nature, classifyNature, colors)
	assert.Error(t, err)
}

func TestExplode(t *testing.T) {
	p := degreeSquare()
	assert.Equal(t, 1, len(explode(p)))
	assert.Equal(t, 2, len(explode(orb.MultiPolygon{p, p})))
	assert.Equal(t, 3, len(explode(orb.Collection{p, orb.MultiPolygon{p, p}})))
	assert.Equal(t, 0, len(explode(orb.LineString{{0, 0}, {1, 1}})))
}
