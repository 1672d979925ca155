// Package config holds the run configuration: input and output paths,
// page geometry and every style parameter of the rendered map.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure. Zero values are filled in
// from Default, so a config file only needs the fields it overrides.
type Config struct {
	Inputs    Inputs       `yaml:"inputs"`
	Output    string       `yaml:"output"`
	Strict    bool         `yaml:"strict"`
	Page      Page         `yaml:"page"`
	Route     Route        `yaml:"route"`
	Hillshade Hillshade    `yaml:"hillshade"`
	Nature    FeatureStyle `yaml:"nature"`
	Lakes     FeatureStyle `yaml:"lakes"`
	Style     Style        `yaml:"style"`
}

// Inputs are the pre-existing source files.
type Inputs struct {
	KML         string `yaml:"kml"`
	SegmentsCSV string `yaml:"segments_csv"`
	PointsCSV   string `yaml:"points_csv"`
	DEM         string `yaml:"dem"`
	Nature      string `yaml:"nature"`
	Lakes       string `yaml:"lakes"`
}

// Page is the output page geometry, in millimeters.
type Page struct {
	WidthMM  float64 `yaml:"width_mm"`
	HeightMM float64 `yaml:"height_mm"`
	// Aspect is the map extent width over height, Buffer the margin in
	// degrees added around the route bounds.
	Aspect float64 `yaml:"aspect"`
	Buffer float64 `yaml:"buffer"`
}

// Route controls extraction and route line styling.
type Route struct {
	// Keep selects a sub-range [From, To) of the extracted segments.
	// Disabled when nil.
	Keep             *Range  `yaml:"keep"`
	SmoothIterations int     `yaml:"smooth_iterations"`
	WidthMM          float64 `yaml:"width_mm"`
}

type Range struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// Hillshade is the light source and colormap for the relief layer.
type Hillshade struct {
	Azimuth  float64  `yaml:"azimuth"`
	Altitude float64  `yaml:"altitude"`
	VertExag float64  `yaml:"vert_exag"`
	Colors   []string `yaml:"colors"`
}

// FeatureStyle tunes one cached polygon dataset.
type FeatureStyle struct {
	// MinAreaM2 drops polygons below this web mercator area.
	MinAreaM2 float64 `yaml:"min_area_m2"`
	// SimplifyM is the Douglas-Peucker tolerance in mercator meters.
	SimplifyM        float64 `yaml:"simplify_m"`
	SmoothIterations int     `yaml:"smooth_iterations"`
}

// Style is the color palette and marker styling. Colors are #rrggbb.
type Style struct {
	Water       string  `yaml:"water"`
	RouteColor  string  `yaml:"route"`
	Step        string  `yaml:"step"`
	Forest      string  `yaml:"forest"`
	Grass       string  `yaml:"grass"`
	NatureAlpha float64 `yaml:"nature_alpha"`
	MarkerMM    float64 `yaml:"marker_mm"`
	LabelPt     float64 `yaml:"label_pt"`
}

// Default is the West Highland Way setup the repository ships with.
func Default() *Config {
	return &Config{
		Inputs: Inputs{
			KML:         "res/whw.kml",
			SegmentsCSV: "res/segments.csv",
			PointsCSV:   "res/points.csv",
			DEM:         "res/whw.tif",
			Nature:      "res/cached_nature.gpkg",
			Lakes:       "res/cached_lakes_scotland.gpkg",
		},
		Output: "output/whw.pdf",
		Page: Page{
			WidthMM:  419.1, // 16.5in
			HeightMM: 670.6, // 16.5in * 1.60
			Aspect:   1.57,
			Buffer:   0.1,
		},
		Route: Route{
			SmoothIterations: 2,
			WidthMM:          1.5,
		},
		Hillshade: Hillshade{
			Azimuth:  315,
			Altitude: 45,
			VertExag: 1.5,
			Colors:   []string{"#7f6a53", "#a89070", "#c8b28a", "#e0cfac", "#f3e7d3"},
		},
		Nature: FeatureStyle{
			MinAreaM2:        170000,
			SimplifyM:        2,
			SmoothIterations: 1,
		},
		Lakes: FeatureStyle{
			MinAreaM2:        150000,
			SimplifyM:        3,
			SmoothIterations: 1,
		},
		Style: Style{
			Water:       "#8aa6a3",
			RouteColor:  "#3b2f25",
			Step:        "#9e5741",
			Forest:      "#6a845e",
			Grass:       "#adb88f",
			NatureAlpha: 0.5,
			MarkerMM:    2.5,
			LabelPt:     9,
		},
	}
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	return cfg, nil
}

// OutputDir is the directory the rendered map is written into.
func (c *Config) OutputDir() string {
	return filepath.Dir(c.Output)
}
