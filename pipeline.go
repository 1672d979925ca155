package main

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"time"

	"github.com/dave/whw/config"
	"github.com/dave/whw/geo"
	"github.com/dave/whw/gpkg"
	"github.com/dave/whw/raster"
	"github.com/dave/whw/render"

	"github.com/rs/zerolog/log"
)

// run executes the whole pipeline once: route extraction, DEM load, cached
// feature load, geometry processing, render. Any failure aborts the run;
// nothing is retried and nothing is written on the failure path.
func run(cfg *config.Config) error {
	start := time.Now()

	if err := os.MkdirAll(cfg.OutputDir(), 0o777); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	segments, points, err := loadRoute(cfg)
	if err != nil {
		return fmt.Errorf("extracting route: %w", err)
	}
	if len(segments) == 0 {
		return fmt.Errorf("route has no segments")
	}
	log.Info().Int("segments", len(segments)).Int("points", len(points)).Float64("km", routeLength(segments)).Msg("Route loaded")

	dem, err := raster.LoadDEM(cfg.Inputs.DEM)
	if err != nil {
		return fmt.Errorf("loading elevation: %w", err)
	}
	log.Info().Int("width", dem.Width).Int("height", dem.Height).Int("epsg", dem.EPSG).Msg("Elevation loaded")

	// both caches must be present before anything is rendered
	natureLayers, err := gpkg.Load(cfg.Inputs.Nature)
	if err != nil {
		return fmt.Errorf("loading nature cache: %w", err)
	}
	lakeLayers, err := gpkg.Load(cfg.Inputs.Lakes)
	if err != nil {
		return fmt.Errorf("loading lakes cache: %w", err)
	}

	style, err := parseStyle(cfg)
	if err != nil {
		return err
	}

	natureColors := map[Category]color.RGBA{
		CategoryForest: style.forest,
		CategoryGrass:  style.grass,
	}
	nature, natureEPSG, err := stylePolygons(natureLayers, cfg.Nature, classifyNature, natureColors)
	if err != nil {
		return fmt.Errorf("processing nature features: %w", err)
	}
	lakes, lakesEPSG, err := stylePolygons(lakeLayers, cfg.Lakes, classifyWater, map[Category]color.RGBA{CategoryWater: style.water})
	if err != nil {
		return fmt.Errorf("processing lake features: %w", err)
	}
	log.Info().Int("nature", len(nature)).Int("lakes", len(lakes)).Msg("Features processed")

	bounds := geo.Bounds{
		MinLon: math.Inf(1), MinLat: math.Inf(1),
		MaxLon: math.Inf(-1), MaxLat: math.Inf(-1),
	}
	route := make([]geo.Line, len(segments))
	for i, s := range segments {
		bounds = bounds.Union(s.Line.Bounds())
		route[i] = geo.Smooth(s.Line, cfg.Route.SmoothIterations)
	}

	shade := raster.Hillshade(dem, cfg.Hillshade.Azimuth, cfg.Hillshade.Altitude, cfg.Hillshade.VertExag)
	grad, err := raster.TerrainGradient(cfg.Hillshade.Colors)
	if err != nil {
		return fmt.Errorf("building terrain colormap: %w", err)
	}
	hillshade := &render.Raster{
		Image:  raster.ShadeImage(shade, dem.Width, dem.Height, grad),
		Bounds: dem.Bounds(),
		EPSG:   dem.EPSG,
	}

	markers := make([]render.Marker, len(points))
	for i, p := range points {
		markers[i] = render.Marker{Pos: p.Pos, Name: p.Name}
	}

	params := render.Params{
		Page:       render.Page{WidthMM: cfg.Page.WidthMM, HeightMM: cfg.Page.HeightMM},
		Extent:     render.Extent(bounds, cfg.Page.Aspect, cfg.Page.Buffer),
		Hillshade:  hillshade,
		Nature:     nature,
		NatureEPSG: natureEPSG,
		Lakes:      lakes,
		LakesEPSG:  lakesEPSG,
		Route:      route,
		Markers:    markers,
		Style: render.Style{
			RouteColor:   style.route,
			RouteWidthMM: cfg.Route.WidthMM,
			MarkerFill:   style.step,
			MarkerMM:     cfg.Style.MarkerMM,
			LabelPt:      cfg.Style.LabelPt,
			NatureAlpha:  cfg.Style.NatureAlpha,
		},
	}

	if err := render.Render(params, cfg.Output); err != nil {
		return fmt.Errorf("rendering map: %w", err)
	}

	log.Info().Str("output", cfg.Output).Dur("took", time.Since(start)).Msg("Map saved")
	return nil
}

type palette struct {
	water, route, step, forest, grass color.RGBA
}

func parseStyle(cfg *config.Config) (*palette, error) {
	var p palette
	for _, c := range []struct {
		dst  *color.RGBA
		name string
		hex  string
	}{
		{&p.water, "water", cfg.Style.Water},
		{&p.route, "route", cfg.Style.RouteColor},
		{&p.step, "step", cfg.Style.Step},
		{&p.forest, "forest", cfg.Style.Forest},
		{&p.grass, "grass", cfg.Style.Grass},
	} {
		col, err := render.ParseHexColor(c.hex)
		if err != nil {
			return nil, fmt.Errorf("style color %s: %w", c.name, err)
		}
		*c.dst = col
	}
	return &p, nil
}
