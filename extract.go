package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/dave/whw/config"
	"github.com/dave/whw/geo"
	"github.com/dave/whw/kml"

	"github.com/rs/zerolog/log"
)

// Segment is one contiguous piece of the route.
type Segment struct {
	Name string
	Line geo.Line
}

// Point is a point of interest along the route.
type Point struct {
	Name string
	Pos  geo.Pos
}

// extractRoute classifies every named placemark by its geometry: line
// strings become segments, points become points of interest. A line with a
// single vertex is a point. In lenient mode anything unrecognized or
// malformed is skipped with a warning; in strict mode it fails the run.
func extractRoute(root kml.Root, strict bool) ([]Segment, []Point, error) {
	var segments []Segment
	var points []Point
	var walkErr error

	skip := func(name string, err error) {
		if strict && walkErr == nil {
			if err == nil {
				err = fmt.Errorf("unrecognized geometry")
			}
			walkErr = &kml.ParseError{Context: fmt.Sprintf("placemark %q", name), Err: err}
			return
		}
		log.Warn().Str("placemark", name).AnErr("reason", err).Msg("Skipping placemark")
	}

	root.Document.Walk(func(p *kml.Placemark) {
		if walkErr != nil {
			return
		}
		name := p.Name
		if name == "" {
			name = "Unnamed"
		}
		switch {
		case p.Point != nil:
			pos, err := p.Point.Pos()
			if err != nil {
				skip(name, err)
				return
			}
			points = append(points, Point{Name: name, Pos: pos})
		case p.LineString != nil:
			line, err := p.LineString.Line()
			if err != nil {
				skip(name, err)
				return
			}
			appendLine(&segments, &points, name, line)
		case p.MultiGeometry != nil && len(p.MultiGeometry.LineStrings) > 0:
			lines := make([]geo.Line, 0, len(p.MultiGeometry.LineStrings))
			for _, ls := range p.MultiGeometry.LineStrings {
				line, err := ls.Line()
				if err != nil {
					skip(name, err)
					return
				}
				lines = append(lines, line)
			}
			appendLine(&segments, &points, name, geo.MergeLines(orientLines(lines)))
		default:
			skip(name, nil)
		}
	})

	if walkErr != nil {
		return nil, nil, walkErr
	}
	return segments, points, nil
}

// orientLines reverses multi geometry pieces drawn against the chain
// direction, so the merged segment stays continuous.
func orientLines(lines []geo.Line) []geo.Line {
	for i := 1; i < len(lines); i++ {
		if len(lines[i-1]) == 0 || len(lines[i]) < 2 {
			continue
		}
		prev := lines[i-1].End()
		if lines[i].End().Distance(prev) < lines[i].Start().Distance(prev) {
			lines[i].Reverse()
		}
	}
	return lines
}

// routeLength is the total trail length in km.
func routeLength(segments []Segment) float64 {
	var km float64
	for _, s := range segments {
		km += s.Line.Length()
	}
	return km
}

func appendLine(segments *[]Segment, points *[]Point, name string, line geo.Line) {
	if len(line) == 0 {
		return
	}
	if len(line) == 1 {
		*points = append(*points, Point{Name: name, Pos: line[0]})
		return
	}
	*segments = append(*segments, Segment{Name: name, Line: line})
}

// loadRoute returns the trail segments and points of interest, from the
// CSV cache when both files exist and otherwise by extracting the KML and
// writing the cache for the next run.
func loadRoute(cfg *config.Config) ([]Segment, []Point, error) {
	_, segErr := os.Stat(cfg.Inputs.SegmentsCSV)
	_, ptsErr := os.Stat(cfg.Inputs.PointsCSV)
	if segErr == nil && ptsErr == nil {
		log.Info().Str("segments", cfg.Inputs.SegmentsCSV).Str("points", cfg.Inputs.PointsCSV).Msg("Loading cached route tables")
		segments, err := loadSegmentsCSV(cfg.Inputs.SegmentsCSV)
		if err != nil {
			return nil, nil, err
		}
		points, err := loadPointsCSV(cfg.Inputs.PointsCSV)
		if err != nil {
			return nil, nil, err
		}
		return segments, points, nil
	}

	log.Info().Str("kml", cfg.Inputs.KML).Msg("Extracting route from KML")
	root, err := kml.Load(cfg.Inputs.KML)
	if err != nil {
		return nil, nil, err
	}
	segments, points, err := extractRoute(root, cfg.Strict)
	if err != nil {
		return nil, nil, err
	}
	if keep := cfg.Route.Keep; keep != nil {
		segments = sliceSegments(segments, keep.From, keep.To)
	}

	if err := saveSegmentsCSV(cfg.Inputs.SegmentsCSV, segments); err != nil {
		return nil, nil, err
	}
	if err := savePointsCSV(cfg.Inputs.PointsCSV, points); err != nil {
		return nil, nil, err
	}
	return segments, points, nil
}

func sliceSegments(segments []Segment, from, to int) []Segment {
	if from < 0 {
		from = 0
	}
	if to > len(segments) {
		to = len(segments)
	}
	if from >= to {
		return nil
	}
	return segments[from:to]
}

func saveSegmentsCSV(fpath string, segments []Segment) error {
	f, err := os.Create(fpath)
	if err != nil {
		return fmt.Errorf("creating %q: %w", fpath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"name", "coordinates"}); err != nil {
		return err
	}
	for _, s := range segments {
		if err := w.Write([]string{s.Name, kml.LineCoordinates(s.Line)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func loadSegmentsCSV(fpath string) ([]Segment, error) {
	records, err := readCSV(fpath, 2)
	if err != nil {
		return nil, err
	}
	segments := make([]Segment, 0, len(records))
	for _, rec := range records {
		line, err := kml.ParseLine(rec[1])
		if err != nil {
			return nil, fmt.Errorf("segment %q in %q: %w", rec[0], fpath, err)
		}
		segments = append(segments, Segment{Name: rec[0], Line: line})
	}
	return segments, nil
}

func savePointsCSV(fpath string, points []Point) error {
	f, err := os.Create(fpath)
	if err != nil {
		return fmt.Errorf("creating %q: %w", fpath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"name", "lon", "lat", "ele"}); err != nil {
		return err
	}
	for _, p := range points {
		rec := []string{
			p.Name,
			strconv.FormatFloat(p.Pos.Lon, 'g', -1, 64),
			strconv.FormatFloat(p.Pos.Lat, 'g', -1, 64),
			strconv.FormatFloat(p.Pos.Ele, 'g', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func loadPointsCSV(fpath string) ([]Point, error) {
	records, err := readCSV(fpath, 4)
	if err != nil {
		return nil, err
	}
	points := make([]Point, 0, len(records))
	for _, rec := range records {
		var pos geo.Pos
		if pos.Lon, err = strconv.ParseFloat(rec[1], 64); err != nil {
			return nil, fmt.Errorf("point %q in %q: %w", rec[0], fpath, err)
		}
		if pos.Lat, err = strconv.ParseFloat(rec[2], 64); err != nil {
			return nil, fmt.Errorf("point %q in %q: %w", rec[0], fpath, err)
		}
		if pos.Ele, err = strconv.ParseFloat(rec[3], 64); err != nil {
			return nil, fmt.Errorf("point %q in %q: %w", rec[0], fpath, err)
		}
		points = append(points, Point{Name: rec[0], Pos: pos})
	}
	return points, nil
}

func readCSV(fpath string, fields int) ([][]string, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", fpath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = fields
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", fpath, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil // drop header
}
