// Package render composes the map layers into a fixed size vector PDF.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/dave/whw/geo"

	"github.com/go-pdf/fpdf"
	"github.com/paulmach/orb"
)

// wgs84 is the only CRS the renderer draws in. Layers with no CRS are
// assumed to already be in it.
const wgs84 = 4326

// RenderError is an input layer whose CRS cannot be reconciled, or a
// failure of the PDF backend.
type RenderError struct {
	Layer string
	EPSG  int
	Err   error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rendering: %v", e.Err)
	}
	return fmt.Sprintf("layer %q is in EPSG:%d and no reprojection is available (want EPSG:%d)", e.Layer, e.EPSG, wgs84)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Page is the output page size in millimeters.
type Page struct {
	WidthMM  float64
	HeightMM float64
}

// Raster is a bitmap layer with its geographic extent.
type Raster struct {
	Image  image.Image
	Bounds geo.Bounds
	EPSG   int
}

// Polygon is a filled vector layer element.
type Polygon struct {
	Geometry orb.Polygon
	Fill     color.RGBA
}

// Marker is a labeled point of interest.
type Marker struct {
	Pos  geo.Pos
	Name string
}

// Style is the route and marker styling.
type Style struct {
	RouteColor   color.RGBA
	RouteWidthMM float64
	MarkerFill   color.RGBA
	MarkerMM     float64
	LabelPt      float64
	NatureAlpha  float64
}

// Params is everything one render pass draws, bottom layer first:
// hillshade, nature polygons, lakes, route, markers.
type Params struct {
	Page       Page
	Extent     geo.Bounds
	Hillshade  *Raster
	Nature     []Polygon
	NatureEPSG int
	Lakes      []Polygon
	LakesEPSG  int
	Route      []geo.Line
	Markers    []Marker
	Style      Style
}

// Extent is the map window: the route bounds padded to the target aspect
// ratio (width over height) plus a margin in degrees on every side.
func Extent(b geo.Bounds, aspect, buffer float64) geo.Bounds {
	cx, _ := b.Center()
	w := b.Height() * aspect
	return geo.Bounds{
		MinLon: cx - w/2 - buffer,
		MaxLon: cx + w/2 + buffer,
		MinLat: b.MinLat - buffer,
		MaxLat: b.MaxLat + buffer,
	}
}

// Render draws all layers and writes the PDF to fpath, replacing any
// existing file. The write goes through a temp file so a failed render
// never leaves a partial PDF behind.
func Render(p Params, fpath string) error {
	if err := checkCRS(p); err != nil {
		return err
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: p.Page.WidthMM, Ht: p.Page.HeightMM},
	})
	// fixed metadata keeps renders of identical inputs byte identical
	pdf.SetCreationDate(time.Unix(0, 0).UTC())
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	proj := projector{extent: p.Extent, page: p.Page}

	pdf.ClipRect(0, 0, p.Page.WidthMM, p.Page.HeightMM, false)

	if p.Hillshade != nil {
		if err := drawRaster(pdf, proj, p.Hillshade); err != nil {
			return &RenderError{Err: err}
		}
	}

	pdf.SetAlpha(p.Style.NatureAlpha, "Normal")
	drawPolygons(pdf, proj, p.Nature)
	pdf.SetAlpha(1, "Normal")

	drawPolygons(pdf, proj, p.Lakes)

	drawRoute(pdf, proj, p.Route, p.Style)
	drawMarkers(pdf, proj, p.Markers, p.Style)

	pdf.ClipEnd()

	if pdf.Err() {
		return &RenderError{Err: pdf.Error()}
	}
	return write(pdf, fpath)
}

func checkCRS(p Params) error {
	layers := []struct {
		name string
		epsg int
	}{
		{"nature", p.NatureEPSG},
		{"lakes", p.LakesEPSG},
	}
	if p.Hillshade != nil {
		layers = append(layers, struct {
			name string
			epsg int
		}{"hillshade", p.Hillshade.EPSG})
	}
	for _, l := range layers {
		if l.epsg != 0 && l.epsg != wgs84 {
			return &RenderError{Layer: l.name, EPSG: l.epsg}
		}
	}
	return nil
}

type projector struct {
	extent geo.Bounds
	page   Page
}

func (p projector) xy(lon, lat float64) (float64, float64) {
	x := (lon - p.extent.MinLon) / p.extent.Width() * p.page.WidthMM
	y := (p.extent.MaxLat - lat) / p.extent.Height() * p.page.HeightMM
	return x, y
}

func drawRaster(pdf *fpdf.Fpdf, proj projector, r *Raster) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.Image); err != nil {
		return fmt.Errorf("encoding hillshade: %w", err)
	}
	opt := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("hillshade", opt, &buf)

	left, top := proj.xy(r.Bounds.MinLon, r.Bounds.MaxLat)
	right, bottom := proj.xy(r.Bounds.MaxLon, r.Bounds.MinLat)
	pdf.ImageOptions("hillshade", left, top, right-left, bottom-top, false, opt, 0, "")
	return nil
}

func drawPolygons(pdf *fpdf.Fpdf, proj projector, polygons []Polygon) {
	for _, poly := range polygons {
		if len(poly.Geometry) == 0 || len(poly.Geometry[0]) < 4 {
			continue
		}
		pdf.SetFillColor(int(poly.Fill.R), int(poly.Fill.G), int(poly.Fill.B))
		// all rings in one even-odd path, so interior rings cut holes
		for _, ring := range poly.Geometry {
			if len(ring) < 4 {
				continue
			}
			x, y := proj.xy(ring[0][0], ring[0][1])
			pdf.MoveTo(x, y)
			for _, pt := range ring[1:] {
				x, y := proj.xy(pt[0], pt[1])
				pdf.LineTo(x, y)
			}
			pdf.ClosePath()
		}
		pdf.DrawPath("f*")
	}
}

func drawRoute(pdf *fpdf.Fpdf, proj projector, route []geo.Line, style Style) {
	pdf.SetDrawColor(int(style.RouteColor.R), int(style.RouteColor.G), int(style.RouteColor.B))
	pdf.SetLineWidth(style.RouteWidthMM)
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")
	for _, line := range route {
		if len(line) < 2 {
			continue
		}
		x, y := proj.xy(line[0].Lon, line[0].Lat)
		pdf.MoveTo(x, y)
		for _, pos := range line[1:] {
			x, y := proj.xy(pos.Lon, pos.Lat)
			pdf.LineTo(x, y)
		}
		pdf.DrawPath("D")
	}
}

func drawMarkers(pdf *fpdf.Fpdf, proj projector, markers []Marker, style Style) {
	pdf.SetFillColor(int(style.MarkerFill.R), int(style.MarkerFill.G), int(style.MarkerFill.B))
	pdf.SetDrawColor(int(style.RouteColor.R), int(style.RouteColor.G), int(style.RouteColor.B))
	pdf.SetLineWidth(style.RouteWidthMM / 2)
	pdf.SetFont("Helvetica", "B", style.LabelPt)
	pdf.SetTextColor(int(style.RouteColor.R), int(style.RouteColor.G), int(style.RouteColor.B))
	for _, m := range markers {
		x, y := proj.xy(m.Pos.Lon, m.Pos.Lat)
		pdf.Circle(x, y, style.MarkerMM, "FD")
		if m.Name != "" {
			pdf.Text(x+style.MarkerMM+1, y+style.MarkerMM/2, m.Name)
		}
	}
}

func write(pdf *fpdf.Fpdf, fpath string) error {
	tmp, err := os.CreateTemp(filepath.Dir(fpath), ".whw-*.pdf")
	if err != nil {
		return fmt.Errorf("creating temp output: %w", err)
	}
	if err := pdf.Output(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &RenderError{Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp output: %w", err)
	}
	if err := os.Rename(tmp.Name(), fpath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing %q: %w", fpath, err)
	}
	return nil
}

// ParseHexColor parses a #rrggbb color.
func ParseHexColor(s string) (color.RGBA, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("parsing color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
