package raster

import (
	"image"
	"math"

	"github.com/mazznoer/colorgrad"
)

// Hillshade computes shaded relief intensities in [0, 1] from the
// elevation grid, row major like the grid itself. Azimuth is measured in
// degrees clockwise from north, altitude in degrees above the horizon.
// The result is contrast stretched unless the surface is flat, so a
// constant grid yields a uniform shade. Nodata cells come out as NaN.
func Hillshade(d *DEM, azimuth, altitude, vertExag float64) []float64 {
	w, h := d.Width, d.Height
	shade := make([]float64, w*h)
	if w < 2 || h < 2 {
		flat := math.Sin(altitude * math.Pi / 180)
		for i := range shade {
			shade[i] = flat
		}
		return shade
	}

	az := (90 - azimuth) * math.Pi / 180
	alt := altitude * math.Pi / 180
	dirX := math.Cos(az) * math.Cos(alt)
	dirY := math.Sin(az) * math.Cos(alt)
	dirZ := math.Sin(alt)

	imin, imax := math.Inf(1), math.Inf(-1)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			dzdx := gradient(d, row, col, 0) * vertExag
			// the grid is top row first, so the raw row gradient points
			// south; the light direction frame is north up
			dzdy := -gradient(d, row, col, 1) * vertExag

			i := row*w + col
			if math.IsNaN(dzdx) || math.IsNaN(dzdy) {
				shade[i] = math.NaN()
				continue
			}

			norm := math.Sqrt(dzdx*dzdx + dzdy*dzdy + 1)
			intensity := (-dzdx*dirX - dzdy*dirY + dirZ) / norm
			shade[i] = intensity
			if intensity < imin {
				imin = intensity
			}
			if intensity > imax {
				imax = intensity
			}
		}
	}

	stretch := imax-imin > 1e-6
	for i, v := range shade {
		if math.IsNaN(v) {
			continue
		}
		if stretch {
			v = (v - imin) / (imax - imin)
		}
		shade[i] = math.Min(1, math.Max(0, v))
	}
	return shade
}

// gradient is a central difference in the interior and a one-sided
// difference at the edges, in grid units. Axis 0 is columns, 1 is rows.
func gradient(d *DEM, row, col, axis int) float64 {
	at := func(r, c int) float64 { return d.Grid[r*d.Width+c] }
	if axis == 0 {
		switch {
		case col == 0:
			return at(row, 1) - at(row, 0)
		case col == d.Width-1:
			return at(row, col) - at(row, col-1)
		default:
			return (at(row, col+1) - at(row, col-1)) / 2
		}
	}
	switch {
	case row == 0:
		return at(1, col) - at(0, col)
	case row == d.Height-1:
		return at(row, col) - at(row-1, col)
	default:
		return (at(row+1, col) - at(row-1, col)) / 2
	}
}

// ShadeImage maps shade intensities through the gradient into a bitmap.
// NaN cells become fully transparent.
func ShadeImage(shade []float64, width, height int, grad colorgrad.Gradient) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			v := shade[row*width+col]
			if math.IsNaN(v) {
				continue // zero value pixel is transparent
			}
			r, g, b := grad.At(v).RGB255()
			i := img.PixOffset(col, row)
			img.Pix[i] = r
			img.Pix[i+1] = g
			img.Pix[i+2] = b
			img.Pix[i+3] = 255
		}
	}
	return img
}

// TerrainGradient builds the default elevation colormap, dark earth in
// the shadows through pale sand at the brightest slopes.
func TerrainGradient(colors []string) (colorgrad.Gradient, error) {
	return colorgrad.NewGradient().HtmlColors(colors...).Build()
}
