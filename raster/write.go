package raster

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

const (
	typeShort  = 3
	typeLong   = 4
	typeDouble = 12
)

// WriteDEM writes the grid as a little endian, single strip, uncompressed
// float32 GeoTIFF. The inverse of LoadDEM, used to build clipped elevation
// caches and test fixtures.
func WriteDEM(fpath string, d *DEM) error {
	if d.Width <= 0 || d.Height <= 0 || len(d.Grid) != d.Width*d.Height {
		return fmt.Errorf("inconsistent grid: %dx%d with %d samples", d.Width, d.Height, len(d.Grid))
	}

	dataOffset := uint32(8)
	dataLen := uint32(d.Width * d.Height * 4)
	scaleOffset := dataOffset + dataLen
	tiepointOffset := scaleOffset + 3*8
	geoKeyOffset := tiepointOffset + 6*8

	geoKeys := []uint16{}
	if d.EPSG > 0 {
		geoKeys = []uint16{
			1, 1, 0, 2, // version, revision 1.0, two keys
			1024, 0, 1, modelTypeGeographic,
			2048, 0, 1, uint16(d.EPSG),
		}
	}
	ifdOffset := geoKeyOffset + uint32(2*len(geoKeys))

	buf := &bytes.Buffer{}
	le := binary.LittleEndian

	// header
	buf.WriteString("II")
	binary.Write(buf, le, uint16(42))
	binary.Write(buf, le, ifdOffset)

	// pixel data
	for _, v := range d.Grid {
		binary.Write(buf, le, float32(v))
	}

	// transform and geokeys, referenced from the IFD
	binary.Write(buf, le, []float64{d.ScaleX, d.ScaleY, 0})
	binary.Write(buf, le, []float64{0, 0, 0, d.OriginX, d.OriginY, 0})
	binary.Write(buf, le, geoKeys)

	type entry struct {
		tag, typ uint16
		count    uint32
		value    uint32
	}
	entries := []entry{
		{256, typeLong, 1, uint32(d.Width)},
		{257, typeLong, 1, uint32(d.Height)},
		{258, typeShort, 1, 32},
		{259, typeShort, 1, compressionNone},
		{262, typeShort, 1, 1}, // BlackIsZero
		{273, typeLong, 1, dataOffset},
		{277, typeShort, 1, 1},
		{278, typeLong, 1, uint32(d.Height)},
		{279, typeLong, 1, dataLen},
		{339, typeShort, 1, sampleFormatFloat},
		{33550, typeDouble, 3, scaleOffset},
		{33922, typeDouble, 6, tiepointOffset},
	}
	if len(geoKeys) > 0 {
		entries = append(entries, entry{34735, typeShort, uint32(len(geoKeys)), geoKeyOffset})
	}

	binary.Write(buf, le, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(buf, le, e.tag)
		binary.Write(buf, le, e.typ)
		binary.Write(buf, le, e.count)
		binary.Write(buf, le, e.value)
	}
	binary.Write(buf, le, uint32(0)) // no next IFD

	if err := os.WriteFile(fpath, buf.Bytes(), 0o666); err != nil {
		return fmt.Errorf("writing %q: %w", fpath, err)
	}
	return nil
}

// ConstantDEM builds an in-memory DEM with every cell at the given
// elevation, covering bounds top-left origin (originX, originY).
func ConstantDEM(width, height int, elevation, originX, originY, scale float64, epsg int) *DEM {
	d := &DEM{
		Grid:    make([]float64, width*height),
		Width:   width,
		Height:  height,
		OriginX: originX,
		OriginY: originY,
		ScaleX:  scale,
		ScaleY:  scale,
		EPSG:    epsg,
	}
	for i := range d.Grid {
		d.Grid[i] = elevation
	}
	return d
}
