// Package raster loads single band GeoTIFF elevation models and derives
// hillshade from them.
package raster

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/dave/whw/geo"

	"github.com/google/tiff"
	_ "github.com/google/tiff/bigtiff"
	_ "github.com/google/tiff/geotiff"
	"golang.org/x/image/tiff/lzw"
)

// FileAccessError is a missing or undecodable raster file.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("raster %q: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}

// DEM is an elevation grid with its geographic transform. Grid is row
// major, top row first. Nodata cells are NaN.
type DEM struct {
	Grid   []float64
	Width  int
	Height int

	// top-left corner of the top-left pixel and per-pixel size, in CRS units
	OriginX, OriginY float64
	ScaleX, ScaleY   float64

	// EPSG code from the GeoKey directory, 0 if the file carries none
	EPSG int
}

func (d *DEM) Elevation(col, row int) float64 {
	return d.Grid[row*d.Width+col]
}

// Bounds is the geographic extent covered by the grid.
func (d *DEM) Bounds() geo.Bounds {
	return geo.Bounds{
		MinLon: d.OriginX,
		MaxLon: d.OriginX + float64(d.Width)*d.ScaleX,
		MinLat: d.OriginY - float64(d.Height)*d.ScaleY,
		MaxLat: d.OriginY,
	}
}

// A demIFD is a struct into which github.com/google/tiff can unmarshal an
// IFD.
type demIFD struct {
	ImageWidth                uint32    `tiff:"field,tag=256"`
	ImageLength               uint32    `tiff:"field,tag=257"`
	BitsPerSample             uint16    `tiff:"field,tag=258"`
	Compression               uint16    `tiff:"field,tag=259"`
	PhotometricInterpretation uint16    `tiff:"field,tag=262"`
	StripOffsets              []uint64  `tiff:"field,tag=273"`
	SamplesPerPixel           uint16    `tiff:"field,tag=277"`
	RowsPerStrip              uint32    `tiff:"field,tag=278"`
	StripByteCounts           []uint64  `tiff:"field,tag=279"`
	PlanarConfiguration       uint16    `tiff:"field,tag=284"`
	Predictor                 uint16    `tiff:"field,tag=317"`
	TileWidth                 uint16    `tiff:"field,tag=322"`
	TileLength                uint16    `tiff:"field,tag=323"`
	TileOffsets               []uint64  `tiff:"field,tag=324"`
	TileByteCounts            []uint64  `tiff:"field,tag=325"`
	SampleFormat              uint16    `tiff:"field,tag=339"`
	ModelPixelScale           []float64 `tiff:"field,tag=33550"`
	ModelTiepoint             []float64 `tiff:"field,tag=33922"`
	GeoKeyDirectory           []uint16  `tiff:"field,tag=34735"`
	GDALNoData                string    `tiff:"field,tag=42113"`
}

const (
	compressionNone = 1
	compressionLZW  = 5

	sampleFormatUint  = 1
	sampleFormatInt   = 2
	sampleFormatFloat = 3
)

// LoadDEM reads a single band strip- or tile-organized GeoTIFF,
// uncompressed or LZW. No resampling or reprojection happens here.
func LoadDEM(fpath string) (*DEM, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, &FileAccessError{Path: fpath, Err: err}
	}
	defer f.Close()

	d, err := decode(f)
	if err != nil {
		return nil, &FileAccessError{Path: fpath, Err: err}
	}
	return d, nil
}

func decode(f *os.File) (*DEM, error) {
	var magic [2]byte
	if _, err := f.ReadAt(magic[:], 0); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	var order binary.ByteOrder = binary.LittleEndian
	if magic[0] == 'M' && magic[1] == 'M' {
		order = binary.BigEndian
	}

	t, err := tiff.Parse(f, tiff.GetTagSpace("GeoTIFF"), nil)
	if err != nil {
		return nil, fmt.Errorf("parsing tiff: %w", err)
	}
	if len(t.IFDs()) < 1 {
		return nil, fmt.Errorf("no IFDs")
	}

	var ifd demIFD
	if err := tiff.UnmarshalIFD(t.IFDs()[0], &ifd); err != nil {
		return nil, fmt.Errorf("unmarshaling ifd: %w", err)
	}

	if ifd.SamplesPerPixel > 1 || ifd.PlanarConfiguration > 1 {
		return nil, fmt.Errorf("expected a single band, got %d samples per pixel", ifd.SamplesPerPixel)
	}
	if ifd.Predictor > 1 {
		return nil, fmt.Errorf("unsupported predictor %d", ifd.Predictor)
	}
	if ifd.Compression != 0 && ifd.Compression != compressionNone && ifd.Compression != compressionLZW {
		return nil, fmt.Errorf("unsupported compression %d", ifd.Compression)
	}
	sampleBytes := int(ifd.BitsPerSample) / 8
	switch {
	case ifd.BitsPerSample == 32 && ifd.SampleFormat == sampleFormatFloat:
	case ifd.BitsPerSample == 16 && (ifd.SampleFormat == sampleFormatInt || ifd.SampleFormat == sampleFormatUint || ifd.SampleFormat == 0):
	default:
		return nil, fmt.Errorf("unsupported sample type: %d bits, format %d", ifd.BitsPerSample, ifd.SampleFormat)
	}
	if len(ifd.ModelPixelScale) != 3 || len(ifd.ModelTiepoint) < 6 {
		return nil, fmt.Errorf("missing geotiff transform tags")
	}
	if ifd.ModelTiepoint[0] != 0 || ifd.ModelTiepoint[1] != 0 {
		return nil, fmt.Errorf("unsupported tiepoint at raster %v,%v", ifd.ModelTiepoint[0], ifd.ModelTiepoint[1])
	}

	d := &DEM{
		Width:   int(ifd.ImageWidth),
		Height:  int(ifd.ImageLength),
		ScaleX:  ifd.ModelPixelScale[0],
		ScaleY:  ifd.ModelPixelScale[1],
		OriginX: ifd.ModelTiepoint[3],
		OriginY: ifd.ModelTiepoint[4],
	}
	if d.Width <= 0 || d.Height <= 0 {
		return nil, fmt.Errorf("empty raster %dx%d", d.Width, d.Height)
	}
	d.Grid = make([]float64, d.Width*d.Height)

	if len(ifd.GeoKeyDirectory) > 0 {
		epsg, err := epsgFromGeoKeys(ifd.GeoKeyDirectory)
		if err != nil {
			return nil, err
		}
		d.EPSG = epsg
	}

	noData := math.NaN()
	if ifd.GDALNoData != "" {
		if v, err := strconv.ParseFloat(ifd.GDALNoData, 64); err == nil {
			noData = v
		}
	}

	decodeSample := func(b []byte) float64 {
		if sampleBytes == 4 {
			return float64(math.Float32frombits(order.Uint32(b)))
		}
		if ifd.SampleFormat == sampleFormatUint {
			return float64(order.Uint16(b))
		}
		return float64(int16(order.Uint16(b)))
	}

	readBlock := func(offset, byteCount uint64, uncompressed int) ([]byte, error) {
		raw := make([]byte, byteCount)
		if _, err := f.ReadAt(raw, int64(offset)); err != nil {
			return nil, fmt.Errorf("reading block at %d: %w", offset, err)
		}
		if ifd.Compression != compressionLZW {
			return raw, nil
		}
		return decompressLZW(raw, uncompressed)
	}

	if len(ifd.TileOffsets) > 0 {
		if err := readTiles(d, &ifd, readBlock, decodeSample, sampleBytes); err != nil {
			return nil, err
		}
	} else {
		if err := readStrips(d, &ifd, readBlock, decodeSample, sampleBytes); err != nil {
			return nil, err
		}
	}

	if !math.IsNaN(noData) {
		for i, v := range d.Grid {
			if v == noData {
				d.Grid[i] = math.NaN()
			}
		}
	}
	return d, nil
}

type blockReader func(offset, byteCount uint64, uncompressed int) ([]byte, error)

func readStrips(d *DEM, ifd *demIFD, read blockReader, decode func([]byte) float64, sampleBytes int) error {
	rowsPerStrip := int(ifd.RowsPerStrip)
	if rowsPerStrip == 0 {
		rowsPerStrip = d.Height
	}
	strips := (d.Height + rowsPerStrip - 1) / rowsPerStrip
	if len(ifd.StripOffsets) != strips || len(ifd.StripByteCounts) != strips {
		return fmt.Errorf("expected %d strips, got %d offsets and %d byte counts", strips, len(ifd.StripOffsets), len(ifd.StripByteCounts))
	}
	for s := 0; s < strips; s++ {
		rows := rowsPerStrip
		if (s+1)*rowsPerStrip > d.Height {
			rows = d.Height - s*rowsPerStrip
		}
		data, err := read(ifd.StripOffsets[s], ifd.StripByteCounts[s], rows*d.Width*sampleBytes)
		if err != nil {
			return err
		}
		if len(data) < rows*d.Width*sampleBytes {
			return fmt.Errorf("strip %d: short data", s)
		}
		for i := 0; i < rows*d.Width; i++ {
			d.Grid[s*rowsPerStrip*d.Width+i] = decode(data[i*sampleBytes : (i+1)*sampleBytes])
		}
	}
	return nil
}

func readTiles(d *DEM, ifd *demIFD, read blockReader, decode func([]byte) float64, sampleBytes int) error {
	tw, th := int(ifd.TileWidth), int(ifd.TileLength)
	if tw == 0 || th == 0 {
		return fmt.Errorf("missing tile dimensions")
	}
	across := (d.Width + tw - 1) / tw
	down := (d.Height + th - 1) / th
	if len(ifd.TileOffsets) != across*down || len(ifd.TileByteCounts) != across*down {
		return fmt.Errorf("expected %d tiles, got %d offsets and %d byte counts", across*down, len(ifd.TileOffsets), len(ifd.TileByteCounts))
	}
	for tr := 0; tr < down; tr++ {
		for tc := 0; tc < across; tc++ {
			idx := tr*across + tc
			data, err := read(ifd.TileOffsets[idx], ifd.TileByteCounts[idx], tw*th*sampleBytes)
			if err != nil {
				return err
			}
			if len(data) < tw*th*sampleBytes {
				return fmt.Errorf("tile %d: short data", idx)
			}
			for y := 0; y < th; y++ {
				row := tr*th + y
				if row >= d.Height {
					break
				}
				for x := 0; x < tw; x++ {
					col := tc*tw + x
					if col >= d.Width {
						break
					}
					i := (y*tw + x) * sampleBytes
					d.Grid[row*d.Width+col] = decode(data[i : i+sampleBytes])
				}
			}
		}
	}
	return nil
}

func decompressLZW(compressed []byte, size int) ([]byte, error) {
	r := lzw.NewReader(bytes.NewReader(compressed), lzw.MSB, 8)
	defer r.Close()
	out := make([]byte, size)
	for read := 0; read < size; {
		n, err := r.Read(out[read:])
		if err != nil {
			return nil, fmt.Errorf("lzw: %w", err)
		}
		read += n
	}
	return out, nil
}
