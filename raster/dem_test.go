package raster

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestWriteLoadRoundTrip(t *testing.T) {
	d := &DEM{
		Grid: []float64{
			10, 20, 30,
			40, 50, 60,
		},
		Width:   3,
		Height:  2,
		OriginX: -5.0,
		OriginY: 57.0,
		ScaleX:  0.25,
		ScaleY:  0.25,
		EPSG:    4326,
	}
	fpath := filepath.Join(t.TempDir(), "dem.tif")
	assert.NoError(t, WriteDEM(fpath, d))

	loaded, err := LoadDEM(fpath)
	assert.NoError(t, err)
	assert.Equal(t, d.Width, loaded.Width)
	assert.Equal(t, d.Height, loaded.Height)
	assert.Equal(t, d.OriginX, loaded.OriginX)
	assert.Equal(t, d.OriginY, loaded.OriginY)
	assert.Equal(t, d.ScaleX, loaded.ScaleX)
	assert.Equal(t, d.ScaleY, loaded.ScaleY)
	assert.Equal(t, 4326, loaded.EPSG)
	assert.Equal(t, d.Grid, loaded.Grid)
	assert.Equal(t, 60.0, loaded.Elevation(2, 1))
}

func TestDEMBounds(t *testing.T) {
	d := ConstantDEM(4, 2, 100, -5.0, 57.0, 0.5, 4326)
	b := d.Bounds()
	assert.Equal(t, -5.0, b.MinLon)
	assert.Equal(t, -3.0, b.MaxLon)
	assert.Equal(t, 57.0, b.MaxLat)
	assert.Equal(t, 56.0, b.MinLat)
}

func TestLoadDEMMissingFile(t *testing.T) {
	_, err := LoadDEM(filepath.Join(t.TempDir(), "nope.tif"))
	assert.Error(t, err)
	ferr := &FileAccessError{}
	assert.True(t, errors.As(err, &ferr))
}

func TestLoadDEMNotATIFF(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "garbage.tif")
	assert.NoError(t, os.WriteFile(fpath, []byte("not a tiff at all"), 0o666))
	_, err := LoadDEM(fpath)
	assert.Error(t, err)
	ferr := &FileAccessError{}
	assert.True(t, errors.As(err, &ferr))
}

func TestConstantDEM(t *testing.T) {
	d := ConstantDEM(3, 3, 42, 0, 0, 1, 0)
	for _, v := range d.Grid {
		assert.Equal(t, 42.0, v)
	}
	assert.Equal(t, 0, d.EPSG)
}

func TestEPSGFromGeoKeys(t *testing.T) {
	geographic := []uint16{1, 1, 0, 2, 1024, 0, 1, 2, 2048, 0, 1, 4326}
	code, err := epsgFromGeoKeys(geographic)
	assert.NoError(t, err)
	assert.Equal(t, 4326, code)

	projected := []uint16{1, 1, 0, 2, 1024, 0, 1, 1, 3072, 0, 1, 27700}
	code, err = epsgFromGeoKeys(projected)
	assert.NoError(t, err)
	assert.Equal(t, 27700, code)

	_, err = epsgFromGeoKeys([]uint16{2, 0, 0, 0})
	assert.Error(t, err)
}

