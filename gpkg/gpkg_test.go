package gpkg

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/paulmach/orb"
)

func fixtureLayers() []Layer {
	forest := orb.Polygon{{{-4.5, 56.0}, {-4.4, 56.0}, {-4.4, 56.1}, {-4.5, 56.1}, {-4.5, 56.0}}}
	lake := orb.Polygon{{{-4.7, 56.2}, {-4.6, 56.2}, {-4.6, 56.3}, {-4.7, 56.3}, {-4.7, 56.2}}}
	return []Layer{
		{
			Table: "lakes",
			SRSID: 4326,
			Features: []Feature{
				{Geometry: lake, Tags: map[string]string{"name": "Loch Lomond", "natural": "water"}},
			},
		},
		{
			Table: "nature",
			SRSID: 4326,
			Features: []Feature{
				{Geometry: forest, Tags: map[string]string{"landuse": "forest"}},
				{Geometry: lake, Tags: map[string]string{"natural": "water", "water": "loch"}},
			},
		},
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "cache.gpkg")
	want := fixtureLayers()
	assert.NoError(t, Write(fpath, want))

	got, err := Load(fpath)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(got))

	// layers come back ordered by table name
	assert.Equal(t, "lakes", got[0].Table)
	assert.Equal(t, "nature", got[1].Table)
	for i, layer := range got {
		assert.Equal(t, 4326, layer.SRSID)
		assert.Equal(t, len(want[i].Features), len(layer.Features))
		for j, f := range layer.Features {
			assert.Equal(t, want[i].Features[j].Geometry, f.Geometry)
			assert.Equal(t, want[i].Features[j].Tags, f.Tags)
		}
	}
}

func TestLoadMissingCache(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.gpkg"))
	assert.Error(t, err)
	merr := &MissingCacheError{}
	assert.True(t, errors.As(err, &merr))
}

func TestWriteReplacesExisting(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "cache.gpkg")
	assert.NoError(t, Write(fpath, fixtureLayers()))
	assert.NoError(t, Write(fpath, fixtureLayers()[:1]))

	got, err := Load(fpath)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(got))
	assert.Equal(t, "lakes", got[0].Table)
}

func TestGeometryBlobRoundTrip(t *testing.T) {
	poly := orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}
	blob, err := EncodeGeometry(poly, 4326)
	assert.NoError(t, err)
	assert.Equal(t, byte('G'), blob[0])
	assert.Equal(t, byte('P'), blob[1])

	geom, err := decodeGeometry(blob)
	assert.NoError(t, err)
	assert.Equal(t, orb.Geometry(poly), geom)
}

func TestDecodeGeometryRejectsGarbage(t *testing.T) {
	_, err := decodeGeometry([]byte("XX"))
	assert.Error(t, err)

	_, err = decodeGeometry([]byte("XXxxxxxx"))
	assert.Error(t, err)
}

func TestDecodeGeometryEmptyFlag(t *testing.T) {
	blob := []byte{'G', 'P', 0, flagByteOrderLE | flagEmpty, 0, 0, 0, 0}
	geom, err := decodeGeometry(blob)
	assert.NoError(t, err)
	assert.True(t, geom == nil)
}
