package gpkg

import (
	"encoding/binary"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// GeoPackage geometry blob: a "GP" header (version, flags, srs id and an
// optional envelope) followed by standard WKB.

const (
	flagByteOrderLE  = 1 << 0
	flagEmpty        = 1 << 4
	flagExtendedType = 1 << 5
)

var envelopeSizes = [...]int{0: 0, 1: 32, 2: 48, 3: 48, 4: 64}

// decodeGeometry parses a GeoPackage geometry blob. It returns a nil
// geometry without error for blobs flagged empty.
func decodeGeometry(blob []byte) (orb.Geometry, error) {
	if len(blob) < 8 {
		return nil, fmt.Errorf("geometry blob too short (%d bytes)", len(blob))
	}
	if blob[0] != 'G' || blob[1] != 'P' {
		return nil, fmt.Errorf("bad geometry blob magic %q", blob[:2])
	}
	flags := blob[3]
	if flags&flagExtendedType != 0 {
		return nil, fmt.Errorf("extended geometry types not supported")
	}
	envelope := int(flags>>1) & 0x7
	if envelope >= len(envelopeSizes) {
		return nil, fmt.Errorf("invalid envelope indicator %d", envelope)
	}
	headerLen := 8 + envelopeSizes[envelope]
	if len(blob) < headerLen {
		return nil, fmt.Errorf("geometry blob shorter than its header")
	}
	if flags&flagEmpty != 0 {
		return nil, nil
	}
	geom, err := wkb.Unmarshal(blob[headerLen:])
	if err != nil {
		return nil, fmt.Errorf("decoding wkb body: %w", err)
	}
	return geom, nil
}

// EncodeGeometry builds a GeoPackage geometry blob without an envelope.
// The loader only reads blobs, but fixtures and cache writers need the
// inverse.
func EncodeGeometry(geom orb.Geometry, srsID int32) ([]byte, error) {
	body, err := wkb.Marshal(geom, binary.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("encoding wkb body: %w", err)
	}
	header := make([]byte, 8)
	header[0], header[1] = 'G', 'P'
	header[2] = 0 // version 1
	header[3] = flagByteOrderLE
	binary.LittleEndian.PutUint32(header[4:], uint32(srsID))
	return append(header, body...), nil
}
