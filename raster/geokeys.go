package raster

import "fmt"

type geoKey uint16

const (
	geoKeyGTModelType  geoKey = 1024
	geoKeyGeodeticCRS  geoKey = 2048
	geoKeyProjectedCRS geoKey = 3072

	modelTypeProjected  = 1
	modelTypeGeographic = 2
)

// epsgFromGeoKeys extracts the CRS code from a GeoKey directory. Only
// keys stored inline (SHORT values) are consulted, which covers the CRS
// code keys.
func epsgFromGeoKeys(directory []uint16) (int, error) {
	if len(directory) < 4 {
		return 0, fmt.Errorf("geokey directory too short")
	}
	if directory[0] != 1 || directory[1] != 1 {
		return 0, fmt.Errorf("unsupported geokey directory version %d.%d", directory[0], directory[1])
	}
	numberOfKeys := int(directory[3])
	if len(directory) < 4+4*numberOfKeys {
		return 0, fmt.Errorf("geokey directory truncated")
	}

	keys := make(map[geoKey]int)
	for i := 0; i < numberOfKeys; i++ {
		entry := directory[4+4*i : 4+4*(i+1)]
		if entry[1] != 0 || entry[2] != 1 {
			continue // stored in another tag, not a CRS code
		}
		keys[geoKey(entry[0])] = int(entry[3])
	}

	switch keys[geoKeyGTModelType] {
	case modelTypeProjected:
		return keys[geoKeyProjectedCRS], nil
	case modelTypeGeographic:
		return keys[geoKeyGeodeticCRS], nil
	}
	if code, ok := keys[geoKeyGeodeticCRS]; ok {
		return code, nil
	}
	return keys[geoKeyProjectedCRS], nil
}
