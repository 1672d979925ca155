// Package gpkg reads feature tables from GeoPackage files. The files are
// pre-built caches: when one is missing the caller gets a
// MissingCacheError, never a network fetch.
package gpkg

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/paulmach/orb"

	_ "modernc.org/sqlite"
)

// MissingCacheError is an expected cached dataset that is absent.
type MissingCacheError struct {
	Path string
}

func (e *MissingCacheError) Error() string {
	return fmt.Sprintf("cached dataset %q does not exist", e.Path)
}

// tagColumns are the attribute columns carried over from the upstream OSM
// extract, when the table has them.
var tagColumns = []string{"name", "natural", "landuse", "landcover", "leisure", "water"}

// Feature is one row of a feature table.
type Feature struct {
	Geometry orb.Geometry
	Tags     map[string]string
}

// Layer is one feature table.
type Layer struct {
	Table    string
	SRSID    int
	Features []Feature
}

// Load reads every feature table in the GeoPackage at fpath.
func Load(fpath string) ([]Layer, error) {
	if _, err := os.Stat(fpath); err != nil {
		return nil, &MissingCacheError{Path: fpath}
	}

	db, err := sql.Open("sqlite", fpath)
	if err != nil {
		return nil, fmt.Errorf("opening geopackage %q: %w", fpath, err)
	}
	defer db.Close()

	contents, err := db.Query(`
		SELECT c.table_name, g.column_name, g.srs_id
		FROM gpkg_contents c
		JOIN gpkg_geometry_columns g ON g.table_name = c.table_name
		WHERE c.data_type = 'features'
		ORDER BY c.table_name`)
	if err != nil {
		return nil, fmt.Errorf("reading geopackage contents of %q: %w", fpath, err)
	}
	type tableInfo struct {
		table, geomColumn string
		srsID             int
	}
	var tables []tableInfo
	for contents.Next() {
		var ti tableInfo
		if err := contents.Scan(&ti.table, &ti.geomColumn, &ti.srsID); err != nil {
			contents.Close()
			return nil, fmt.Errorf("scanning geopackage contents: %w", err)
		}
		tables = append(tables, ti)
	}
	if err := contents.Close(); err != nil {
		return nil, err
	}

	layers := make([]Layer, 0, len(tables))
	for _, ti := range tables {
		layer, err := loadTable(db, ti.table, ti.geomColumn, ti.srsID)
		if err != nil {
			return nil, fmt.Errorf("loading table %q from %q: %w", ti.table, fpath, err)
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

func loadTable(db *sql.DB, table, geomColumn string, srsID int) (Layer, error) {
	layer := Layer{Table: table, SRSID: srsID}

	present, err := presentTagColumns(db, table)
	if err != nil {
		return Layer{}, err
	}

	query := fmt.Sprintf("SELECT %q", geomColumn)
	for _, col := range present {
		query += fmt.Sprintf(", %q", col)
	}
	query += fmt.Sprintf(" FROM %q ORDER BY rowid", table)

	rows, err := db.Query(query)
	if err != nil {
		return Layer{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var blob []byte
		values := make([]sql.NullString, len(present))
		dest := make([]any, 0, len(present)+1)
		dest = append(dest, &blob)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return Layer{}, err
		}

		geom, err := decodeGeometry(blob)
		if err != nil {
			return Layer{}, err
		}
		if geom == nil {
			continue // header-only empty geometry
		}

		tags := make(map[string]string)
		for i, col := range present {
			if values[i].Valid && values[i].String != "" {
				tags[col] = values[i].String
			}
		}
		layer.Features = append(layer.Features, Feature{Geometry: geom, Tags: tags})
	}
	return layer, rows.Err()
}

func presentTagColumns(db *sql.DB, table string) ([]string, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	have := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		have[name] = true
	}
	var present []string
	for _, col := range tagColumns {
		if have[col] {
			present = append(present, col)
		}
	}
	return present, rows.Err()
}
