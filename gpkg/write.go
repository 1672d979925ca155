package gpkg

import (
	"database/sql"
	"fmt"
	"os"
)

// Write builds a GeoPackage at fpath containing the given feature layers,
// replacing any existing file. The inverse of Load: this is what the
// external cache building step uses, and what fixtures are made of.
func Write(fpath string, layers []Layer) error {
	if err := os.Remove(fpath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replacing %q: %w", fpath, err)
	}

	db, err := sql.Open("sqlite", fpath)
	if err != nil {
		return fmt.Errorf("creating geopackage %q: %w", fpath, err)
	}
	defer db.Close()

	ddl := []string{
		`CREATE TABLE gpkg_spatial_ref_sys (
			srs_name TEXT NOT NULL,
			srs_id INTEGER PRIMARY KEY,
			organization TEXT NOT NULL,
			organization_coordsys_id INTEGER NOT NULL,
			definition TEXT NOT NULL,
			description TEXT)`,
		`CREATE TABLE gpkg_contents (
			table_name TEXT PRIMARY KEY,
			data_type TEXT NOT NULL,
			identifier TEXT UNIQUE,
			description TEXT DEFAULT '',
			last_change DATETIME DEFAULT '',
			min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE,
			srs_id INTEGER)`,
		`CREATE TABLE gpkg_geometry_columns (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			geometry_type_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL,
			z TINYINT NOT NULL,
			m TINYINT NOT NULL,
			CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name))`,
		`INSERT INTO gpkg_spatial_ref_sys VALUES
			('WGS 84', 4326, 'EPSG', 4326, 'GEOGCS["WGS 84"]', NULL),
			('Undefined', 0, 'NONE', 0, 'undefined', NULL),
			('Undefined', -1, 'NONE', -1, 'undefined', NULL)`,
	}
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("initializing geopackage %q: %w", fpath, err)
		}
	}

	for _, layer := range layers {
		if err := writeLayer(db, layer); err != nil {
			return fmt.Errorf("writing table %q to %q: %w", layer.Table, fpath, err)
		}
	}
	return nil
}

func writeLayer(db *sql.DB, layer Layer) error {
	srs := layer.SRSID
	if srs != 0 && srs != 4326 && srs != -1 {
		if _, err := db.Exec(
			`INSERT OR IGNORE INTO gpkg_spatial_ref_sys VALUES (?, ?, 'EPSG', ?, 'undefined', NULL)`,
			fmt.Sprintf("EPSG:%d", srs), srs, srs); err != nil {
			return err
		}
	}

	create := fmt.Sprintf(`CREATE TABLE %q (
		fid INTEGER PRIMARY KEY AUTOINCREMENT,
		geom BLOB`, layer.Table)
	for _, col := range tagColumns {
		create += fmt.Sprintf(", %q TEXT", col)
	}
	create += ")"
	if _, err := db.Exec(create); err != nil {
		return err
	}

	if _, err := db.Exec(
		`INSERT INTO gpkg_contents (table_name, data_type, identifier, srs_id) VALUES (?, 'features', ?, ?)`,
		layer.Table, layer.Table, srs); err != nil {
		return err
	}
	if _, err := db.Exec(
		`INSERT INTO gpkg_geometry_columns VALUES (?, 'geom', 'GEOMETRY', ?, 0, 0)`,
		layer.Table, srs); err != nil {
		return err
	}

	insert := fmt.Sprintf("INSERT INTO %q (geom", layer.Table)
	placeholders := "?"
	for _, col := range tagColumns {
		insert += fmt.Sprintf(", %q", col)
		placeholders += ", ?"
	}
	insert += ") VALUES (" + placeholders + ")"

	for _, feature := range layer.Features {
		blob, err := EncodeGeometry(feature.Geometry, int32(srs))
		if err != nil {
			return err
		}
		args := []any{blob}
		for _, col := range tagColumns {
			if v, ok := feature.Tags[col]; ok {
				args = append(args, v)
			} else {
				args = append(args, nil)
			}
		}
		if _, err := db.Exec(insert, args...); err != nil {
			return err
		}
	}
	return nil
}
