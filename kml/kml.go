package kml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dave/whw/geo"
)

// ParseError is a malformed KML document or coordinate string.
type ParseError struct {
	Context string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing kml %s: %v", e.Context, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func Load(fpath string) (Root, error) {
	b, err := os.ReadFile(fpath)
	if err != nil {
		return Root{}, fmt.Errorf("reading kml %q: %w", fpath, err)
	}
	return Decode(bytes.NewBuffer(b))
}

func Decode(reader io.Reader) (Root, error) {
	var r Root
	if err := xml.NewDecoder(reader).Decode(&r); err != nil {
		return Root{}, &ParseError{Context: "document", Err: err}
	}
	return r, nil
}

type Root struct {
	Xmlns    string   `xml:"xmlns,attr"`
	Document Document `xml:"Document"`
}

type Document struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Visibility  int    `xml:"visibility"`
	Open        int    `xml:"open"`
	Nodes       []Node `xml:",any"`
}

// Walk visits every placemark in source document order, descending into
// folders as they appear.
func (d Document) Walk(fn func(*Placemark)) {
	for _, n := range d.Nodes {
		n.walk(fn)
	}
}

type Folder struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Visibility  int    `xml:"visibility"`
	Open        int    `xml:"open"`
	Nodes       []Node `xml:",any"`
}

// Node is one container child, a placemark or a nested folder, kept in
// document order. Children of any other element kind are left empty.
type Node struct {
	Placemark *Placemark
	Folder    *Folder
}

func (n *Node) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	switch start.Name.Local {
	case "Placemark":
		n.Placemark = &Placemark{}
		return d.DecodeElement(n.Placemark, &start)
	case "Folder":
		n.Folder = &Folder{}
		return d.DecodeElement(n.Folder, &start)
	}
	return d.Skip()
}

func (n Node) walk(fn func(*Placemark)) {
	switch {
	case n.Placemark != nil:
		fn(n.Placemark)
	case n.Folder != nil:
		for _, sub := range n.Folder.Nodes {
			sub.walk(fn)
		}
	}
}

type Placemark struct {
	Name          string         `xml:"name"`
	Description   string         `xml:"description"`
	Visibility    int            `xml:"visibility"`
	Open          int            `xml:"open"`
	StyleUrl      string         `xml:"styleUrl,omitempty"`
	Point         *Point         `xml:"Point,omitempty"`
	LineString    *LineString    `xml:"LineString,omitempty"`
	MultiGeometry *MultiGeometry `xml:"MultiGeometry,omitempty"`
}

type Point struct {
	Coordinates string `xml:"coordinates"`
}

func (p Point) Pos() (geo.Pos, error) {
	return ParsePos(p.Coordinates)
}

type LineString struct {
	Extrude      bool   `xml:"extrude"`
	Tessellate   bool   `xml:"tessellate"`
	AltitudeMode string `xml:"altitudeMode"`
	Coordinates  string `xml:"coordinates"`
}

type MultiGeometry struct {
	LineStrings []*LineString `xml:"LineString,omitempty"`
	Points      []*Point      `xml:"Point,omitempty"`
}

func (l LineString) Line() (geo.Line, error) {
	return ParseLine(l.Coordinates)
}

// ParseLine parses the KML coordinate syntax: whitespace separated
// lon,lat[,ele] tuples.
func ParseLine(coordinates string) (geo.Line, error) {
	fields := strings.Fields(strings.TrimSpace(coordinates))
	line := make(geo.Line, len(fields))
	for i, csv := range fields {
		pos, err := ParsePos(csv)
		if err != nil {
			return nil, err
		}
		line[i] = pos
	}
	return line, nil
}

// ParsePos parses a single lon,lat[,ele] tuple.
func ParsePos(coordinates string) (geo.Pos, error) {
	parts := strings.Split(strings.TrimSpace(coordinates), ",")
	if len(parts) != 2 && len(parts) != 3 {
		return geo.Pos{}, &ParseError{Context: "coordinates", Err: fmt.Errorf("expected lon,lat[,ele], got %q", coordinates)}
	}
	var pos geo.Pos
	var err error
	if pos.Lon, err = strconv.ParseFloat(parts[0], 64); err != nil {
		return geo.Pos{}, &ParseError{Context: "coordinates", Err: err}
	}
	if pos.Lat, err = strconv.ParseFloat(parts[1], 64); err != nil {
		return geo.Pos{}, &ParseError{Context: "coordinates", Err: err}
	}
	if len(parts) == 3 {
		if pos.Ele, err = strconv.ParseFloat(parts[2], 64); err != nil {
			return geo.Pos{}, &ParseError{Context: "coordinates", Err: err}
		}
	}
	return pos, nil
}

// LineCoordinates formats a line with the KML coordinate syntax. Formatting
// round-trips exactly through ParseLine.
func LineCoordinates(line geo.Line) string {
	var sb strings.Builder
	for i, pos := range line {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(PosCoordinates(pos))
	}
	return sb.String()
}

func PosCoordinates(pos geo.Pos) string {
	return fmt.Sprintf("%v,%v,%v", pos.Lon, pos.Lat, pos.Ele)
}
