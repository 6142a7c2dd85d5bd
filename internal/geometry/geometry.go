// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package geometry converts regions of interest between WKT and GeoJSON.
// The catalog takes WKT polygons; product footprints come back as GeoJSON.
package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

// ErrUnsupported is returned for geometries other than polygons.
var ErrUnsupported = errors.New("only POLYGON and MULTIPOLYGON regions are supported")

// ParseWKT parses a POLYGON or MULTIPOLYGON in WKT form.
func ParseWKT(s string) (orb.Geometry, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return nil, errors.New("parsing WKT: empty input")
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, fmt.Errorf("parsing WKT: %w", err)
	}
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return g, nil
	default:
		return nil, fmt.Errorf("parsing WKT: %s: %w", g.GeoJSONType(), ErrUnsupported)
	}
}

// FromGeoJSON reads a region from a GeoJSON geometry, feature or feature
// collection. Polygons found in a collection are merged into one
// MultiPolygon.
func FromGeoJSON(data []byte) (orb.Geometry, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing GeoJSON: %w", err)
	}

	var g orb.Geometry
	switch probe.Type {
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("parsing GeoJSON feature: %w", err)
		}
		g = f.Geometry
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parsing GeoJSON feature collection: %w", err)
		}
		var mp orb.MultiPolygon
		for _, f := range fc.Features {
			switch fg := f.Geometry.(type) {
			case orb.Polygon:
				mp = append(mp, fg)
			case orb.MultiPolygon:
				mp = append(mp, fg...)
			}
		}
		switch len(mp) {
		case 0:
			return nil, fmt.Errorf("parsing GeoJSON feature collection: no polygons: %w", ErrUnsupported)
		case 1:
			g = mp[0]
		default:
			g = mp
		}
	default:
		geom, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("parsing GeoJSON geometry: %w", err)
		}
		g = geom.Geometry()
	}

	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return g, nil
	case nil:
		return nil, fmt.Errorf("parsing GeoJSON: no geometry: %w", ErrUnsupported)
	default:
		return nil, fmt.Errorf("parsing GeoJSON: %s: %w", g.GeoJSONType(), ErrUnsupported)
	}
}

// ToWKT renders g as WKT.
func ToWKT(g orb.Geometry) string {
	return wkt.MarshalString(g)
}

// RegionWKT turns user input (WKT text or GeoJSON text) into the WKT string
// sent to the catalog. Valid WKT input is returned as given, trimmed.
func RegionWKT(text string) (string, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "{") {
		g, err := FromGeoJSON([]byte(text))
		if err != nil {
			return "", err
		}
		return ToWKT(g), nil
	}
	if _, err := ParseWKT(text); err != nil {
		return "", err
	}
	return text, nil
}

// RoundTrip encodes g as a GeoJSON geometry and decodes it again.
func RoundTrip(g orb.Geometry) (orb.Geometry, error) {
	data, err := json.Marshal(geojson.NewGeometry(g))
	if err != nil {
		return nil, fmt.Errorf("encoding geometry: %w", err)
	}
	geom, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("decoding geometry: %w", err)
	}
	return geom.Geometry(), nil
}

// Equal reports whether a and b have the same shape and every coordinate
// pair differs by at most tol.
func Equal(a, b orb.Geometry, tol float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.GeoJSONType() != b.GeoJSONType() {
		return false
	}
	pa, sa := flatten(a, nil, nil)
	pb, sb := flatten(b, nil, nil)
	if len(pa) != len(pb) || len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	for i := range pa {
		if math.Abs(pa[i][0]-pb[i][0]) > tol || math.Abs(pa[i][1]-pb[i][1]) > tol {
			return false
		}
	}
	return true
}

// flatten appends every point of g to pts and the length of every
// point sequence to shape.
func flatten(g orb.Geometry, pts []orb.Point, shape []int) ([]orb.Point, []int) {
	switch v := g.(type) {
	case orb.Point:
		return append(pts, v), append(shape, 1)
	case orb.MultiPoint:
		return append(pts, v...), append(shape, len(v))
	case orb.LineString:
		return append(pts, v...), append(shape, len(v))
	case orb.Ring:
		return append(pts, v...), append(shape, len(v))
	case orb.MultiLineString:
		for _, ls := range v {
			pts, shape = flatten(ls, pts, shape)
		}
	case orb.Polygon:
		for _, r := range v {
			pts, shape = flatten(r, pts, shape)
		}
	case orb.MultiPolygon:
		for _, p := range v {
			shape = append(shape, len(p))
			pts, shape = flatten(p, pts, shape)
		}
	case orb.Collection:
		for _, c := range v {
			pts, shape = flatten(c, pts, shape)
		}
	case orb.Bound:
		return flatten(v.ToPolygon(), pts, shape)
	}
	return pts, shape
}
