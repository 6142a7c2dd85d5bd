// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns raw catalog records into an ordered, read-only
// feature collection. Features are sorted by acquisition start date, oldest
// first; records without a start date go last and ties keep catalog order.
package normalize

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/pdiddy/sara-fetch/pkg/types"
)

// Item is one entry of a ResultCollection.
type Item struct {
	// Ordinal is the 1-based position shown to users.
	Ordinal int
	Record  types.ProductRecord
	Feature *geojson.Feature
}

// ResultCollection is an ordered sequence of product features. It has no
// mutating methods; accessors hand out copies.
type ResultCollection struct {
	items []Item
}

// Normalize decodes each record's footprint, keeps all of its properties,
// and orders the result by start date.
func Normalize(records []types.ProductRecord) (*ResultCollection, error) {
	items := make([]Item, 0, len(records))
	for _, rec := range records {
		f, err := toFeature(rec)
		if err != nil {
			return nil, fmt.Errorf("normalizing %s: %w", rec.ProductIdentifier, err)
		}
		items = append(items, Item{Record: rec, Feature: f})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return before(items[i].Record, items[j].Record)
	})
	for i := range items {
		items[i].Ordinal = i + 1
	}
	return &ResultCollection{items: items}, nil
}

// before orders by StartDate; a missing date is later than any present one.
func before(a, b types.ProductRecord) bool {
	switch {
	case a.StartDate == nil:
		return false
	case b.StartDate == nil:
		return true
	default:
		return a.StartDate.Before(*b.StartDate)
	}
}

func toFeature(rec types.ProductRecord) (*geojson.Feature, error) {
	var g orb.Geometry
	if raw := bytes.TrimSpace(rec.Geometry); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		geom, err := geojson.UnmarshalGeometry(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding geometry: %w", err)
		}
		g = geom.Geometry()
	}

	f := geojson.NewFeature(g)
	f.ID = rec.ProductIdentifier
	if rec.Properties != nil {
		f.Properties = geojson.Properties(rec.Properties).Clone()
	} else {
		f.Properties = minimalProperties(rec)
	}
	return f, nil
}

// minimalProperties rebuilds the properties a record loaded from a query
// file still carries.
func minimalProperties(rec types.ProductRecord) geojson.Properties {
	p := geojson.Properties{
		"productIdentifier": rec.ProductIdentifier,
	}
	if rec.StartDate != nil {
		p["startDate"] = rec.StartDate.Format("2006-01-02T15:04:05.000Z07:00")
	}
	download := map[string]any{"url": rec.DownloadURL}
	if rec.DownloadSize > 0 {
		download["size"] = rec.DownloadSize
	}
	p["services"] = map[string]any{"download": download}
	return p
}

// Len returns the number of features.
func (c *ResultCollection) Len() int { return len(c.items) }

// At returns the i-th item, 0-based. It panics when i is out of range.
func (c *ResultCollection) At(i int) Item {
	return copyItem(c.items[i])
}

// Ordinal returns the item shown to users as number n (1-based).
func (c *ResultCollection) Ordinal(n int) (Item, error) {
	if n < 1 || n > len(c.items) {
		return Item{}, fmt.Errorf("ordinal %d out of range 1..%d", n, len(c.items))
	}
	return copyItem(c.items[n-1]), nil
}

// Records returns the records in collection order.
func (c *ResultCollection) Records() []types.ProductRecord {
	out := make([]types.ProductRecord, len(c.items))
	for i, it := range c.items {
		out[i] = it.Record
	}
	return out
}

// Features returns copies of the features in collection order.
func (c *ResultCollection) Features() []*geojson.Feature {
	out := make([]*geojson.Feature, len(c.items))
	for i, it := range c.items {
		out[i] = cloneFeature(it.Feature)
	}
	return out
}

// FeatureCollection returns the collection as a GeoJSON FeatureCollection.
func (c *ResultCollection) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range c.Features() {
		fc.Append(f)
	}
	return fc
}

func copyItem(it Item) Item {
	it.Feature = cloneFeature(it.Feature)
	return it
}

func cloneFeature(f *geojson.Feature) *geojson.Feature {
	var g orb.Geometry
	if f.Geometry != nil {
		g = orb.Clone(f.Geometry)
	}
	out := geojson.NewFeature(g)
	out.ID = f.ID
	out.Properties = f.Properties.Clone()
	return out
}
