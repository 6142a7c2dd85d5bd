// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sara-fetch/internal/geometry"
	"github.com/pdiddy/sara-fetch/pkg/types"
)

const footprint = `{"type":"Polygon","coordinates":[[[148.9,-35.5],[149.4,-35.5],[149.4,-35.1],[148.9,-35.1],[148.9,-35.5]]]}`

func day(d int) *time.Time {
	t := time.Date(2024, 1, d, 19, 0, 0, 0, time.UTC)
	return &t
}

func record(id string, start *time.Time) types.ProductRecord {
	return types.ProductRecord{
		ProductIdentifier: id,
		Geometry:          json.RawMessage(footprint),
		StartDate:         start,
		DownloadURL:       "https://example.test/" + id,
		Properties: map[string]any{
			"productIdentifier": id,
			"platform":          "S1A",
			"services":          map[string]any{"download": map[string]any{"url": "https://example.test/" + id}},
		},
	}
}

func ids(c *ResultCollection) []string {
	var out []string
	for _, r := range c.Records() {
		out = append(out, r.ProductIdentifier)
	}
	return out
}

func TestNormalize_OrdersByStartDate(t *testing.T) {
	c, err := Normalize([]types.ProductRecord{record("JAN05", day(5)), record("JAN02", day(2))})
	require.NoError(t, err)
	assert.Equal(t, []string{"JAN02", "JAN05"}, ids(c))
}

func TestNormalize_MissingDatesLast(t *testing.T) {
	c, err := Normalize([]types.ProductRecord{
		record("NONE1", nil),
		record("JAN09", day(9)),
		record("NONE2", nil),
		record("JAN01", day(1)),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"JAN01", "JAN09", "NONE1", "NONE2"}, ids(c))
}

func TestNormalize_TiesKeepCatalogOrder(t *testing.T) {
	c, err := Normalize([]types.ProductRecord{
		record("B", day(3)),
		record("A", day(3)),
		record("EARLY", day(1)),
		record("C", day(3)),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"EARLY", "B", "A", "C"}, ids(c))
}

func TestNormalize_IsDeterministic(t *testing.T) {
	in := []types.ProductRecord{record("X", day(4)), record("Y", nil), record("Z", day(2)), record("W", day(4))}
	first, err := Normalize(in)
	require.NoError(t, err)
	second, err := Normalize(in)
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(second))
}

func TestNormalize_Empty(t *testing.T) {
	for _, in := range [][]types.ProductRecord{nil, {}} {
		c, err := Normalize(in)
		require.NoError(t, err)
		assert.Equal(t, 0, c.Len())
		assert.Empty(t, c.Records())
		assert.Empty(t, c.FeatureCollection().Features)
	}
}

func TestNormalize_GeometryRoundTrip(t *testing.T) {
	c, err := Normalize([]types.ProductRecord{record("JAN02", day(2))})
	require.NoError(t, err)

	want, err := geometry.FromGeoJSON([]byte(footprint))
	require.NoError(t, err)
	got := c.At(0).Feature.Geometry
	assert.True(t, geometry.Equal(want, got, 1e-9))
}

func TestNormalize_PreservesProperties(t *testing.T) {
	c, err := Normalize([]types.ProductRecord{record("JAN02", day(2))})
	require.NoError(t, err)

	f := c.At(0).Feature
	assert.Equal(t, "JAN02", f.ID)
	assert.Equal(t, "S1A", f.Properties["platform"])
	assert.Contains(t, f.Properties, "services")
}

func TestNormalize_NullGeometry(t *testing.T) {
	rec := record("NOGEOM", day(2))
	rec.Geometry = json.RawMessage("null")
	c, err := Normalize([]types.ProductRecord{rec})
	require.NoError(t, err)
	assert.Nil(t, c.At(0).Feature.Geometry)
}

func TestNormalize_BadGeometry(t *testing.T) {
	rec := record("BROKEN", day(2))
	rec.Geometry = json.RawMessage(`{"type":"Polygon","coordinates":"nope"}`)
	_, err := Normalize([]types.ProductRecord{rec})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BROKEN")
}

func TestNormalize_RecordWithoutProperties(t *testing.T) {
	rec := types.ProductRecord{ProductIdentifier: "FROMFILE", StartDate: day(3), DownloadURL: "https://example.test/f", DownloadSize: 10}
	c, err := Normalize([]types.ProductRecord{rec})
	require.NoError(t, err)

	props := c.At(0).Feature.Properties
	assert.Equal(t, "FROMFILE", props["productIdentifier"])
	assert.Equal(t, "2024-01-03T19:00:00.000Z", props["startDate"])
}

func TestOrdinal(t *testing.T) {
	c, err := Normalize([]types.ProductRecord{record("JAN05", day(5)), record("JAN02", day(2))})
	require.NoError(t, err)

	it, err := c.Ordinal(1)
	require.NoError(t, err)
	assert.Equal(t, 1, it.Ordinal)
	assert.Equal(t, "JAN02", it.Record.ProductIdentifier)

	it, err = c.Ordinal(2)
	require.NoError(t, err)
	assert.Equal(t, "JAN05", it.Record.ProductIdentifier)

	_, err = c.Ordinal(0)
	assert.Error(t, err)
	_, err = c.Ordinal(3)
	assert.Error(t, err)
}

func TestAccessorsReturnCopies(t *testing.T) {
	c, err := Normalize([]types.ProductRecord{record("JAN02", day(2))})
	require.NoError(t, err)

	f := c.Features()[0]
	f.Properties["platform"] = "changed"
	f.Geometry.(orb.Polygon)[0][0] = orb.Point{0, 0}

	again := c.At(0).Feature
	assert.Equal(t, "S1A", again.Properties["platform"])
	assert.Equal(t, orb.Point{148.9, -35.5}, again.Geometry.(orb.Polygon)[0][0])
}

func TestFeatureCollection_Marshals(t *testing.T) {
	c, err := Normalize([]types.ProductRecord{record("JAN05", day(5)), record("JAN02", day(2))})
	require.NoError(t, err)

	data, err := json.Marshal(c.FeatureCollection())
	require.NoError(t, err)

	var decoded struct {
		Type     string `json:"type"`
		Features []struct {
			ID string `json:"id"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FeatureCollection", decoded.Type)
	require.Len(t, decoded.Features, 2)
	assert.Equal(t, "JAN02", decoded.Features[0].ID)
}
