// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sara-fetch/pkg/types"
)

const region = "POLYGON((148.9 -35.5, 149.4 -35.5, 149.4 -35.1, 148.9 -35.5))"

func date(s string) time.Time {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuild_FixedKeysInOrder(t *testing.T) {
	q := Build(types.NewSearchCriteria(date("2024-01-01"), date("2024-01-31"), region))

	assert.Equal(t, []string{"startDate", "completionDate", "productType", "geometry"}, q.Keys())
	assert.Equal(t, "2024-01-01", q.Get(ParamStartDate))
	assert.Equal(t, "2024-01-31", q.Get(ParamCompletionDate))
	assert.Equal(t, "GRD", q.Get(ParamProductType))
	assert.Equal(t, region, q.Get(ParamGeometry))
}

func TestBuild_InvertedRangePassesThrough(t *testing.T) {
	q := Build(types.NewSearchCriteria(date("2024-02-01"), date("2024-01-01"), region))
	assert.Equal(t, "2024-02-01", q.Get(ParamStartDate))
	assert.Equal(t, "2024-01-01", q.Get(ParamCompletionDate))
}

func TestBuild_DefaultsProductType(t *testing.T) {
	q := Build(types.SearchCriteria{StartDate: date("2024-01-01"), EndDate: date("2024-01-02")})
	assert.Equal(t, types.ProductTypeGRD, q.Get(ParamProductType))
}

func TestBuild_IsPure(t *testing.T) {
	c := types.NewSearchCriteria(date("2024-01-01"), date("2024-01-31"), region)
	assert.Equal(t, Build(c).Encode(), Build(c).Encode())
}

func TestEncode_PreservesOrderAndEscapes(t *testing.T) {
	q := QueryParameters{{Key: "z", Value: "1"}, {Key: "a", Value: "x y,(z)"}}
	assert.Equal(t, "z=1&a=x+y%2C%28z%29", q.Encode())

	parsed, err := url.ParseQuery(q.Encode())
	require.NoError(t, err)
	assert.Equal(t, "x y,(z)", parsed.Get("a"))
}

func TestEncode_Empty(t *testing.T) {
	assert.Equal(t, "", QueryParameters{}.Encode())
	assert.Equal(t, "", QueryParameters{}.Get("startDate"))
}

func TestAdd_DoesNotReorder(t *testing.T) {
	q := Build(types.NewSearchCriteria(date("2024-01-01"), date("2024-01-31"), region)).Add(ParamBearer, "tok")
	assert.Equal(t, []string{"startDate", "completionDate", "productType", "geometry", "_bearer"}, q.Keys())
}
