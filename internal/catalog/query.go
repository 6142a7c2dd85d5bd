// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"net/url"
	"strings"

	"github.com/pdiddy/sara-fetch/pkg/types"
)

// Query parameter names understood by the SARA search endpoint.
const (
	ParamStartDate      = "startDate"
	ParamCompletionDate = "completionDate"
	ParamProductType    = "productType"
	ParamGeometry       = "geometry"
	ParamBearer         = "_bearer"
)

// Param is one key/value pair of a catalog query.
type Param struct {
	Key   string
	Value string
}

// QueryParameters is an ordered list of query pairs. Unlike url.Values it
// keeps insertion order when encoded.
type QueryParameters []Param

// Build maps search criteria to catalog query parameters. It always returns
// startDate, completionDate, productType and geometry, in that order. The
// date range is not checked; an inverted range is sent as is.
func Build(criteria types.SearchCriteria) QueryParameters {
	productType := criteria.ProductType
	if productType == "" {
		productType = types.ProductTypeGRD
	}
	return QueryParameters{
		{Key: ParamStartDate, Value: criteria.StartDate.Format(types.DateLayout)},
		{Key: ParamCompletionDate, Value: criteria.EndDate.Format(types.DateLayout)},
		{Key: ParamProductType, Value: productType},
		{Key: ParamGeometry, Value: criteria.Geometry},
	}
}

// Add returns q with key=value appended.
func (q QueryParameters) Add(key, value string) QueryParameters {
	return append(q, Param{Key: key, Value: value})
}

// Get returns the first value for key, or "" when absent.
func (q QueryParameters) Get(key string) string {
	for _, p := range q {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// Keys returns the parameter names in order.
func (q QueryParameters) Keys() []string {
	keys := make([]string, len(q))
	for i, p := range q {
		keys[i] = p.Key
	}
	return keys
}

// Encode renders q as a URL query string in insertion order.
func (q QueryParameters) Encode() string {
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}
