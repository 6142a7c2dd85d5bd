// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog queries the SARA collection search API for Sentinel-1
// products and turns the GeoJSON response into product records.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/sara-fetch/internal/httputil"
	"github.com/pdiddy/sara-fetch/pkg/types"
)

// DefaultEndpoint is the Sentinel-1 collection search URL.
const DefaultEndpoint = "https://copernicus.nci.org.au/sara.server/1.0/api/collections/S1/search.json"

// Client performs catalog searches. The zero value is not usable; HTTP must
// be set.
type Client struct {
	HTTP      *http.Client
	Endpoint  string
	UserAgent string

	// Token, when set, is sent as the _bearer parameter.
	Token types.Token

	Logger *slog.Logger
}

// Search runs one catalog query and returns the records in catalog order.
// An empty result set is not an error.
func (c *Client) Search(ctx context.Context, criteria types.SearchCriteria) ([]types.ProductRecord, error) {
	params := Build(criteria)
	if c.Token != "" {
		params = params.Add(ParamBearer, c.Token.String())
	}

	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+sep+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	log := c.logger()
	log.Debug("searching catalog",
		"start", params.Get(ParamStartDate),
		"end", params.Get(ParamCompletionDate),
		"product_type", params.Get(ParamProductType))

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		if resp.StatusCode >= 500 {
			return nil, &UnavailableError{Status: resp.StatusCode, Err: err}
		}
		return nil, &ResponseError{Status: resp.StatusCode, Reason: "request rejected", Err: err}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnavailableError{Err: fmt.Errorf("reading response: %w", err)}
	}

	records, err := parseFeatureCollection(body, log)
	if err != nil {
		if re, ok := err.(*ResponseError); ok {
			re.Status = resp.StatusCode
		}
		return nil, err
	}
	log.Info("catalog search complete", "results", len(records))
	return records, nil
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type featureCollection struct {
	Type     string             `json:"type"`
	Features *[]json.RawMessage `json:"features"`
}

type feature struct {
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

// parseFeatureCollection decodes a GeoJSON-like search response.
func parseFeatureCollection(body []byte, log *slog.Logger) ([]types.ProductRecord, error) {
	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, &ResponseError{Reason: "invalid JSON", Err: err}
	}
	if fc.Features == nil {
		return nil, &ResponseError{Reason: "no features array"}
	}

	records := make([]types.ProductRecord, 0, len(*fc.Features))
	for i, raw := range *fc.Features {
		rec, err := parseFeature(raw, log)
		if err != nil {
			return nil, &ResponseError{Reason: fmt.Sprintf("feature %d", i), Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseFeature(raw json.RawMessage, log *slog.Logger) (types.ProductRecord, error) {
	var f feature
	if err := json.Unmarshal(raw, &f); err != nil {
		return types.ProductRecord{}, err
	}
	if f.Properties == nil {
		return types.ProductRecord{}, fmt.Errorf("missing properties")
	}

	id, _ := f.Properties["productIdentifier"].(string)
	if id == "" {
		return types.ProductRecord{}, fmt.Errorf("missing properties.productIdentifier")
	}

	download := nested(f.Properties, "services", "download")
	url, _ := download["url"].(string)
	if url == "" {
		return types.ProductRecord{}, fmt.Errorf("%s: missing properties.services.download.url", id)
	}

	rec := types.ProductRecord{
		ProductIdentifier: id,
		Geometry:          f.Geometry,
		DownloadURL:       url,
		Properties:        f.Properties,
		Raw:               raw,
	}
	if size, ok := download["size"].(float64); ok && size > 0 {
		rec.DownloadSize = int64(size)
	}
	rec.StartDate = dateProperty(f.Properties, "startDate", id, log)
	rec.CompletionDate = dateProperty(f.Properties, "completionDate", id, log)
	return rec, nil
}

// nested walks a chain of JSON objects, returning nil when any link is
// missing or not an object.
func nested(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		next, ok := m[k].(map[string]any)
		if !ok {
			return nil
		}
		m = next
	}
	return m
}

func dateProperty(props map[string]any, key, id string, log *slog.Logger) *time.Time {
	v, ok := props[key]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		log.Warn("ignoring non-string date", "product", id, "field", key)
		return nil
	}
	t, err := ParseTime(s)
	if err != nil {
		log.Warn("ignoring unparseable date", "product", id, "field", key, "value", s)
		return nil
	}
	return &t
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	types.DateLayout,
}

// ParseTime parses the ISO-8601 variants the catalog emits. Values without
// a zone are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
