// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/sara-fetch/pkg/types"
)

// QueryFile is the on-disk form of a search and its ordered results, so a
// download can be run later without querying the catalog again.
type QueryFile struct {
	Query   QueryCriteria         `yaml:"query"`
	Results []types.ProductRecord `yaml:"results"`
	Summary QuerySummary          `yaml:"summary"`
}

// QueryCriteria stores search criteria in a serializable form.
type QueryCriteria struct {
	StartDate   string `yaml:"start_date"`
	EndDate     string `yaml:"end_date"`
	ProductType string `yaml:"product_type"`
	Geometry    string `yaml:"geometry"`
}

// QuerySummary stores the result count and when the search ran.
type QuerySummary struct {
	Total     int       `yaml:"total"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves criteria and the already ordered records to a YAML
// file.
func WriteQueryFile(path string, criteria types.SearchCriteria, records []types.ProductRecord) error {
	qf := QueryFile{
		Query: QueryCriteria{
			StartDate:   criteria.StartDate.Format(types.DateLayout),
			EndDate:     criteria.EndDate.Format(types.DateLayout),
			ProductType: criteria.ProductType,
			Geometry:    criteria.Geometry,
		},
		Results: records,
		Summary: QuerySummary{
			Total:     len(records),
			Timestamp: time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// ToCriteria converts the stored criteria back into SearchCriteria.
func (q QueryCriteria) ToCriteria() (types.SearchCriteria, error) {
	start, err := time.Parse(types.DateLayout, q.StartDate)
	if err != nil {
		return types.SearchCriteria{}, fmt.Errorf("invalid start_date %q: %w", q.StartDate, err)
	}
	end, err := time.Parse(types.DateLayout, q.EndDate)
	if err != nil {
		return types.SearchCriteria{}, fmt.Errorf("invalid end_date %q: %w", q.EndDate, err)
	}
	c := types.NewSearchCriteria(start, end, q.Geometry)
	if q.ProductType != "" {
		c.ProductType = q.ProductType
	}
	return c, nil
}
