// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sara-fetch/pkg/types"
)

func TestQueryFile_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.yaml")
	criteria := types.NewSearchCriteria(date("2024-01-01"), date("2024-01-31"), region)
	start := date("2024-01-02")
	records := []types.ProductRecord{
		{ProductIdentifier: "S1A_B", StartDate: &start, DownloadURL: "https://example.test/b.zip", DownloadSize: 42},
		{ProductIdentifier: "S1A_A", DownloadURL: "https://example.test/a.zip"},
	}

	require.NoError(t, WriteQueryFile(path, criteria, records))

	qf, err := ReadQueryFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, qf.Summary.Total)
	require.Len(t, qf.Results, 2)
	assert.Equal(t, "S1A_B", qf.Results[0].ProductIdentifier)
	assert.Equal(t, int64(42), qf.Results[0].DownloadSize)
	require.NotNil(t, qf.Results[0].StartDate)
	assert.True(t, start.Equal(*qf.Results[0].StartDate))
	assert.Nil(t, qf.Results[1].StartDate)

	back, err := qf.Query.ToCriteria()
	require.NoError(t, err)
	assert.True(t, criteria.StartDate.Equal(back.StartDate))
	assert.True(t, criteria.EndDate.Equal(back.EndDate))
	assert.Equal(t, region, back.Geometry)
	assert.Equal(t, types.ProductTypeGRD, back.ProductType)
}

func TestReadQueryFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadQueryFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("query: [unclosed"), 0o644))
	_, err = ReadQueryFile(bad)
	assert.Error(t, err)
}

func TestToCriteria_InvalidDate(t *testing.T) {
	_, err := QueryCriteria{StartDate: "yesterday", EndDate: "2024-01-01"}.ToCriteria()
	assert.Error(t, err)
	_, err = QueryCriteria{StartDate: "2024-01-01", EndDate: ""}.ToCriteria()
	assert.Error(t, err)
}
