// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the sara-fetch pipeline:
// credentials, search criteria, catalog product records, download tasks and
// transfer outcomes, plus the per-stage configuration.
package types

import (
	"encoding/json"
	"time"
)

// ProductTypeGRD is the only product type sara-fetch searches for
// (Sentinel-1 Ground Range Detected).
const ProductTypeGRD = "GRD"

// DateLayout is the calendar-date layout used for search criteria.
const DateLayout = "2006-01-02"

// Credentials is a SARA account username (e-mail) and password.
type Credentials struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// IsEmpty reports whether either half of the pair is missing.
func (c Credentials) IsEmpty() bool {
	return c.Username == "" || c.Password == ""
}

// Token is the opaque bearer token returned by a successful login. It is
// passed as the _bearer query parameter on authenticated requests.
type Token string

// String returns the token value.
func (t Token) String() string { return string(t) }

// SearchCriteria holds the parameters of one catalog search. Dates are
// calendar dates; Geometry is a WKT polygon passed to the catalog verbatim.
type SearchCriteria struct {
	StartDate   time.Time `json:"start_date" yaml:"start_date"`
	EndDate     time.Time `json:"end_date" yaml:"end_date"`
	Geometry    string    `json:"geometry" yaml:"geometry"`
	ProductType string    `json:"product_type" yaml:"product_type"`
}

// NewSearchCriteria returns criteria for a GRD search. The date range is not
// validated: an inverted range simply yields no results from the catalog.
func NewSearchCriteria(start, end time.Time, geometryWKT string) SearchCriteria {
	return SearchCriteria{
		StartDate:   start,
		EndDate:     end,
		Geometry:    geometryWKT,
		ProductType: ProductTypeGRD,
	}
}

// ProductRecord is one raw result from the catalog, a snapshot of catalog
// state at query time. ProductIdentifier is the record's identity.
type ProductRecord struct {
	// ProductIdentifier is the SAFE product name, e.g.
	// "S1A_IW_GRDH_1SDV_20240102T...".
	ProductIdentifier string `json:"product_identifier" yaml:"product_identifier"`

	// Geometry is the footprint exactly as embedded in the catalog feature.
	Geometry json.RawMessage `json:"geometry" yaml:"-"`

	// StartDate is the acquisition start; nil when absent or unparseable.
	StartDate *time.Time `json:"start_date,omitempty" yaml:"start_date,omitempty"`

	// CompletionDate is the acquisition end; nil when absent or unparseable.
	CompletionDate *time.Time `json:"completion_date,omitempty" yaml:"completion_date,omitempty"`

	// DownloadURL is properties.services.download.url.
	DownloadURL string `json:"download_url" yaml:"download_url"`

	// DownloadSize is properties.services.download.size when the catalog
	// reports it, otherwise 0.
	DownloadSize int64 `json:"download_size,omitempty" yaml:"download_size,omitempty"`

	// Properties holds every attribute of the catalog feature.
	Properties map[string]any `json:"properties" yaml:"-"`

	// Raw is the whole catalog feature as returned.
	Raw json.RawMessage `json:"-" yaml:"-"`
}

// DownloadTask describes a single transfer. It is created per transfer and
// discarded afterwards.
type DownloadTask struct {
	URL             string
	Token           Token
	DestinationPath string
}

// TransferStatus is the outcome class of a finished transfer.
type TransferStatus string

const (
	// StatusCompleted means the body was written and matched the declared
	// length (or no length was declared).
	StatusCompleted TransferStatus = "completed"

	// StatusAlreadyPresent means the destination already held a file of the
	// declared length and nothing was transferred.
	StatusAlreadyPresent TransferStatus = "already_present"

	// StatusSizeMismatch means the body was written but its length differs
	// from the declared Content-Length. The file is kept.
	StatusSizeMismatch TransferStatus = "size_mismatch"
)

// TransferOutcome reports what a download did.
type TransferOutcome struct {
	BytesWritten  int64          `json:"bytes_written" yaml:"bytes_written"`
	ExpectedBytes int64          `json:"expected_bytes" yaml:"expected_bytes"`
	Status        TransferStatus `json:"status" yaml:"status"`
}

// Verified reports whether the byte count was checked against a declared
// length. Unknown-length transfers are never verified.
func (o TransferOutcome) Verified() bool {
	return o.ExpectedBytes > 0
}
