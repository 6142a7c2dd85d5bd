package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the whole-request timeout for API calls (login, search).
	// Transfers are bounded by DownloadConfig.TransferTimeout instead.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "sara-fetch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AuthConfig holds settings for the credential session.
type AuthConfig struct {
	// Endpoint is the SARA user/connect URL.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	Credentials `yaml:",inline"`
}

// CatalogConfig holds settings for the search stage.
type CatalogConfig struct {
	HTTPConfig `yaml:",inline"`

	// Endpoint is the collection search URL, e.g.
	// https://copernicus.nci.org.au/sara.server/1.0/api/collections/S1/search.json.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Authenticated controls whether the session token is sent with searches.
	Authenticated bool `json:"authenticated" yaml:"authenticated"`
}

// DownloadConfig holds settings for the transfer stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// OutputDir is where product archives are written as <productIdentifier>.zip.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// ChunkSize is the copy buffer size in bytes (default 32 KiB).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// TransferTimeout bounds a single transfer; zero means no bound.
	TransferTimeout time.Duration `json:"transfer_timeout" yaml:"transfer_timeout"`
}

// LedgerConfig holds settings for the local SQLite ledger.
type LedgerConfig struct {
	// DataDir contains ledger.db.
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// MirrorConfig holds settings for the optional S3 archive mirror.
type MirrorConfig struct {
	// Bucket enables mirroring when non-empty.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`

	// Prefix is prepended to object keys.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Region overrides the AWS region from the environment.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
}

// Enabled reports whether a bucket is configured.
func (c MirrorConfig) Enabled() bool { return c.Bucket != "" }

// MetricsConfig holds settings for transfer metrics export.
type MetricsConfig struct {
	// Textfile is a node-exporter textfile path; empty disables export.
	Textfile string `json:"textfile,omitempty" yaml:"textfile,omitempty"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Auth     AuthConfig     `json:"auth" yaml:"auth"`
	Catalog  CatalogConfig  `json:"catalog" yaml:"catalog"`
	Download DownloadConfig `json:"download" yaml:"download"`
	Ledger   LedgerConfig   `json:"ledger" yaml:"ledger"`
	Mirror   MirrorConfig   `json:"mirror" yaml:"mirror"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
}
