package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers match them with errors.Is.
var (
	// ErrNoSeed is returned when no seed URL is given.
	ErrNoSeed = errors.New("no seed specified: provide the URL to start crawling from")

	// ErrInvalidVisitLimit is returned when the visit limit is not positive.
	ErrInvalidVisitLimit = errors.New("invalid visit limit: must be positive")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to keep the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidProxyAddress is returned when the proxy is not in host:port form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: must be host:port")
)
