package config

import (
	"net"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "bfscrawler"

	// DefaultVisitLimit is the number of URLs dequeued before the crawl stops.
	// 100 is enough to map a small site while keeping a run short on a large one.
	DefaultVisitLimit = 100

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the crawler in HTTP requests so that site
	// operators can tell its traffic apart in their logs.
	DefaultUserAgent = "bfscrawler/1.0 (+https://github.com/nao1215/bfscrawler)"

	// DefaultMaxBodySize limits how much of each response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Config holds all configuration options for one crawl run.
// It is populated from CLI flags and the optional config file, then passed
// down explicitly.
type Config struct {
	// Seed is the URL the crawl starts from.
	Seed string

	// VisitLimit is the maximum number of URLs dequeued in the run.
	VisitLimit int

	// Timeout is the timeout for each HTTP request, not for the whole crawl.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated. Zero means the default.
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	// When empty, requests go out directly.
	ProxyAddress string

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON selects JSON log output instead of text.
	LogJSON bool

	// Quiet suppresses the per-URL progress lines.
	Quiet bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// SiteConfigs holds per-site settings loaded from the config file.
	SiteConfigs *File

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty the report goes to stdout.
	ReportFile string

	// Cookie is sent with requests to the seed's host when non-empty.
	// It comes from the config file section matching the seed.
	Cookie string

	// Headers are extra request headers for the seed's host.
	Headers map[string]string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		VisitLimit:  DefaultVisitLimit,
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
	}
}

// XDGConfigDir returns the XDG config directory for bfscrawler.
// On Linux: ~/.config/bfscrawler
// On macOS: ~/Library/Application Support/bfscrawler
// On Windows: %APPDATA%\bfscrawler
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplySiteConfig copies the settings of sc that are set into c.
// Fields for which keep returns true are left alone; the CLI uses this to
// let explicit flags win over the config file.
func (c *Config) ApplySiteConfig(sc SiteConfig, keep func(field string) bool) {
	if keep == nil {
		keep = func(string) bool { return false }
	}

	if sc.VisitLimit > 0 && !keep("visit_limit") {
		c.VisitLimit = sc.VisitLimit
	}
	if sc.UserAgent != "" && !keep("user_agent") {
		c.UserAgent = sc.UserAgent
	}
	if sc.Cookie != "" {
		c.Cookie = sc.Cookie
	}
	if len(sc.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(sc.Headers))
		}
		for k, v := range sc.Headers {
			c.Headers[k] = v
		}
	}
}

// Validate checks if the configuration is valid and returns the first
// problem found as one of the sentinel errors in this package.
//
// It must be called after flags and the config file are merged and before
// the first request.
func (c *Config) Validate() error {
	if c.Seed == "" {
		return ErrNoSeed
	}

	if c.VisitLimit <= 0 {
		return ErrInvalidVisitLimit
	}

	// A zero timeout would let a single hung server stall the whole run.
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.ProxyAddress != "" {
		if _, _, err := net.SplitHostPort(c.ProxyAddress); err != nil {
			return ErrInvalidProxyAddress
		}
	}

	return nil
}

// Credentials returns the cookie and headers to send, keyed by host name.
// The seed's host gets c.Cookie and c.Headers. Every host named in the
// sites section gets its own section merged over the defaults. Hosts not
// listed here, such as foreign sites linked from crawled pages, get none.
func (c *Config) Credentials() map[string]SiteConfig {
	creds := make(map[string]SiteConfig)
	if c.SiteConfigs != nil {
		for host := range c.SiteConfigs.Sites {
			sc := c.SiteConfigs.GetSiteConfig(host)
			if sc.Cookie != "" || len(sc.Headers) > 0 {
				creds[host] = SiteConfig{Cookie: sc.Cookie, Headers: sc.Headers}
			}
		}
	}
	if host := seedHost(c.Seed); host != "" && (c.Cookie != "" || len(c.Headers) > 0) {
		creds[host] = SiteConfig{Cookie: c.Cookie, Headers: c.Headers}
	}
	return creds
}

func seedHost(seed string) string {
	u, err := url.Parse(seed)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
