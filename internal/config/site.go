package config

import (
	"net/url"
	"strings"
)

// SiteConfig holds per-site crawl settings.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent with requests to this host only.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers sent with requests to this host only.
	Headers map[string]string `yaml:"headers,omitempty"`

	// VisitLimit overrides the global visit limit. Zero keeps the global value.
	VisitLimit int `yaml:"visit_limit,omitempty"`

	// UserAgent overrides the default User-Agent header.
	UserAgent string `yaml:"user_agent,omitempty"`
}

// File represents the structure of the .bfscrawler configuration file.
type File struct {
	// Sites maps host names (e.g. "example.com") to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for host merged over the defaults.
// A host starting with "www." falls back to the section without the prefix.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if cf.Defaults.Headers != nil {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	siteConfig, ok := cf.Sites[host]
	if !ok {
		siteConfig, ok = cf.Sites[strings.TrimPrefix(host, "www.")]
	}
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.VisitLimit != 0 {
		result.VisitLimit = siteConfig.VisitLimit
	}
	if siteConfig.UserAgent != "" {
		result.UserAgent = siteConfig.UserAgent
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}

	return result
}

// SiteConfigFor returns the configuration for the host of rawURL.
// An unparsable URL gets the defaults.
func (cf *File) SiteConfigFor(rawURL string) SiteConfig {
	u, err := url.Parse(rawURL)
	if err != nil {
		return cf.GetSiteConfig("")
	}
	return cf.GetSiteConfig(u.Hostname())
}
