// Package config provides the run configuration of bfscrawler.
//
// A Config is built from NewConfig defaults, overlaid with the matching
// section of the optional .bfscrawler YAML file, then with CLI flags, and
// finally checked with Validate.
package config
