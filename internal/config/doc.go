// Package config provides the configuration of sitemapgen: defaults,
// validation, the YAML configuration file and XDG directories.
package config
