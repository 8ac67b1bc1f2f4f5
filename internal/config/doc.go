// Package config provides the configuration of httpsdash: the options of a
// crawl run populated from CLI flags, and the optional .httpsdash YAML file
// that supplies defaults and the user agent display names.
package config
