// Package config defines the CLI's settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the metadata search paths, the diagnostic log level
// and the per-call timeout.
package config
