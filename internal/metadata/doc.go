// Package metadata reads installed-distribution metadata from disk.
//
// An Index scans a set of search paths for dist-info and egg-info
// directories, the on-disk convention used by Python installers. Lookups are
// read-only; nothing is ever written or cached between calls.
package metadata
