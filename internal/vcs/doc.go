// Package vcs detects the version-control system governing a directory and
// derives a descriptive version from its history.
//
// Supported backends are git and mercurial. All queries are read-only and run
// the backend's executable with an explicit working directory; the process
// working directory is never changed.
package vcs
