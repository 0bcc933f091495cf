package resolver

// Source identifies which resolution strategy produced a result or failure.
// It is a closed enumeration; strategies are not extensible at runtime.
type Source int

const (
	// SourceDirname is the directory-name strategy (extracted sdist layout).
	SourceDirname Source = iota
	// SourceVCS is the version-control strategy.
	SourceVCS
	// SourceMetadata is the installed-distribution metadata strategy.
	SourceMetadata
)

// String returns the display label used in error reports.
func (s Source) String() string {
	switch s {
	case SourceDirname:
		return "Directory name"
	case SourceVCS:
		return "VCS"
	case SourceMetadata:
		return "Package metadata"
	default:
		return "unknown"
	}
}
