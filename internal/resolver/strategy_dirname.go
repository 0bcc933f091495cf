package resolver

import (
	"context"
	"path/filepath"
	"regexp"

	"github.com/oshokin/get-version/internal/logger"
	"github.com/oshokin/get-version/internal/pep440"
)

// reDirname matches "<identifier>-<version>" directory names as produced by
// extracting a source distribution. The identifier is one or more hyphen or
// underscore joined alphabetic segments; the trailing segment must be a full
// version per the grammar.
var reDirname = regexp.MustCompile(`\A[A-Za-z]+(?:[_-][A-Za-z]+)*-(?P<version>` + pep440.Pattern + `)\z`)

// dirnameStrategy extracts a version from the containing directory's name.
type dirnameStrategy struct{}

// Source implements Strategy.
func (dirnameStrategy) Source() Source {
	return SourceDirname
}

// Resolve implements Strategy. It works on the resolved, symlink-free
// directory name so the reported path matches what is actually on disk.
func (s dirnameStrategy) Resolve(ctx context.Context, target Target) (string, error) {
	dir := target.Dir
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	match := reDirname.FindStringSubmatch(filepath.Base(dir))
	if match == nil {
		return "", notFound(s.Source(), "name of directory %q does not contain a valid version", dir)
	}

	version := match[reDirname.SubexpIndex("version")]
	logger.DebugKV(ctx, "Resolved version from directory name", "dir", dir, "version", version)

	return version, nil
}
