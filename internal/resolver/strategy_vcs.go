package resolver

import (
	"context"
	"os"
	"path/filepath"

	"github.com/oshokin/get-version/internal/logger"
	"github.com/oshokin/get-version/internal/vcs"
)

// rtdEnvVar marks documentation-build environments, which check out clean
// trees and then patch them; the dirty marker is noise there.
const rtdEnvVar = "READTHEDOCS"

// vcsStrategy derives a version from the repository governing the directory.
type vcsStrategy struct{}

// Source implements Strategy.
func (vcsStrategy) Source() Source {
	return SourceVCS
}

// Resolve implements Strategy. The target directory must be exactly the
// repository root: a package nested deeper inside a repository is ambiguous
// and this strategy refuses to guess.
func (s vcsStrategy) Resolve(ctx context.Context, target Target) (string, error) {
	dir := target.Dir
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	kind := vcs.Detect(dir)
	if kind == vcs.KindNone {
		return "", notFound(s.Source(), "could not find VCS from directory %q", dir)
	}

	root, err := vcs.Root(ctx, kind, dir)
	if err != nil {
		return "", notFound(s.Source(), "starting in directory %q, encountered: %v", dir, err)
	}

	if dir != root {
		return "", notFound(s.Source(), "directory %q does not match VCS root %q", dir, root)
	}

	desc, err := vcs.Describe(ctx, kind, dir)
	if err != nil {
		return "", notFound(s.Source(), "starting in directory %q, encountered: %v", dir, err)
	}

	version, err := desc.Serialize(!onRTD())
	if err != nil {
		return "", notFound(s.Source(), "starting in directory %q, found unserializable version: %v", dir, err)
	}

	logger.DebugKV(ctx, "Resolved version from VCS",
		"dir", dir, "vcs", kind.String(), "version", version)

	return version, nil
}

// onRTD reports whether we are running under a documentation build.
func onRTD() bool {
	return os.Getenv(rtdEnvVar) == "True"
}
