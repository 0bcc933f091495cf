package resolver

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/oshokin/get-version/internal/logger"
	"github.com/oshokin/get-version/internal/metadata"
)

// metadataStrategy reads the version of an installed distribution.
type metadataStrategy struct {
	index *metadata.Index

	// enforceParent requires the install location to match the target
	// directory. The chain sets it to guard against a same-named but
	// different installed distribution; bare-name lookups leave it off.
	enforceParent bool
}

// Source implements Strategy.
func (metadataStrategy) Source() Source {
	return SourceMetadata
}

// Resolve implements Strategy. Malformed metadata aborts resolution rather
// than falling through to the next strategy.
func (s metadataStrategy) Resolve(ctx context.Context, target Target) (string, error) {
	dist, err := s.index.Lookup(target.DistName)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return "", notFound(s.Source(), "could not find distribution %q", target.DistName)
		}

		return "", err
	}

	if s.enforceParent {
		if err = s.checkParent(dist, target.Dir); err != nil {
			return "", err
		}
	}

	logger.DebugKV(ctx, "Resolved version from package metadata",
		"distribution", dist.Name, "version", dist.Version)

	return dist.Version, nil
}

// checkParent verifies the distribution is installed where the target
// expects it, showing both paths on mismatch.
func (s metadataStrategy) checkParent(dist *metadata.Distribution, dir string) error {
	parents, err := dist.InstallParent()
	if err != nil {
		// Includes metadata.ErrMalformed, which must propagate as-is.
		return err
	}

	expected := dir
	if resolved, resolveErr := filepath.EvalSymlinks(expected); resolveErr == nil {
		expected = resolved
	}

	for _, parent := range parents {
		if parent == expected {
			return nil
		}
	}

	return notFound(s.Source(), "distribution and package parent paths do not match;\n%s\nis not\n%s",
		expected, strings.Join(parents, "\n"))
}
