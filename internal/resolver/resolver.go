package resolver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oshokin/get-version/internal/logger"
	"github.com/oshokin/get-version/internal/metadata"
	"github.com/oshokin/get-version/internal/pep440"
)

// moduleSuffix is the only recognized module-file extension.
const moduleSuffix = ".py"

// packageRootFile marks a package directory's root module.
const packageRootFile = "__init__" + moduleSuffix

// options collects the optional knobs of GetVersion.
type options struct {
	// distName overrides the distribution name derived from the module name.
	distName string
	// searchPaths are the directories scanned for installed metadata.
	searchPaths []string
}

// Option customizes a single GetVersion call.
type Option func(*options)

// WithDistName overrides the distribution name used by the metadata
// strategy, for packages whose distribution is not named after the module
// (e.g. module "PIL", distribution "Pillow").
func WithDistName(name string) Option {
	return func(o *options) {
		o.distName = name
	}
}

// WithSearchPaths sets the directories scanned for installed-distribution
// metadata.
func WithSearchPaths(paths ...string) Option {
	return func(o *options) {
		o.searchPaths = append(o.searchPaths, paths...)
	}
}

// GetVersion determines the version of a package or module.
//
// ref is either a bare distribution name or the path to a module file
// ("…/module.py" or "…/module/__init__.py"). A bare name resolves purely via
// installed metadata. A path runs the strategy chain on the module's logical
// parent directory: directory name, then VCS, then metadata. The first
// success wins; when every strategy fails the returned *ResolutionError
// lists each strategy's reason.
//
// All entities are transient; nothing persists between calls, so concurrent
// calls are safe.
func GetVersion(ctx context.Context, ref string, opts ...Option) (string, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	index := metadata.NewIndex(o.searchPaths...)

	if o.distName == "" && isBareName(ref) {
		logger.DebugKV(ctx, "Resolving bare name via package metadata", "name", ref)

		version, err := metadataStrategy{index: index}.Resolve(ctx, Target{DistName: ref})
		if err != nil {
			return "", err
		}

		return validated(version)
	}

	target, err := deriveTarget(ref, o.distName)
	if err != nil {
		return "", err
	}

	strategies := []Strategy{
		dirnameStrategy{},
		vcsStrategy{},
		metadataStrategy{index: index, enforceParent: true},
	}

	failures := make([]*NotFoundError, 0, len(strategies))

	for _, strategy := range strategies {
		version, resolveErr := strategy.Resolve(ctx, target)
		if resolveErr == nil {
			return validated(version)
		}

		var miss *NotFoundError
		if !errors.As(resolveErr, &miss) {
			// Hard failures (malformed metadata and the like) abort the chain.
			return "", resolveErr
		}

		logger.DebugKV(ctx, "Strategy failed",
			"source", miss.Source.String(), "reason", miss.Msg)

		failures = append(failures, miss)
	}

	return "", &ResolutionError{Failures: failures}
}

// deriveTarget validates the module reference and computes the location the
// strategy chain works on.
func deriveTarget(ref, distName string) (Target, error) {
	if !strings.HasSuffix(ref, moduleSuffix) {
		suffix := filepath.Ext(ref)
		if suffix == ref {
			// Hidden files like ".bashrc" have no real suffix.
			suffix = ""
		}

		return Target{}, &InvalidReferenceError{Ref: ref, Suffix: suffix}
	}

	var (
		moduleName string
		parent     string
	)

	if filepath.Base(ref) == packageRootFile {
		// The package root's "parent" is the directory containing the package.
		packageDir := filepath.Dir(ref)
		moduleName = filepath.Base(packageDir)
		parent = filepath.Dir(packageDir)
	} else {
		moduleName = strings.TrimSuffix(filepath.Base(ref), moduleSuffix)
		parent = filepath.Dir(ref)
	}

	// In a src layout the comparison directory is above src.
	if filepath.Base(parent) == "src" {
		parent = filepath.Dir(parent)
	}

	absParent, err := filepath.Abs(parent)
	if err != nil {
		return Target{}, fmt.Errorf("resolve parent directory %q: %w", parent, err)
	}

	if distName == "" {
		distName = moduleName
	}

	return Target{Dir: absParent, DistName: distName}, nil
}

// isBareName reports whether ref looks like a distribution name rather than
// a path: a single path element without a file extension.
func isBareName(ref string) bool {
	return filepath.Ext(ref) == "" && !strings.ContainsRune(filepath.ToSlash(ref), '/')
}

// validated defensively re-checks a resolved version against the grammar
// before handing it to the caller.
func validated(version string) (string, error) {
	if !pep440.IsValid(version) {
		return "", fmt.Errorf("resolved version %q does not match the version grammar", version)
	}

	return version, nil
}
