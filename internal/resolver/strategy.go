package resolver

import (
	"context"
)

// Target is the resolved location a strategy works on: the directory assumed
// to contain the package and the distribution name to look up.
type Target struct {
	// Dir is the package's logical parent directory, absolute.
	Dir string
	// DistName is the distribution name derived from the module or supplied
	// by the caller.
	DistName string
}

// Strategy is one way of determining a version. Resolve either returns a
// version string or an error; *NotFoundError marks an ordinary miss that the
// chain continues past, anything else aborts resolution.
type Strategy interface {
	// Source tags the strategy's results and failures.
	Source() Source
	// Resolve attempts to determine the version for the target.
	Resolve(ctx context.Context, target Target) (string, error)
}
