// Package resolver determines the version of a package or module by trying
// an ordered list of strategies: the containing directory's name, the
// version-control system governing it, and installed-distribution metadata.
//
// The first strategy to succeed wins. When every strategy fails, the
// returned error aggregates each strategy's reason in execution order.
package resolver
