// Package pep440 implements the PEP-440-like version grammar shared by all
// resolution strategies.
//
// Parse decomposes a full version string into a Version, ParseTag additionally
// tolerates a leading "v" as found in VCS tags, and Pattern exposes the raw
// grammar so other packages can embed it in larger expressions.
package pep440
