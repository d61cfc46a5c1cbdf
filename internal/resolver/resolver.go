// Package resolver defines the module-graph resolution boundary the
// composer delegates to, and an in-memory reference implementation
// used by the CLI and the tests.
//
// The composer only shapes requests and interprets results; metadata
// fetching and repository I/O live behind ModuleGraphResolver.
package resolver

import (
	"context"

	"github.com/anvil-platform/suitepath/internal/coordinate"
	"github.com/anvil-platform/suitepath/internal/semver"
)

// ModuleQuery is one requested module edge: a coordinate, its version
// requirement and the excludes scoped to this edge's subgraph.
type ModuleQuery struct {
	Coordinate coordinate.Module
	// Constraint is the version requirement. The zero Constraint means
	// any version.
	Constraint semver.Constraint
	// Prefer is consulted only when several versions satisfy the sole
	// constraint on the module.
	Prefer   string
	Excludes []coordinate.Exclude
}

// PlatformHint aligns versions without contributing files. Enforced
// hints pin their target's version unconditionally for the request.
type PlatformHint struct {
	Coordinate coordinate.Module
	Constraint semver.Constraint
	Enforced   bool
}

// Request is one (suite, kind) resolution domain. Domains are
// independent: nothing is merged or reconciled across requests.
type Request struct {
	Coordinates []ModuleQuery
	Platforms   []PlatformHint
}

// File is one resolved artifact.
type File struct {
	Path       string
	Coordinate coordinate.Module
	Version    string
}

// Result carries resolved files in dependency-graph order.
type Result struct {
	Files []File
}

// ModuleGraphResolver resolves a request into files or fails with a
// *ResolutionError. It is the only blocking point of the engine;
// callers own retry and timeout policy.
type ModuleGraphResolver interface {
	ResolveModules(ctx context.Context, req Request) (Result, error)
}
