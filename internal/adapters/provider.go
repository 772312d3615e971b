// Package adapters supplies project snapshots to the health engine.
package adapters

import (
	"context"
	"errors"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/types"
)

var (
	// ErrProjectNotFound is returned for an id the provider does not know
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidProject wraps a snapshot that fails validation
	ErrInvalidProject = errors.New("invalid project snapshot")
)

// ProjectProvider fetches project snapshots. Returned projects are shared;
// callers must not modify them.
type ProjectProvider interface {
	GetProject(ctx context.Context, id string) (*types.Project, error)
	ListProjects(ctx context.Context) ([]*types.Project, error)
}
