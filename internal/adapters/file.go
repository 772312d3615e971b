package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/types"
)

// FileProvider serves project snapshots stored as one JSON or YAML file per
// project in a directory.
type FileProvider struct {
	dir string

	mu       sync.RWMutex
	projects []*types.Project
	byID     map[string]*types.Project
}

// NewFileProvider loads every snapshot in dir
func NewFileProvider(dir string) (*FileProvider, error) {
	f := &FileProvider{dir: dir}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Reload re-reads the directory. On error the previous snapshots stay in place.
func (f *FileProvider) Reload() error {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("failed to read projects directory %s: %w", f.dir, err)
	}

	var projects []*types.Project
	byID := make(map[string]*types.Project)
	for _, entry := range entries {
		if entry.IsDir() || !isProjectFile(entry.Name()) {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		p, err := LoadProjectFile(path)
		if err != nil {
			return err
		}
		if _, dup := byID[p.ID]; dup {
			return fmt.Errorf("%w: duplicate project id %q in %s", ErrInvalidProject, p.ID, path)
		}
		byID[p.ID] = p
		projects = append(projects, p)
	}

	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })

	f.mu.Lock()
	f.projects = projects
	f.byID = byID
	f.mu.Unlock()

	slog.Info("Loaded project snapshots", "dir", f.dir, "count", len(projects))
	return nil
}

// GetProject returns the snapshot with the given id
func (f *FileProvider) GetProject(ctx context.Context, id string) (*types.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	p, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return p, nil
}

// ListProjects returns every snapshot ordered by id
func (f *FileProvider) ListProjects(ctx context.Context) ([]*types.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]*types.Project, len(f.projects))
	copy(out, f.projects)
	return out, nil
}

// LoadProjectFile decodes and validates a single snapshot file
func LoadProjectFile(path string) (*types.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file %s: %w", path, err)
	}
	return DecodeProject(filepath.Ext(path), data)
}

// DecodeProject parses a snapshot in the format named by ext and validates it
func DecodeProject(ext string, data []byte) (*types.Project, error) {
	var p types.Project
	switch strings.ToLower(ext) {
	case ".json":
		err := json.Unmarshal(data, &p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
		}
	case ".yaml", ".yml":
		err := yaml.Unmarshal(data, &p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported project format %q", ErrInvalidProject, ext)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	return &p, nil
}

func isProjectFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
