// Package store persists groups as one JSON document per slug, one folder per
// parliament, with immutable release snapshots kept under a date-named folder.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/appgwatch/appgwatch/internal/model"
)

// ErrNotFound is returned when no group file exists for a requested slug
var ErrNotFound = errors.New("group not found")

// GroupStore is the file-backed repository for group records
type GroupStore struct {
	dataDir string
}

// NewGroupStore creates a store rooted at the given data directory
func NewGroupStore(dataDir string) *GroupStore {
	return &GroupStore{dataDir: dataDir}
}

func (s *GroupStore) folder(parliament model.Parliament) string {
	return filepath.Join(s.dataDir, parliament.Folder())
}

func (s *GroupStore) releaseFolder(release string) string {
	return filepath.Join(s.dataDir, "raw", "releases", release)
}

// Load reads one group by slug from the live dataset
func (s *GroupStore) Load(parliament model.Parliament, slug string) (*model.Group, error) {
	return loadFile(filepath.Join(s.folder(parliament), slug+".json"))
}

// LoadRelease reads one group by slug from a release snapshot
func (s *GroupStore) LoadRelease(release, slug string) (*model.Group, error) {
	return loadFile(filepath.Join(s.releaseFolder(release), slug+".json"))
}

// Save writes a group into the live dataset
func (s *GroupStore) Save(g *model.Group) error {
	return saveFile(filepath.Join(s.folder(g.Parliament), g.Slug+".json"), g)
}

// SaveRelease writes a group into a release snapshot folder
func (s *GroupStore) SaveRelease(g *model.Group, release string) error {
	return saveFile(filepath.Join(s.releaseFolder(release), g.Slug+".json"), g)
}

// LoadAll reads every group for a parliament, sorted by title
func (s *GroupStore) LoadAll(parliament model.Parliament) ([]*model.Group, error) {
	return loadFolder(s.folder(parliament))
}

// LoadAllParliaments reads every group across all parliaments
func (s *GroupStore) LoadAllParliaments() ([]*model.Group, error) {
	var all []*model.Group
	for _, p := range model.AllParliaments {
		groups, err := loadFolder(s.folder(p))
		if err != nil {
			return nil, err
		}
		all = append(all, groups...)
	}
	return all, nil
}

// LoadReleaseAll reads every group in a release snapshot
func (s *GroupStore) LoadReleaseAll(release string) ([]*model.Group, error) {
	return loadFolder(s.releaseFolder(release))
}

// Slugs lists the existing slugs for a parliament
func (s *GroupStore) Slugs(parliament model.Parliament) (map[string]struct{}, error) {
	entries, err := os.ReadDir(s.folder(parliament))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("list groups: %w", err)
	}
	slugs := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".json") {
			slugs[strings.TrimSuffix(entry.Name(), ".json")] = struct{}{}
		}
	}
	return slugs, nil
}

func loadFile(path string) (*model.Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("read group file: %w", err)
	}

	var g model.Group
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse group file %s: %w", path, err)
	}
	if g.Parliament == "" {
		g.Parliament = model.ParliamentUK
	}
	return &g, nil
}

func saveFile(path string, g *model.Group) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create group dir: %w", err)
	}

	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal group: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write group file: %w", err)
	}
	return nil
}

func loadFolder(dir string) ([]*model.Group, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list groups: %w", err)
	}

	var groups []*model.Group
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		g, err := loadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool {
		return strings.ToLower(groups[i].Title) < strings.ToLower(groups[j].Title)
	})
	return groups, nil
}
