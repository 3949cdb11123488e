package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/appgwatch/appgwatch/internal/model"
)

// CorrectionStore persists the name-correction list as a single JSON array
type CorrectionStore struct {
	path string
}

// NewCorrectionStore creates a store backed by the given file path
func NewCorrectionStore(path string) *CorrectionStore {
	return &CorrectionStore{path: path}
}

// Load reads the correction list. A missing file yields an empty list so the
// first run can bootstrap the store.
func (s *CorrectionStore) Load() (*model.NameCorrectionList, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.NameCorrectionList{}, nil
		}
		return nil, fmt.Errorf("read corrections: %w", err)
	}

	var items []model.NameCorrection
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse corrections %s: %w", s.path, err)
	}
	return &model.NameCorrectionList{Items: items}, nil
}

// Save writes the correction list back to disk
func (s *CorrectionStore) Save(list *model.NameCorrectionList) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create corrections dir: %w", err)
	}

	items := list.Items
	if items == nil {
		items = []model.NameCorrection{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal corrections: %w", err)
	}

	if err := os.WriteFile(s.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write corrections: %w", err)
	}
	return nil
}
