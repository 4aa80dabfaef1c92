package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Save writes the pipeline to path as JSON, creating parent directories
// and replacing any previous model atomically.
func (p *Pipeline) Save(path string) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create model directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace model: %w", err)
	}
	return nil
}

// Load reads a pipeline persisted by Save.
func Load(path string) (*Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var p Pipeline
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if len(p.Classes) == 0 || p.Forest == nil || len(p.Forest.Trees) == 0 {
		return nil, fmt.Errorf("model at %s is incomplete", path)
	}
	return &p, nil
}
