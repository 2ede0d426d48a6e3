package quest

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed seed.toml
var seedTOML []byte

type seedFile struct {
	Quests []Quest `toml:"quests"`
}

// DefaultCatalog parses the embedded seed catalog.
func DefaultCatalog() ([]Quest, error) {
	var f seedFile
	if err := toml.Unmarshal(seedTOML, &f); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}
	for _, q := range f.Quests {
		if q.ID == "" {
			return nil, fmt.Errorf("seed catalog entry missing id")
		}
	}
	return f.Quests, nil
}

// SeedDefaults loads the embedded catalog into an empty repo. A non-empty
// repo is left alone so admin edits survive restarts.
func SeedDefaults(ctx context.Context, repo Repo) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	catalog, err := DefaultCatalog()
	if err != nil {
		return err
	}
	return repo.Seed(ctx, catalog)
}
