package preinstall

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

// ListPattern matches factory list files below the seed directory
const ListPattern = "**/*.{yaml,yml,toml,json}"

// factoryList is the on-disk shape of a factory list file
type factoryList struct {
	Bundles []types.PreInstallBundleInfo `json:"bundles" yaml:"bundles" toml:"bundles"`
}

// SeedResult summarizes one seeding pass
type SeedResult struct {
	Files   int `json:"files"`
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Seeder loads factory pre-install lists from disk into a Table
type Seeder struct {
	table *Table
	fsys  fs.FS
	dir   string
	log   *zap.Logger
}

// NewSeeder creates a seeder reading lists below dir
func NewSeeder(table *Table, dir string, log *zap.Logger) *Seeder {
	return NewSeederFS(table, os.DirFS(dir), dir, log)
}

// NewSeederFS creates a seeder over fsys. dir is used for logging only.
func NewSeederFS(table *Table, fsys fs.FS, dir string, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{
		table: table,
		fsys:  fsys,
		dir:   dir,
		log:   log.Named("seeder"),
	}
}

// Seed saves every listed bundle that has no row yet. Existing rows keep
// their IsUninstalled flag. Unreadable files and invalid entries are
// counted as failed and do not stop the pass.
func (s *Seeder) Seed(ctx context.Context) (SeedResult, error) {
	var result SeedResult
	s.log.Info("Seeding preinstall lists", zap.String("dir", s.dir))

	matches, err := doublestar.Glob(s.fsys, ListPattern)
	if err != nil {
		return result, fmt.Errorf("failed to scan %s: %w", s.dir, err)
	}

	for _, name := range matches {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Files++

		list, err := s.readList(name)
		if err != nil {
			s.log.Warn("Failed to read preinstall list", zap.String("file", name), zap.Error(err))
			result.Failed++
			continue
		}

		for _, info := range list.Bundles {
			if _, exists := s.table.Get(info.BundleName); exists {
				result.Skipped++
				continue
			}
			if err := s.table.Save(ctx, info); err != nil {
				s.log.Warn("Failed to seed bundle",
					zap.String("file", name),
					zap.String("bundle", info.BundleName),
					zap.Error(err))
				result.Failed++
				continue
			}
			result.Loaded++
		}
	}

	s.log.Info("Seeding complete",
		zap.Int("files", result.Files),
		zap.Int("loaded", result.Loaded),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *Seeder) readList(name string) (factoryList, error) {
	var list factoryList

	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return list, err
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &list)
	case ".toml":
		err = toml.Unmarshal(data, &list)
	case ".json":
		err = sonic.Unmarshal(data, &list)
	default:
		err = fmt.Errorf("unsupported list format %q", path.Ext(name))
	}
	if err != nil {
		return list, fmt.Errorf("parse %s: %w", name, err)
	}
	return list, nil
}
