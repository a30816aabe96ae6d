package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/config"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/core"
)

// FileFetcher reads a source release from the local filesystem.
type FileFetcher struct {
	Path string
}

// Fetch reads the whole file. A missing file is reported as a fetch error,
// so the store retries on the next access.
func (f FileFetcher) Fetch(ctx context.Context) (core.RawFile, error) {
	if err := ctx.Err(); err != nil {
		return core.RawFile{}, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return core.RawFile{}, fmt.Errorf("read %s: %w", f.Path, err)
	}
	return core.RawFile{Name: filepath.Base(f.Path), Data: data}, nil
}

// Paths maps source keys to the files configured for them.
func Paths(cfg config.SourcesConfig) map[string]string {
	return map[string]string{
		KeyUSGS: cfg.USGSFile,
		KeyBGS:  cfg.BGSFile,
		KeyMRDS: cfg.MRDSFile,
	}
}

// Bindings pairs every registered definition with a FileFetcher for its
// configured path. Sources without a path are bound with a nil fetcher.
func Bindings(cfg config.SourcesConfig) []core.Binding {
	paths := Paths(cfg)
	defs := core.All()

	bindings := make([]core.Binding, 0, len(defs))
	for _, def := range defs {
		b := core.Binding{Definition: def}
		if p := paths[def.Key]; p != "" {
			b.Fetcher = FileFetcher{Path: p}
		}
		bindings = append(bindings, b)
	}
	return bindings
}

// Aliases loads the alias table named by cfg, or the embedded default.
func Aliases(cfg config.SourcesConfig) (*core.AliasTable, error) {
	if cfg.AliasesFile == "" {
		return core.DefaultAliases(), nil
	}
	return core.LoadAliasFile(cfg.AliasesFile)
}
