package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/dagwalk/internal/config"
	"github.com/vk/dagwalk/internal/ctxlog"
	"github.com/vk/dagwalk/internal/fsutil"
	"github.com/vk/dagwalk/internal/hcl"
	"github.com/vk/dagwalk/internal/yamlconf"
)

// DefaultLoaders maps file extensions to the loaders used for them.
func DefaultLoaders() map[string]config.Loader {
	y := yamlconf.NewLoader()
	return map[string]config.Loader{
		".hcl":  hcl.NewLoader(),
		".yaml": y,
		".yml":  y,
	}
}

// loadModel finds every definition file under path, hands each group of
// files to the loader registered for its extension and merges the results.
func loadModel(ctx context.Context, path string, loaders map[string]config.Loader) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	exts := make([]string, 0, len(loaders))
	for ext := range loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	files, err := fsutil.FindFilesByExtension(path, exts...)
	if err != nil {
		return nil, fmt.Errorf("failed to find definition files in %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no definition files (%s) found in %s", strings.Join(exts, ", "), path)
	}
	logger.Debug("Found definition files.", "files", files)

	byExt := make(map[string][]string)
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f))
		byExt[ext] = append(byExt[ext], f)
	}

	var models []*config.Model
	for _, ext := range exts {
		if len(byExt[ext]) == 0 {
			continue
		}
		m, err := loaders[ext].Load(ctx, byExt[ext]...)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return config.Merge(models...)
}
