package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/fsutil"
	"github.com/specialistvlad/defigrid/internal/model"
)

// Load reads every workflow at path, which may be a .hcl file, a .json
// file, or a directory containing either.
func Load(ctx context.Context, path string) ([]*model.WorkflowDefinition, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving workflow path.", "path", path)

	files, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		logger.Warn("No workflow files found at the specified path.", "path", path)
		return nil, nil
	}

	var defs []*model.WorkflowDefinition
	for _, f := range files {
		loaded, err := LoadFile(ctx, f)
		if err != nil {
			return nil, err
		}
		defs = append(defs, loaded...)
	}
	logger.Debug("Workflows loaded.", "files", len(files), "workflows", len(defs))
	return defs, nil
}

// LoadFile reads the workflows of a single file, picking the format by
// extension.
func LoadFile(ctx context.Context, path string) ([]*model.WorkflowDefinition, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workflow file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return ParseHCL(ctx, src, path)
	case ".json":
		def, err := model.DecodeJSON(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		def.FSInformation = model.NewFSInfo(path)
		return []*model.WorkflowDefinition{def}, nil
	}
	return nil, fmt.Errorf("unsupported workflow file type: %s", path)
}

func resolvePath(path string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("workflow path not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	return fsutil.FindWorkflowFiles(path, ".hcl", ".json")
}
