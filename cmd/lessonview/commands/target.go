package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/livetemplate/lessonview/internal/config"
)

// target is the lesson document a command works on and the configuration
// that applies to it.
type target struct {
	dir     string
	docPath string
	config  *config.Config
}

// resolveTarget accepts a directory, looked up for lessonview.yaml and the
// document it names, or a lesson document itself. configPath overrides the
// configuration lookup.
func resolveTarget(path, configPath string) (*target, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	t := &target{dir: absPath}
	if !info.IsDir() {
		t.dir = filepath.Dir(absPath)
		t.docPath = absPath
	}

	if configPath != "" {
		t.config, err = config.Load(configPath)
	} else {
		t.config, err = config.LoadFromDir(t.dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if t.docPath == "" {
		t.docPath = t.config.LessonsPath(t.dir)
	}
	return t, nil
}
