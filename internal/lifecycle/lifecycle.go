// Package lifecycle moves a source file to a processed or errors directory
// once the pipeline has finished with it, optionally preserving its
// subdirectory structure relative to the watched root and stamping the
// destination name with a timestamp.
package lifecycle

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"ragpipe/internal/config"
)

// Manager moves files after ingestion, gated by the
// enabled/move_processed/move_errors config flags.
type Manager struct {
	cfg config.LifecycleConfig
}

func New(cfg config.LifecycleConfig) (*Manager, error) {
	m := &Manager{cfg: cfg}
	if !cfg.Enabled {
		return m, nil
	}
	if cfg.MoveProcessed && cfg.ProcessedDir != "" {
		if err := os.MkdirAll(cfg.ProcessedDir, 0o755); err != nil {
			return nil, fmt.Errorf("lifecycle: creating processed dir: %w", err)
		}
	}
	if cfg.MoveErrors && cfg.ErrorsDir != "" {
		if err := os.MkdirAll(cfg.ErrorsDir, 0o755); err != nil {
			return nil, fmt.Errorf("lifecycle: creating errors dir: %w", err)
		}
	}
	return m, nil
}

// BaseWatchPath returns whichever configured watch root contains filePath,
// or "" if none do.
func (m *Manager) BaseWatchPath(filePath string) string {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return ""
	}
	roots := m.cfg.WatchDirs
	if len(roots) == 0 && m.cfg.WatchDir != "" {
		roots = []string{m.cfg.WatchDir}
	}
	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if rel, err := filepath.Rel(absRoot, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return absRoot
		}
	}
	return ""
}

// MoveToProcessed relocates filePath under the processed directory. It
// returns "" when lifecycle management or move_processed is disabled, or
// when the move failed.
func (m *Manager) MoveToProcessed(filePath, baseWatchPath string) string {
	if !m.cfg.Enabled || !m.cfg.MoveProcessed {
		return ""
	}
	if _, err := os.Stat(filePath); err != nil {
		log.Warn().Str("file", filePath).Msg("lifecycle: file missing, cannot move to processed")
		return ""
	}

	dest := m.destinationPath(filePath, m.cfg.ProcessedDir, baseWatchPath)
	if err := m.move(filePath, dest); err != nil {
		log.Error().Err(err).Str("file", filePath).Msg("lifecycle: move to processed failed")
		return ""
	}
	return dest
}

// MoveToErrors relocates filePath under the errors directory and writes a
// sidecar "<name>.error" file carrying errMsg when non-empty.
func (m *Manager) MoveToErrors(filePath, baseWatchPath, errMsg string) string {
	if !m.cfg.Enabled || !m.cfg.MoveErrors {
		return ""
	}
	if _, err := os.Stat(filePath); err != nil {
		log.Warn().Str("file", filePath).Msg("lifecycle: file missing, cannot move to errors")
		return ""
	}

	dest := m.destinationPath(filePath, m.cfg.ErrorsDir, baseWatchPath)
	if err := m.move(filePath, dest); err != nil {
		log.Error().Err(err).Str("file", filePath).Msg("lifecycle: move to errors failed")
		return ""
	}

	if errMsg != "" {
		sidecar := dest + ".error"
		content := fmt.Sprintf("Error: %s\nFile: %s\nDate: %s\n", errMsg, filePath, time.Now().Format(time.RFC3339))
		if err := os.WriteFile(sidecar, []byte(content), 0o644); err != nil {
			log.Warn().Err(err).Str("file", sidecar).Msg("lifecycle: writing error sidecar failed")
		}
	}
	return dest
}

func (m *Manager) move(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}
	if err := os.Rename(src, dest); err != nil {
		return fmt.Errorf("moving file: %w", err)
	}
	return nil
}

// destinationPath computes the move target: optional timestamp suffix,
// optional subdirectory-structure preservation relative to
// baseWatchPath, and a numeric-counter collision resolver appended before
// the timestamp when the computed name already exists.
func (m *Manager) destinationPath(filePath, destDir, baseWatchPath string) string {
	ext := filepath.Ext(filePath)
	stem := strings.TrimSuffix(filepath.Base(filePath), ext)

	buildName := func(counter int) string {
		name := stem
		if counter > 0 {
			name += "_" + strconv.Itoa(counter)
		}
		if m.cfg.AddTimestamp {
			name += "_" + time.Now().Format("20060102_150405")
		}
		return name + ext
	}

	buildPath := func(name string) string {
		if m.cfg.PreserveStructure && baseWatchPath != "" {
			if abs, err := filepath.Abs(filePath); err == nil {
				if absRoot, err := filepath.Abs(baseWatchPath); err == nil {
					if rel, err := filepath.Rel(absRoot, filepath.Dir(abs)); err == nil && !strings.HasPrefix(rel, "..") {
						return filepath.Join(destDir, rel, name)
					}
				}
			}
		}
		return filepath.Join(destDir, name)
	}

	dest := buildPath(buildName(0))
	counter := 1
	for fileExists(dest) {
		dest = buildPath(buildName(counter))
		counter++
	}
	return dest
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
