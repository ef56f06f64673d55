package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"igcrawler/pkg/graph"
	"igcrawler/pkg/logger"
)

const fileSuffix = "_graph.json"

// FileStore keeps one JSON file per target
type FileStore struct {
	dir    string
	logger logger.Logger
}

func NewFileStore(dir string, log logger.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("checkpoint directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &FileStore{dir: dir, logger: log}, nil
}

// Path is the well-known checkpoint location of target
func (s *FileStore) Path(target string) string {
	return filepath.Join(s.dir, fileName(target)+fileSuffix)
}

// Save writes a temp file, syncs it, then renames it over the checkpoint
func (s *FileStore) Save(ctx context.Context, g *graph.Graph) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(g)
	if err != nil {
		return err
	}

	path := s.Path(g.Target)
	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	s.logger.DebugWithFields("checkpoint saved", map[string]interface{}{
		"target": g.Target,
		"nodes":  g.Len(),
		"path":   path,
	})
	return nil
}

func (s *FileStore) Load(ctx context.Context, target string) (*graph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(target))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}

	g, err := decode(data)
	if err != nil {
		return nil, err
	}

	stats := g.Stats()
	s.logger.InfoWithFields("checkpoint loaded", map[string]interface{}{
		"target":     g.Target,
		"nodes":      stats.Nodes,
		"unresolved": stats.Unresolved,
		"edges":      stats.Edges,
	})
	return g, nil
}

// Backup copies the checkpoint of target to <path>.backup
func (s *FileStore) Backup(ctx context.Context, target string) error {
	path := s.Path(target)
	src, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open checkpoint for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path + ".backup")
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy checkpoint to backup: %w", err)
	}

	s.logger.Debug("checkpoint backed up")
	return nil
}

func (s *FileStore) Targets(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	var targets []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		targets = append(targets, strings.TrimSuffix(name, fileSuffix))
	}
	slices.Sort(targets)
	return targets, nil
}

// LoadBackup reads <path>.backup, or returns nil when there is none
func (s *FileStore) LoadBackup(ctx context.Context, target string) (*graph.Graph, error) {
	data, err := os.ReadFile(s.Path(target) + ".backup")
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	return decode(data)
}

func (s *FileStore) Close() error { return nil }
