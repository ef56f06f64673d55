package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"igcrawler/pkg/config"
	"igcrawler/pkg/graph"
	"igcrawler/pkg/logger"
)

// Store saves and restores the graph of one target at a time
type Store interface {
	// Save overwrites the checkpoint of g.Target with a snapshot of g
	Save(ctx context.Context, g *graph.Graph) error
	// Load returns the checkpoint of target, or nil when there is none
	Load(ctx context.Context, target string) (*graph.Graph, error)
	// Backup keeps a copy of the current checkpoint of target, if any
	Backup(ctx context.Context, target string) error
	// LoadBackup returns the copy kept by Backup, or nil when there is none
	LoadBackup(ctx context.Context, target string) (*graph.Graph, error)
	// Targets lists every target that has a checkpoint
	Targets(ctx context.Context) ([]string, error)
	Close() error
}

// New opens the backend selected by cfg
func New(cfg config.CheckpointConfig, log logger.Logger) (Store, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	log = log.WithField("component", "checkpoint")

	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Directory, log)
	case config.BackendSQLite:
		return OpenSQLite(cfg.Directory, log)
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
	}
}

// LoadFile reads a JSON checkpoint from an explicit path
func LoadFile(path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	return decode(data)
}

func encode(g *graph.Graph) ([]byte, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*graph.Graph, error) {
	g := graph.New("", "")
	if err := json.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return g, nil
}

// fileName maps a target onto a safe file name component
func fileName(target string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_", ":", "_")
	return r.Replace(strings.TrimPrefix(target, "@"))
}
