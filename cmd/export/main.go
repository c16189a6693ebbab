package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/madins005/KSM-Education-Home-Journal/storage"
)

type ExportConfig struct {
	StoreDriver string `envconfig:"STORE_DRIVER" default:"file"`
	DataDir     string `envconfig:"DATA_DIR" default:"./data"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/store.db"`
	ExportDir   string `envconfig:"EXPORT_DIR" default:"./exports"`
	KeepExports int    `envconfig:"KEEP_EXPORTS" default:"4"`
}

// snapshot is the export file layout: raw store values per key, so an
// export can be re-imported without any schema knowledge.
type snapshot struct {
	ExportedAt string            `json:"exportedAt"`
	Values     map[string]string `json:"values"`
}

func main() {
	log.Println("Starting export...")

	var cfg ExportConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	snap := snapshot{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Values:     map[string]string{},
	}
	for _, key := range []string{storage.KeyJournals, storage.KeyOpinions, storage.KeyStatistics} {
		if value, ok := store.Get(key); ok {
			snap.Values[key] = value
		}
	}

	fileName := fmt.Sprintf("export-%s.json.gz", time.Now().UTC().Format("2006-01-02T15-04-05Z"))
	if err := writeExport(cfg.ExportDir, fileName, snap); err != nil {
		log.Fatalf("Failed to write export: %v", err)
	}
	log.Printf("Export written to %s", filepath.Join(cfg.ExportDir, fileName))

	if err := rotateExports(cfg); err != nil {
		log.Fatalf("Failed to rotate old exports: %v", err)
	}

	log.Println("Export finished.")
}

func openStore(cfg ExportConfig) (storage.Store, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		return storage.NewSQLiteStore(cfg.SQLitePath)
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return storage.NewFileStore(cfg.DataDir, zap.NewNop())
	}
}

func writeExport(dir, fileName string, snap snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, fileName))
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(snap); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

func rotateExports(cfg ExportConfig) error {
	matches, err := filepath.Glob(filepath.Join(cfg.ExportDir, "export-*.json.gz"))
	if err != nil {
		return err
	}
	if len(matches) <= cfg.KeepExports {
		log.Printf("Fewer than %d exports present, no rotation needed.", cfg.KeepExports)
		return nil
	}

	// File names carry the UTC timestamp, so name order is age order.
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))

	for _, path := range matches[cfg.KeepExports:] {
		log.Printf("Deleting old export: %s", path)
		if err := os.Remove(path); err != nil {
			log.Printf("Failed to delete %s: %v", path, err)
		}
	}
	return nil
}
