package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileStore keeps one file per key inside a data directory. Other
// processes sharing the directory are the "other tabs" of this design: an
// fsnotify watch on the directory is the native cross-context
// notification. Own writes are suppressed by comparing content hashes, so
// watchers only ever hear about external changes.
type FileStore struct {
	dir     string
	watcher *fsnotify.Watcher
	log     *zap.Logger

	mu       sync.Mutex
	lastHash map[string]string
	handlers []func(key string)

	done chan struct{}
}

// NewFileStore opens (creating if needed) the data directory and starts
// watching it.
func NewFileStore(dir string, log *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	fs := &FileStore{
		dir:      dir,
		watcher:  watcher,
		log:      log,
		lastHash: make(map[string]string),
		done:     make(chan struct{}),
	}

	// Seed hashes from whatever is already on disk so startup state does
	// not count as an external change.
	entries, _ := os.ReadDir(dir)
	for _, entry := range entries {
		key, ok := keyFromFile(entry.Name())
		if !ok {
			continue
		}
		if value, exists := fs.Get(key); exists {
			fs.lastHash[key] = hashValue(value)
		}
	}

	go fs.watchLoop()
	return fs, nil
}

func (f *FileStore) Get(key string) (string, bool) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Set replaces the whole value. The write goes through a temp file and a
// rename, so readers in other processes never observe a partial value.
func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	f.lastHash[key] = hashValue(value)
	f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, "."+key+"-*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path(key))
}

func (f *FileStore) Watch(fn func(key string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, fn)
}

func (f *FileStore) Close() error {
	close(f.done)
	return f.watcher.Close()
}

func (f *FileStore) watchLoop() {
	for {
		select {
		case <-f.done:
			return
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			key, valid := keyFromFile(filepath.Base(event.Name))
			if !valid {
				continue
			}
			f.dispatch(key)
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.log.Warn("store watch error", zap.Error(err))
		}
	}
}

// dispatch notifies handlers about key unless the current on-disk content
// is something this process wrote itself.
func (f *FileStore) dispatch(key string) {
	value, exists := f.Get(key)
	if !exists {
		return
	}
	hash := hashValue(value)

	f.mu.Lock()
	if f.lastHash[key] == hash {
		f.mu.Unlock()
		return
	}
	f.lastHash[key] = hash
	handlers := make([]func(string), len(f.handlers))
	copy(handlers, f.handlers)
	f.mu.Unlock()

	f.log.Debug("external store change", zap.String("key", key))
	for _, fn := range handlers {
		fn(key)
	}
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func keyFromFile(name string) (string, bool) {
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
		return "", false
	}
	return strings.TrimSuffix(name, ".json"), true
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
