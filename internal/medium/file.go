package medium

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

const keySuffix = ".json"

// envelope is the on-disk form of one key. Writer and Seq let a handle
// recognise its own writes and collapse duplicate watcher events.
type envelope struct {
	Writer string `json:"writer"`
	Seq    uint64 `json:"seq"`
	Value  string `json:"value"`
}

type mark struct {
	writer string
	seq    uint64
}

// File is a directory-backed medium. Every process that opens the same
// directory shares the same keys; an fsnotify watcher on the directory
// delivers other processes' writes.
type File struct {
	dir     string
	writer  string
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	mu   sync.Mutex
	seq  uint64
	subs subscriptions
	seen map[string]mark
}

var (
	_ Medium  = (*File)(nil)
	_ Clearer = (*File)(nil)
)

// NewFile opens the medium stored in dir, creating the directory if needed,
// and starts watching it for writes by other processes.
func NewFile(dir string, logger *slog.Logger) (*File, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create medium dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create medium watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch medium dir %s: %w", dir, err)
	}

	f := &File{
		dir:     dir,
		writer:  uuid.NewString(),
		logger:  logger,
		watcher: watcher,
		done:    make(chan struct{}),
		seen:    make(map[string]mark),
	}

	f.wg.Add(1)
	go f.watch()

	return f, nil
}

// Dir returns the backing directory.
func (f *File) Dir() string {
	return f.dir
}

// Read returns the value stored under key. A file that is not a valid
// envelope is returned verbatim, leaving interpretation to the caller.
func (f *File) Read(key string) (string, bool, error) {
	path, err := f.keyPath(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	if env, ok := decodeEnvelope(data); ok {
		return env.Value, true, nil
	}
	return string(data), true, nil
}

// Write replaces key atomically with value.
func (f *File) Write(key, value string) error {
	path, err := f.keyPath(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.seq++
	env := envelope{Writer: f.writer, Seq: f.seq, Value: value}
	f.mu.Unlock()

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode key %q: %w", key, err)
	}

	tmp, err := os.CreateTemp(f.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for key %q: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace key %q: %w", key, err)
	}
	return nil
}

// Subscribe registers h for writes to key made by other processes.
func (f *File) Subscribe(key string, h Handler) func() {
	f.mu.Lock()
	id := f.subs.add(key, h)
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		f.subs.remove(key, id)
		f.mu.Unlock()
	}
}

// Clear removes every key file in the medium directory.
func (f *File) Clear() error {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to list medium dir: %w", err)
	}
	for _, entry := range entries {
		if _, ok := keyFromName(entry.Name()); !ok || entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
	}

	f.mu.Lock()
	f.seen = make(map[string]mark)
	f.mu.Unlock()
	return nil
}

// Close stops the watcher. Safe to call more than once.
func (f *File) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.done)
		err = f.watcher.Close()
		f.wg.Wait()
	})
	return err
}

func (f *File) watch() {
	defer f.wg.Done()
	for {
		select {
		case <-f.done:
			return
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			key, ok := keyFromName(filepath.Base(ev.Name))
			if !ok {
				continue
			}
			f.dispatch(key)
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn("medium watcher error", "dir", f.dir, "error", err)
		}
	}
}

func (f *File) dispatch(key string) {
	data, err := os.ReadFile(filepath.Join(f.dir, key+keySuffix))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("failed to read changed key", "key", key, "error", err)
		}
		return
	}

	value := string(data)
	var m mark
	if env, ok := decodeEnvelope(data); ok {
		if env.Writer == f.writer {
			return
		}
		value = env.Value
		m = mark{writer: env.Writer, seq: env.Seq}
	}

	f.mu.Lock()
	if m.writer != "" && f.seen[key] == m {
		f.mu.Unlock()
		return
	}
	f.seen[key] = m
	handlers := f.subs.forKey(key)
	f.mu.Unlock()

	for _, h := range handlers {
		h(value)
	}
}

func (f *File) keyPath(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, key+keySuffix), nil
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("medium key is required")
	}
	if strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") || key != filepath.Base(key) {
		return fmt.Errorf("invalid medium key %q", key)
	}
	return nil
}

// keyFromName maps a directory entry back to its key, skipping temp files.
func keyFromName(name string) (string, bool) {
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, keySuffix) {
		return "", false
	}
	key := strings.TrimSuffix(name, keySuffix)
	if key == "" {
		return "", false
	}
	return key, true
}

func decodeEnvelope(data []byte) (envelope, bool) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, false
	}
	if env.Writer == "" {
		return envelope{}, false
	}
	return env, true
}
