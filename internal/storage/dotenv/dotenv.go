package dotenv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/nkiryanov/clinicdesk/internal/apperrors"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

// File storage keeping entries as KEY="value" lines (dotenv format)
// Writes go to a temporary file first and then renamed over the old one
type Storage struct {
	path string
	mu   sync.Mutex
}

func New(path string) (*Storage, error) {
	if path == "" {
		return nil, errors.New("session file path must not be empty")
	}
	return &Storage{path: path}, nil
}

// DefaultPath returns session file location inside user config dir
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error while looking up config dir. Err: %w", err)
	}
	return filepath.Join(dir, "clinic", "session.env"), nil
}

func (s *Storage) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return "", err
	}

	value, ok := entries[key]
	if !ok {
		return "", apperrors.ErrKeyNotFound
	}
	return value, nil
}

func (s *Storage) Set(_ context.Context, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}

	for k, v := range entries {
		current[k] = v
	}

	return s.write(current)
}

// Delete keys. A file that can't be parsed is removed as a whole
func (s *Storage) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return fmt.Errorf("error while removing unreadable session file. Err: %w", errors.Join(err, rmErr))
		}
		return nil
	}

	changed := false
	for _, key := range keys {
		if _, ok := current[key]; ok {
			delete(current, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}

	return s.write(current)
}

// read returns empty map if file not exists yet
func (s *Storage) read() (map[string]string, error) {
	entries, err := godotenv.Read(s.path)

	switch {
	case err == nil:
		return entries, nil
	case errors.Is(err, os.ErrNotExist):
		return make(map[string]string), nil
	default:
		return nil, fmt.Errorf("error while reading session file. Err: %w", err)
	}
}

func (s *Storage) write(entries map[string]string) error {
	content := marshal(entries)

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("error while creating session dir. Err: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.env")
	if err != nil {
		return fmt.Errorf("error while creating temp file. Err: %w", err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error while writing session file. Err: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error while setting session file mode. Err: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error while closing session file. Err: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("error while replacing session file. Err: %w", err)
	}

	return nil
}

// marshal writes every value double quoted so godotenv.Read returns it byte for byte
// godotenv.Marshal writes integer-looking values bare and "007" reads back as "7"
func marshal(entries map[string]string) string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(quote(entries[k]))
		b.WriteString("\n")
	}
	return b.String()
}

func quote(value string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range value {
		switch r {
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\\', '"', '!', '$', '`':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
