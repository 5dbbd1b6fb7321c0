package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/comalice/procession/internal/core"
	"github.com/comalice/procession/internal/primitives"
)

// DefaultLockTimeout bounds how long a persister waits for the directory lock.
const DefaultLockTimeout = 2 * time.Second

const lockFileName = ".procession.lock"

// codec turns a GameRecord into bytes and back.
type codec struct {
	ext       string
	marshal   func(GameRecord) ([]byte, error)
	unmarshal func([]byte, *GameRecord) error
}

var jsonCodec = codec{
	ext: ".json",
	marshal: func(rec GameRecord) ([]byte, error) {
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("json marshal: %w", err)
		}
		return data, nil
	},
	unmarshal: func(data []byte, rec *GameRecord) error {
		if err := json.Unmarshal(data, rec); err != nil {
			return fmt.Errorf("json unmarshal: %w", err)
		}
		return nil
	},
}

var yamlCodec = codec{
	ext: ".yaml",
	marshal: func(rec GameRecord) ([]byte, error) {
		data, err := yaml.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("yaml marshal: %w", err)
		}
		return data, nil
	},
	unmarshal: func(data []byte, rec *GameRecord) error {
		if err := yaml.Unmarshal(data, rec); err != nil {
			return fmt.Errorf("yaml unmarshal: %w", err)
		}
		return nil
	},
}

// fileStore keeps one file per save slot in dir. Every operation holds an
// advisory lock on dir so that a CLI and a viewer sharing a save directory do
// not interleave writes.
type fileStore struct {
	dir         string
	lockTimeout time.Duration
	codec       codec
}

// StoreOption configures a persister.
type StoreOption func(*fileStore)

// WithLockTimeout sets how long Save, Load and Delete wait for the lock.
func WithLockTimeout(d time.Duration) StoreOption {
	return func(s *fileStore) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

func newFileStore(dir string, c codec, opts ...StoreOption) (*fileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	s := &fileStore{dir: dir, lockTimeout: DefaultLockTimeout, codec: c}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the directory holding the save files.
func (s *fileStore) Dir() string { return s.dir }

func (s *fileStore) path(id string) string {
	return filepath.Join(s.dir, id+s.codec.ext)
}

func (s *fileStore) withLock(ctx context.Context, fn func() error) error {
	lock := flock.New(filepath.Join(s.dir, lockFileName))
	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock %s: %w", s.dir, err)
	}
	if !locked {
		return fmt.Errorf("lock %s: held by another process", s.dir)
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: invalid save id %q", primitives.ErrValidation, id)
	}
	return nil
}

func (s *fileStore) Save(ctx context.Context, snap core.GameSnapshot) error {
	if err := validID(snap.ID); err != nil {
		return err
	}
	data, err := s.codec.marshal(NewGameRecord(snap))
	if err != nil {
		return err
	}
	return s.withLock(ctx, func() error {
		fn := s.path(snap.ID)
		tmp, err := os.CreateTemp(s.dir, snap.ID+".*.tmp")
		if err != nil {
			return fmt.Errorf("create temp for %s: %w", fn, err)
		}
		defer func() { _ = os.Remove(tmp.Name()) }()
		if _, err := tmp.Write(data); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write %s: %w", fn, err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("write %s: %w", fn, err)
		}
		if err := os.Rename(tmp.Name(), fn); err != nil {
			return fmt.Errorf("write %s: %w", fn, err)
		}
		return nil
	})
}

func (s *fileStore) Load(ctx context.Context, id string) (core.GameSnapshot, error) {
	if err := validID(id); err != nil {
		return core.GameSnapshot{}, err
	}
	var data []byte
	err := s.withLock(ctx, func() error {
		fn := s.path(id)
		var err error
		data, err = os.ReadFile(fn)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("save %q: %w", id, os.ErrNotExist)
			}
			return fmt.Errorf("read %s: %w", fn, err)
		}
		return nil
	})
	if err != nil {
		return core.GameSnapshot{}, err
	}

	var rec GameRecord
	if err := s.codec.unmarshal(data, &rec); err != nil {
		return core.GameSnapshot{}, fmt.Errorf("%w: %v", primitives.ErrValidation, err)
	}
	rec.ID = id
	snap, err := rec.Snapshot()
	if err != nil {
		return core.GameSnapshot{}, fmt.Errorf("save %q: %w", id, err)
	}
	return snap, nil
}

func (s *fileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", s.dir, err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, s.codec.ext) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, s.codec.ext))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *fileStore) Delete(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	return s.withLock(ctx, func() error {
		fn := s.path(id)
		if err := os.Remove(fn); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("save %q: %w", id, os.ErrNotExist)
			}
			return fmt.Errorf("remove %s: %w", fn, err)
		}
		return nil
	})
}

// JSONPersister is a file-based store using JSON serialization.
type JSONPersister struct {
	*fileStore
}

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister(dir string, opts ...StoreOption) (*JSONPersister, error) {
	s, err := newFileStore(dir, jsonCodec, opts...)
	if err != nil {
		return nil, err
	}
	return &JSONPersister{s}, nil
}

// YAMLPersister is a file-based store using YAML serialization.
type YAMLPersister struct {
	*fileStore
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister(dir string, opts ...StoreOption) (*YAMLPersister, error) {
	s, err := newFileStore(dir, yamlCodec, opts...)
	if err != nil {
		return nil, err
	}
	return &YAMLPersister{s}, nil
}

// NewStore picks a persister by format name ("json" or "yaml").
func NewStore(format, dir string, opts ...StoreOption) (core.Store, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return NewJSONPersister(dir, opts...)
	case "yaml", "yml":
		return NewYAMLPersister(dir, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown storage format %q", primitives.ErrValidation, format)
	}
}

var (
	_ core.Store = (*JSONPersister)(nil)
	_ core.Store = (*YAMLPersister)(nil)
)
