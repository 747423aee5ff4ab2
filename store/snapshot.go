package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/insidebooks/ibpcheck/types"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

/*
SnapshotStore keeps every entry in one msgpack file. Each write rewrites the file through a
temp file and a rename, so a crash leaves either the old or the new snapshot.
*/
type SnapshotStore struct {
	path string

	mu   sync.Mutex
	rows map[string]row
}

func NewSnapshotStore(path string) (*SnapshotStore, error) {
	if path == "" {
		return nil, errors.New("snapshot store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "snapshot store: create directory")
	}

	s := &SnapshotStore{path: path, rows: make(map[string]row)}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, errors.Wrapf(err, "snapshot store: read %s", path)
	}
	if len(data) > 0 {
		if err := msgpack.Unmarshal(data, &s.rows); err != nil {
			return nil, errors.Wrapf(err, "snapshot store: decode %s", path)
		}
	}
	return s, nil
}

func (s *SnapshotStore) Save(_ context.Context, ent *types.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[ent.Key] = toRow(ent)
	return s.flush()
}

func (s *SnapshotStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[key]; !ok {
		return nil
	}
	delete(s.rows, key)
	return s.flush()
}

func (s *SnapshotStore) LoadAll(_ context.Context) ([]*types.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.CacheEntry, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r.entry())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *SnapshotStore) Close() error { return nil }

// flush must be called with mu held.
func (s *SnapshotStore) flush() error {
	data, err := msgpack.Marshal(s.rows)
	if err != nil {
		return errors.Wrap(err, "snapshot store: encode")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "snapshot store: create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "snapshot store: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "snapshot store: close temp file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "snapshot store: replace snapshot")
}
