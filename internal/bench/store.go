package bench

import (
	"github.com/cockroachdb/errors"
	"github.com/coocood/freecache"
	"github.com/rs/zerolog"

	"github.com/theflywheel/chainmap"
)

// Store is the surface a workload drives.
type Store interface {
	Name() string
	Put(key, value []byte) error
	// Get copies the value into out and reports whether the key was present.
	Get(key, out []byte) (bool, error)
	Remove(key []byte) (bool, error)
	Len() int
	// Exact reports whether the store never drops entries on its own.
	Exact() bool
	Close() error
}

// NewStore builds the store selected by cfg.Baseline.
func NewStore(cfg Config, logger zerolog.Logger) (Store, error) {
	switch cfg.Baseline {
	case BaselineNone:
		return newChainmapStore(cfg.ValueSize, logger)
	case BaselineFreecache:
		return newFreecacheStore(cfg.CacheMB), nil
	}
	return nil, errors.Newf("unknown baseline %q", cfg.Baseline)
}

type chainmapStore struct {
	fm      *chainmap.FixedMap
	scratch []byte
	resizes int
}

func newChainmapStore(valueSize int, logger zerolog.Logger) (*chainmapStore, error) {
	fm, err := chainmap.NewFixed(valueSize, chainmap.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &chainmapStore{fm: fm, scratch: make([]byte, valueSize)}, nil
}

func (s *chainmapStore) Name() string { return "chainmap" }
func (s *chainmapStore) Exact() bool  { return true }
func (s *chainmapStore) Len() int     { return s.fm.Len() }

func (s *chainmapStore) Put(key, value []byte) error {
	before := s.fm.Cap()
	err := s.fm.Put(key, value)
	if s.fm.Cap() != before {
		s.resizes++
	}
	return err
}

func (s *chainmapStore) Get(key, out []byte) (bool, error) {
	err := s.fm.Get(key, out)
	if errors.Is(err, chainmap.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *chainmapStore) Remove(key []byte) (bool, error) {
	before := s.fm.Cap()
	err := s.fm.Remove(key, s.scratch)
	if s.fm.Cap() != before {
		s.resizes++
	}
	if errors.Is(err, chainmap.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *chainmapStore) Close() error {
	return s.fm.Free()
}

// stats adds table shape metrics to m.
func (s *chainmapStore) stats(prefix string, m map[string]float64) {
	st := s.fm.Stats()
	m[prefix+"capacity"] = float64(st.Capacity)
	m[prefix+"load_factor"] = st.LoadFactor
	m[prefix+"longest_chain"] = float64(st.LongestChain)
	m[prefix+"used_buckets"] = float64(st.UsedBuckets)
	m["resizes"] = float64(s.resizes)
}

type freecacheStore struct {
	c *freecache.Cache
}

func newFreecacheStore(cacheMB int) *freecacheStore {
	return &freecacheStore{c: freecache.NewCache(cacheMB * 1024 * 1024)}
}

func (s *freecacheStore) Name() string { return "freecache" }
func (s *freecacheStore) Exact() bool  { return false }
func (s *freecacheStore) Len() int     { return int(s.c.EntryCount()) }

func (s *freecacheStore) Put(key, value []byte) error {
	return s.c.Set(key, value, 0)
}

func (s *freecacheStore) Get(key, out []byte) (bool, error) {
	v, err := s.c.Get(key)
	if errors.Is(err, freecache.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	copy(out, v)
	return true, nil
}

func (s *freecacheStore) Remove(key []byte) (bool, error) {
	return s.c.Del(key), nil
}

func (s *freecacheStore) Close() error {
	s.c.Clear()
	return nil
}
