package bench

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Workload inserts cfg.Keys keys, looks up a random sample, verifies every
// key sequentially, then removes a fraction and verifies the survivors.
type Workload struct {
	cfg    Config
	logger zerolog.Logger
}

func NewWorkload(cfg Config, logger zerolog.Logger) (*Workload, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Workload{cfg: cfg, logger: logger}, nil
}

func (w *Workload) key(i int) []byte {
	return []byte(fmt.Sprintf("%0*d", w.cfg.KeyLen, i))
}

// value fills a value buffer derived from the key index.
func (w *Workload) value(i int, buf []byte) {
	var word [8]byte
	binary.LittleEndian.PutUint64(word[:], uint64(i)*2654435761)
	for j := range buf {
		buf[j] = word[j%8]
	}
}

// Run drives s through every phase and returns the collected metrics.
func (w *Workload) Run(s Store) (Metrics, error) {
	cfg := w.cfg
	metrics := Metrics{
		Name:       fmt.Sprintf("%s/%dkeys/%dB", s.Name(), cfg.Keys, cfg.ValueSize),
		Category:   "workload",
		Operations: cfg.Keys,
		Metrics:    make(map[string]float64),
	}
	cm, _ := s.(*chainmapStore)

	value := make([]byte, cfg.ValueSize)
	out := make([]byte, cfg.ValueSize)
	progressInterval := cfg.Keys / 10
	if progressInterval == 0 {
		progressInterval = 1
	}

	// Insert
	writeStart := time.Now()
	for i := 0; i < cfg.Keys; i++ {
		w.value(i, value)
		if err := s.Put(w.key(i), value); err != nil {
			return metrics, errors.Wrapf(err, "insert key %d", i)
		}
		if (i+1)%progressInterval == 0 {
			w.logger.Debug().Int("inserted", i+1).Msg("insert progress")
		}
	}
	writeTime := time.Since(writeStart)
	metrics.Metrics["insertion_rate"] = rate(cfg.Keys, writeTime)
	if cm != nil {
		cm.stats("after_insert_", metrics.Metrics)
	}
	w.logger.Info().
		Int("keys", cfg.Keys).
		Dur("elapsed", writeTime).
		Msg("insert phase done")

	// Random lookups
	rng := rand.New(rand.NewSource(cfg.Seed))
	misses := 0
	randomStart := time.Now()
	for i := 0; i < cfg.LookupSample; i++ {
		id := rng.Intn(cfg.Keys)
		found, err := s.Get(w.key(id), out)
		if err != nil {
			return metrics, errors.Wrapf(err, "lookup key %d", id)
		}
		if !found {
			misses++
		}
	}
	randomTime := time.Since(randomStart)
	metrics.Metrics["random_lookup_rate"] = rate(cfg.LookupSample, randomTime)

	// Sequential verification
	seqStart := time.Now()
	for i := 0; i < cfg.Keys; i++ {
		found, err := s.Get(w.key(i), out)
		if err != nil {
			return metrics, errors.Wrapf(err, "verify key %d", i)
		}
		if !found {
			misses++
			continue
		}
		w.value(i, value)
		if !bytes.Equal(value, out) {
			return metrics, errors.Newf("value mismatch for key %d", i)
		}
	}
	seqTime := time.Since(seqStart)
	metrics.Metrics["sequential_lookup_rate"] = rate(cfg.Keys, seqTime)

	// Removal
	toRemove := int(float64(cfg.Keys) * cfg.RemoveFraction)
	removeStart := time.Now()
	for i := 0; i < toRemove; i++ {
		found, err := s.Remove(w.key(i))
		if err != nil {
			return metrics, errors.Wrapf(err, "remove key %d", i)
		}
		if !found {
			misses++
		}
	}
	removeTime := time.Since(removeStart)
	metrics.Metrics["removal_rate"] = rate(toRemove, removeTime)
	if cm != nil {
		cm.stats("after_remove_", metrics.Metrics)
	}

	for i := toRemove; i < cfg.Keys; i++ {
		found, err := s.Get(w.key(i), out)
		if err != nil {
			return metrics, errors.Wrapf(err, "verify survivor %d", i)
		}
		if !found {
			misses++
		}
	}

	metrics.Metrics["misses"] = float64(misses)
	metrics.Metrics["final_len"] = float64(s.Len())
	metrics.NsPerOp = float64((writeTime + randomTime + seqTime + removeTime).Nanoseconds()) /
		float64(cfg.Keys*2+cfg.LookupSample+toRemove)

	if s.Exact() {
		if misses > 0 {
			return metrics, errors.Newf("%s lost %d keys", s.Name(), misses)
		}
		if want := cfg.Keys - toRemove; s.Len() != want {
			return metrics, errors.Newf("%s holds %d entries, want %d", s.Name(), s.Len(), want)
		}
	} else if misses > 0 {
		w.logger.Warn().Int("misses", misses).Str("store", s.Name()).Msg("baseline dropped entries")
	}
	return metrics, nil
}

func rate(ops int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(ops) / d.Seconds()
}
