package bench

import (
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/theflywheel/chainmap"
)

// Config describes one workload run. Field tags are the viper keys.
type Config struct {
	Keys           int     `mapstructure:"keys"`
	KeyLen         int     `mapstructure:"key_len"`
	ValueSize      int     `mapstructure:"value_size"`
	LookupSample   int     `mapstructure:"lookup_sample"`
	RemoveFraction float64 `mapstructure:"remove_fraction"`
	Seed           int64   `mapstructure:"seed"`
	Baseline       string  `mapstructure:"baseline"`
	CacheMB        int     `mapstructure:"cache_mb"`
	Output         string  `mapstructure:"output"`
	LogLevel       string  `mapstructure:"log_level"`
}

const (
	BaselineNone      = ""
	BaselineFreecache = "freecache"
)

func DefaultConfig() Config {
	return Config{
		Keys:           100_000,
		KeyLen:         16,
		ValueSize:      8,
		LookupSample:   10_000,
		RemoveFraction: 0.9,
		Seed:           1,
		CacheMB:        256,
		LogLevel:       "info",
	}
}

// Validate checks that keys of KeyLen bytes can hold every key index.
func (c Config) Validate() error {
	if c.Keys <= 0 {
		return errors.Newf("keys must be positive, got %d", c.Keys)
	}
	if digits := len(strconv.Itoa(c.Keys - 1)); c.KeyLen < digits {
		return errors.Newf("key_len %d cannot hold %d keys (need %d)", c.KeyLen, c.Keys, digits)
	}
	if c.KeyLen > chainmap.MaxKeyLen {
		return errors.Newf("key_len %d exceeds %d", c.KeyLen, chainmap.MaxKeyLen)
	}
	if c.ValueSize < 0 {
		return errors.Newf("value_size must not be negative, got %d", c.ValueSize)
	}
	if c.RemoveFraction < 0 || c.RemoveFraction > 1 {
		return errors.Newf("remove_fraction must be in [0, 1], got %g", c.RemoveFraction)
	}
	if c.LookupSample < 0 {
		return errors.Newf("lookup_sample must not be negative, got %d", c.LookupSample)
	}
	switch c.Baseline {
	case BaselineNone, BaselineFreecache:
	default:
		return errors.Newf("unknown baseline %q", c.Baseline)
	}
	if c.Baseline == BaselineFreecache && c.CacheMB <= 0 {
		return errors.Newf("cache_mb must be positive for the freecache baseline, got %d", c.CacheMB)
	}
	return nil
}
