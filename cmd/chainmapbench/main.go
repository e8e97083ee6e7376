// Command chainmapbench runs workloads against chainmap, compares saved
// results and reports hash distribution quality.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/theflywheel/chainmap/internal/bench"
	"github.com/theflywheel/chainmap/internal/ladder"
)

func main() {
	if err := makeRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("chainmapbench failed")
		os.Exit(1)
	}
}

func makeRootCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "chainmapbench [command] (flags)",
		Short: "chainmapbench measures the chainmap hash table.",
		Long: `chainmapbench measures the chainmap hash table. Use it to:

- run an insert / lookup / remove workload and save the metrics as JSON,
- compare two saved result files and fail on significant regressions,
- inspect how evenly keys spread over buckets for several hash functions.

Every flag can also be set with a CHAINMAP_ environment variable, for example
CHAINMAP_KEYS=1000000.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger(viper.GetString("log_level"))
		},
	}
	command.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	mustBind("log_level", command.PersistentFlags().Lookup("log-level"))

	viper.SetEnvPrefix("CHAINMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	command.AddCommand(makeRunCommand())
	command.AddCommand(makeCompareCommand())
	command.AddCommand(makeHashDistCommand())
	return command
}

func initLogger(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"})
	return nil
}

func makeRunCommand() *cobra.Command {
	def := bench.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a workload against chainmap or a baseline store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg bench.Config
			if err := viper.Unmarshal(&cfg); err != nil {
				return errors.Wrap(err, "load config")
			}
			return runWorkload(cfg)
		},
	}

	flags := cmd.Flags()
	flags.Int("keys", def.Keys, "number of keys to insert")
	flags.Int("key-len", def.KeyLen, "key length in bytes")
	flags.Int("value-size", def.ValueSize, "value size in bytes")
	flags.Int("lookup-sample", def.LookupSample, "number of random lookups")
	flags.Float64("remove-fraction", def.RemoveFraction, "fraction of keys removed after verification")
	flags.Int64("seed", def.Seed, "random lookup seed")
	flags.String("baseline", def.Baseline, "run against a baseline store instead (freecache)")
	flags.Int("cache-mb", def.CacheMB, "freecache size in MiB")
	flags.String("output", def.Output, "append results to this JSON file")

	for _, name := range []string{
		"keys", "key-len", "value-size", "lookup-sample", "remove-fraction",
		"seed", "baseline", "cache-mb", "output",
	} {
		mustBind(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name))
	}
	return cmd
}

func runWorkload(cfg bench.Config) error {
	logger := log.Logger.With().Str("component", "workload").Logger()

	w, err := bench.NewWorkload(cfg, logger)
	if err != nil {
		return err
	}
	store, err := bench.NewStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing store")
		}
	}()

	logger.Info().
		Str("store", store.Name()).
		Int("keys", cfg.Keys).
		Int("value_size", cfg.ValueSize).
		Msg("starting workload")

	m, err := w.Run(store)
	if err != nil {
		return err
	}

	ev := logger.Info().Str("name", m.Name).Float64("ns_per_op", m.NsPerOp)
	for k, v := range m.Metrics {
		ev = ev.Float64(k, v)
	}
	ev.Msg("workload complete")

	if cfg.Output == "" {
		return nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "get working directory")
	}
	if err := bench.Save(cfg.Output, wd, m); err != nil {
		return err
	}
	logger.Info().Str("path", cfg.Output).Msg("results saved")
	return nil
}

func makeCompareCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "compare <base.json> <current.json>",
		Short: "Compare two result files and fail on significant regressions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := bench.Load(args[0])
			if err != nil {
				return err
			}
			current, err := bench.Load(args[1])
			if err != nil {
				return err
			}

			s := bench.Compare(base, current)
			bench.WriteReport(cmd.OutOrStdout(), s)

			if output != "" {
				if err := writeJSON(output, s); err != nil {
					return err
				}
			}
			if s.SignificantRegressions > 0 {
				return errors.Newf("%d significant regressions", s.SignificantRegressions)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "also write the comparison as JSON to this file")
	return cmd
}

func makeHashDistCommand() *cobra.Command {
	var (
		keys     int
		capacity int
		prefix   string
	)
	cmd := &cobra.Command{
		Use:   "hashdist",
		Short: "Show bucket chain lengths for each hash function",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keys <= 0 {
				return errors.Newf("keys must be positive, got %d", keys)
			}
			if capacity <= 0 {
				// Pick the size the map would settle at for this many keys.
				capacity = ladder.Floor()
				for keys > (3*capacity+3)/4 && capacity < ladder.Max() {
					next, err := ladder.Grow(capacity)
					if err != nil {
						return err
					}
					capacity = next
				}
			}

			data := make([][]byte, keys)
			for i := range data {
				data[i] = []byte(fmt.Sprintf("%s%d", prefix, i))
			}
			for _, h := range bench.Hashers() {
				bench.WriteDistribution(cmd.OutOrStdout(), bench.Distribute(h, data, capacity))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&keys, "keys", 100_000, "number of keys")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "bucket count (default: the ladder size chosen for --keys)")
	cmd.Flags().StringVar(&prefix, "prefix", "key", "key prefix")
	return cmd
}
