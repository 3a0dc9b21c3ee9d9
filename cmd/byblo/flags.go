package main

import (
	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/config"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to a YAML config file",
			EnvVars: []string{"BYBLO_CONFIG"},
		},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		&cli.StringFlag{Name: "log-format", Usage: "text or json"},
		&cli.IntFlag{Name: "threads", Aliases: []string{"t"}, Usage: "worker threads for sorting and all-pairs"},
		&cli.IntFlag{Name: "chunk-size", Usage: "records per sort chunk"},
		&cli.StringFlag{Name: "temp-dir", Usage: "directory for temporary run files"},
		&cli.BoolFlag{Name: "keep-temp", Usage: "keep temporary run files"},
		&cli.BoolFlag{Name: "compress", Usage: "snappy-compress temporary run files"},
		&cli.StringFlag{Name: "enumerator", Usage: "enumerator backend: memory, bolt, postgres or redis"},
		&cli.StringFlag{Name: "enumerator-path", Usage: "path prefix of file-backed enumerators"},
		&cli.BoolFlag{Name: "enumerated", Usage: "files hold numeric ids instead of strings"},
		&cli.BoolFlag{Name: "metrics", Usage: "serve Prometheus metrics while running"},
		&cli.IntFlag{Name: "metrics-port", Usage: "port of the metrics server"},
	}
}

func applyGlobalFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Logging.Format = c.String("log-format")
	}
	if c.IsSet("threads") {
		cfg.Sort.Threads = c.Int("threads")
		cfg.Sort.MaxInFlight = cfg.Sort.Threads * 2
		cfg.AllPairs.Threads = c.Int("threads")
	}
	if c.IsSet("chunk-size") {
		cfg.Sort.ChunkSize = c.Int("chunk-size")
	}
	if c.IsSet("temp-dir") {
		cfg.Sort.TempDir = c.String("temp-dir")
	}
	if c.IsSet("keep-temp") {
		cfg.Sort.KeepTempFiles = c.Bool("keep-temp")
	}
	if c.IsSet("compress") {
		cfg.Sort.Compress = c.Bool("compress")
	}
	if c.IsSet("enumerator") {
		cfg.Enumerator.Type = c.String("enumerator")
	}
	if c.IsSet("enumerator-path") {
		cfg.Enumerator.Path = c.String("enumerator-path")
	}
	if c.IsSet("enumerated") {
		cfg.Enumerator.Enumerated = c.Bool("enumerated")
	}
	if c.IsSet("metrics") {
		cfg.Metrics.Enabled = c.Bool("metrics")
	}
	if c.IsSet("metrics-port") {
		cfg.Metrics.Port = c.Int("metrics-port")
	}
}

func ioFlags(input, output string) []cli.Flag {
	return []cli.Flag{
		&cli.PathFlag{Name: "input", Aliases: []string{"i"}, Usage: input, Required: true},
		&cli.PathFlag{Name: "output", Aliases: []string{"o"}, Usage: output, Required: true},
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{Name: "min-entry-freq", Usage: "drop entries rarer than this"},
		&cli.Float64Flag{Name: "min-feature-freq", Usage: "fold features rarer than this into the filtered feature"},
		&cli.StringFlag{Name: "filtered-feature", Usage: "name of the feature rare features are folded into"},
	}
}

func applyFilterFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("min-entry-freq") {
		cfg.Filter.MinEntryFreq = c.Float64("min-entry-freq")
	}
	if c.IsSet("min-feature-freq") {
		cfg.Filter.MinFeatureFreq = c.Float64("min-feature-freq")
	}
	if c.IsSet("filtered-feature") {
		cfg.Filter.FilteredFeature = c.String("filtered-feature")
	}
}

func measureFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "measure", Aliases: []string{"m"}, Usage: "proximity measure"},
		&cli.BoolFlag{Name: "reversed", Usage: "swap the arguments of the measure"},
		&cli.Float64Flag{Name: "p", Usage: "exponent of the lp measure"},
		&cli.Float64Flag{Name: "alpha", Usage: "skew of the lee measure"},
		&cli.Float64Flag{Name: "beta", Usage: "precision weight of the weeds measure"},
		&cli.Float64Flag{Name: "gamma", Usage: "harmonic mean weight of the weeds measure"},
		&cli.Float64Flag{Name: "lambda", Usage: "weight of the first vector in the lambda divergence"},
		&cli.IntFlag{Name: "min-cardinality", Usage: "smallest feature space of the tau measure"},
		&cli.StringFlag{Name: "algorithm", Usage: "naive, inverted or threaded"},
		&cli.StringFlag{Name: "inner", Usage: "per-chunk algorithm of the threaded engine"},
		&cli.IntFlag{Name: "vector-chunk-size", Usage: "vectors per chunk of the threaded engine"},
		&cli.Float64Flag{Name: "min-similarity", Usage: "drop pairs scoring below this"},
		&cli.Float64Flag{Name: "max-similarity", Usage: "drop pairs scoring above this"},
		&cli.BoolFlag{Name: "identity-pairs", Usage: "also score entries against themselves"},
		&cli.BoolFlag{Name: "approximate", Usage: "only score pairs sharing a feature"},
	}
}

func applyMeasureFlags(c *cli.Context, cfg *config.Config) {
	ap := &cfg.AllPairs
	if c.IsSet("measure") {
		ap.Measure.Name = c.String("measure")
	}
	if c.IsSet("reversed") {
		ap.Measure.Reversed = c.Bool("reversed")
	}
	if c.IsSet("p") {
		ap.Measure.P = c.Float64("p")
	}
	if c.IsSet("alpha") {
		ap.Measure.Alpha = c.Float64("alpha")
	}
	if c.IsSet("beta") {
		ap.Measure.Beta = c.Float64("beta")
	}
	if c.IsSet("gamma") {
		ap.Measure.Gamma = c.Float64("gamma")
	}
	if c.IsSet("lambda") {
		ap.Measure.Lambda = c.Float64("lambda")
	}
	if c.IsSet("min-cardinality") {
		ap.Measure.MinCardinality = c.Int("min-cardinality")
	}
	if c.IsSet("algorithm") {
		ap.Algorithm = c.String("algorithm")
	}
	if c.IsSet("inner") {
		ap.Inner = c.String("inner")
	}
	if c.IsSet("vector-chunk-size") {
		ap.ChunkSize = c.Int("vector-chunk-size")
	}
	if c.IsSet("min-similarity") {
		ap.MinSimilarity = c.Float64("min-similarity")
	}
	if c.IsSet("max-similarity") {
		ap.MaxSimilarity = c.Float64("max-similarity")
	}
	if c.IsSet("identity-pairs") {
		ap.IdentityPairs = c.Bool("identity-pairs")
	}
	if c.IsSet("approximate") {
		ap.Approximate = c.Bool("approximate")
	}
}

func knnFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "k", Usage: "neighbours kept per entry"},
	}
}

func applyKnnFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("k") {
		cfg.Knn.K = c.Int("k")
	}
}

func weightingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "weighting", Aliases: []string{"w"}, Usage: "feature weighting scheme"},
		&cli.Float64Flag{Name: "weighting-factor", Usage: "factor of the constant weighting"},
		&cli.BoolFlag{Name: "auto-weighting", Usage: "also apply the weighting the measure expects"},
	}
}

func applyWeightingFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("weighting") {
		cfg.Weighting.Scheme = c.String("weighting")
	}
	if c.IsSet("weighting-factor") {
		cfg.Weighting.Factor = c.Float64("weighting-factor")
	}
	if c.IsSet("auto-weighting") {
		cfg.Weighting.Auto = c.Bool("auto-weighting")
	}
}

// featuresFlag names the features file contextual schemes and measures read
// corpus frequencies from.
func featuresFlag() cli.Flag {
	return &cli.PathFlag{Name: "features", Usage: "features file with corpus frequencies"}
}
