package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/metrics"
)

const (
	configKey   = "config"
	metricsKey  = "metrics"
	shutdownKey = "metrics-shutdown"
	trackerKey  = "tracker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().RunContext(ctx, os.Args)
	stop()
	if err != nil {
		slog.Error("byblo failed", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "byblo",
		Usage:    "build a distributional thesaurus from (entry, feature) instances",
		Flags:    globalFlags(),
		Metadata: map[string]interface{}{},
		Before:   setup,
		After:    teardown,
		Commands: []*cli.Command{
			{
				Name:      "count",
				Usage:     "count entry, feature and event frequencies",
				Flags:     ioFlags("instances file", "output prefix"),
				Action: withPipeline(func(c *cli.Context, p *pipeline.Pipeline) error {
					_, err := p.Count(c.Context, c.String("input"), pipeline.FrequencyPaths(c.String("output")))
					return err
				}),
			},
			{
				Name:   "filter",
				Usage:  "drop rare entries and fold rare features into the filtered feature",
				Flags:  append(ioFlags("input prefix", "output prefix"), filterFlags()...),
				Before: overrides(applyFilterFlags),
				Action: withPipeline(func(c *cli.Context, p *pipeline.Pipeline) error {
					_, err := p.Filter(c.Context,
						pipeline.FrequencyPaths(c.String("input")),
						pipeline.FrequencyPaths(c.String("output")))
					return err
				}),
			},
			{
				Name:  "weight",
				Usage: "reweight the features of an events file",
				Flags: append(append(ioFlags("events file", "weighted events file"), weightingFlags()...),
					&cli.StringFlag{Name: "measure", Aliases: []string{"m"}, Usage: "measure whose expected weighting --auto-weighting applies"},
					featuresFlag(),
				),
				Before: overrides(applyWeightingFlags, func(c *cli.Context, cfg *config.Config) {
					if c.IsSet("measure") {
						cfg.AllPairs.Measure.Name = c.String("measure")
					}
				}),
				Action: withPipeline(func(c *cli.Context, p *pipeline.Pipeline) error {
					if err := useFeatures(c, p); err != nil {
						return err
					}
					_, err := p.Weight(c.Context, c.String("input"), c.String("output"))
					return err
				}),
			},
			{
				Name:   "allpairs",
				Usage:  "score all pairs of entries of an events file",
				Flags: append(append(append(ioFlags("events file", "similarities file"), measureFlags()...),
					filterFlags()...), featuresFlag()),
				Before: overrides(applyMeasureFlags, applyFilterFlags),
				Action: withPipeline(func(c *cli.Context, p *pipeline.Pipeline) error {
					if err := useFeatures(c, p); err != nil {
						return err
					}
					_, err := p.AllPairs(c.Context, c.String("input"), c.String("output"))
					return err
				}),
			},
			{
				Name:   "knn",
				Usage:  "keep the k nearest neighbours of every entry",
				Flags:  append(ioFlags("similarities file", "neighbours file"), knnFlags()...),
				Before: overrides(applyKnnFlags),
				Action: withPipeline(func(c *cli.Context, p *pipeline.Pipeline) error {
					_, err := p.Knn(c.Context, c.String("input"), c.String("output"))
					return err
				}),
			},
			{
				Name:  "sort",
				Usage: "sort a file of weighted pairs",
				Flags: append(ioFlags("pairs file", "sorted file"),
					&cli.BoolFlag{Name: "sims", Usage: "input holds similarities rather than events"},
					&cli.BoolFlag{Name: "by-string", Usage: "order by token strings instead of ids"},
					&cli.BoolFlag{Name: "reverse", Usage: "sort in descending order"},
				),
				Before: overrides(func(c *cli.Context, cfg *config.Config) {
					if c.IsSet("reverse") {
						cfg.Sort.Reverse = c.Bool("reverse")
					}
				}),
				Action: withPipeline(func(c *cli.Context, p *pipeline.Pipeline) error {
					_, err := p.SortPairs(c.Context, c.String("input"), c.String("output"), pipeline.SortOptions{
						Sims:     c.Bool("sims"),
						ByString: c.Bool("by-string"),
					})
					return err
				}),
			},
			{
				Name:  "build",
				Usage: "run count, filter, weight, allpairs and knn",
				Flags: append(append(append(append(ioFlags("instances file", "output prefix"),
					filterFlags()...), weightingFlags()...), measureFlags()...), knnFlags()...),
				Before: overrides(applyFilterFlags, applyWeightingFlags, applyMeasureFlags, applyKnnFlags),
				Action: withPipeline(func(c *cli.Context, p *pipeline.Pipeline) error {
					res, err := p.Build(c.Context, c.String("input"), c.String("output"))
					if err != nil {
						return err
					}
					slog.Info("thesaurus written",
						"run_id", res.RunID,
						"instances", res.Count.Instances,
						"pairs", res.Stats.Productions.Load(),
						"neighbours", res.Neighbours,
						"duration_ms", res.Duration.Milliseconds(),
					)
					return nil
				}),
			},
		},
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// setup loads the configuration, applies global flags, configures logging
// and starts the metrics server if enabled.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return apperrors.New(errors.Join(apperrors.ErrInvalidInput, err), apperrors.ExitUsage, "loading config")
	}
	applyGlobalFlags(c, cfg)
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	c.App.Metadata[configKey] = cfg

	if cfg.Metrics.Enabled {
		m := metrics.New(prometheus.NewRegistry())
		tracker := health.NewTracker()
		c.App.Metadata[metricsKey] = m
		c.App.Metadata[trackerKey] = tracker
		c.App.Metadata[shutdownKey] = metrics.StartServer(cfg.Metrics.Port, m, tracker.Handler())
	}
	return nil
}

func teardown(c *cli.Context) error {
	shutdown, ok := c.App.Metadata[shutdownKey].(func(context.Context) error)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return shutdown(ctx)
}

func configFrom(c *cli.Context) *config.Config {
	return c.App.Metadata[configKey].(*config.Config)
}

// overrides applies command flags to the loaded configuration.
func overrides(apply ...func(*cli.Context, *config.Config)) cli.BeforeFunc {
	return func(c *cli.Context) error {
		cfg := configFrom(c)
		for _, fn := range apply {
			fn(c, cfg)
		}
		return nil
	}
}

// useFeatures loads the --features file, if given.
func useFeatures(c *cli.Context, p *pipeline.Pipeline) error {
	if path := c.String("features"); path != "" {
		return p.UseFeatures(path)
	}
	return nil
}

// withPipeline opens a pipeline for one command and closes it afterwards.
func withPipeline(run func(*cli.Context, *pipeline.Pipeline) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		m, _ := c.App.Metadata[metricsKey].(*metrics.Metrics)
		tracker, _ := c.App.Metadata[trackerKey].(*health.Tracker)
		p, err := pipeline.New(c.Context, pipeline.Options{Config: configFrom(c), Metrics: m, Tracker: tracker})
		if err != nil {
			return err
		}
		slog.Info("command started", "command", c.Command.Name, "run_id", p.RunID())
		err = run(c, p)
		if cerr := p.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		return err
	}
}
