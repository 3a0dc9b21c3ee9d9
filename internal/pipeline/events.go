package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/kafka"
)

// Stage names used in logs, metrics and events.
const (
	StageCount    = "count"
	StageFilter   = "filter"
	StageWeight   = "weight"
	StageAllPairs = "allpairs"
	StageKnn      = "knn"
	StageSort     = "sort"
)

// StageEvent is published when a stage has written its outputs.
type StageEvent struct {
	RunID      string    `json:"run_id"`
	Stage      string    `json:"stage"`
	Output     string    `json:"output"`
	Records    int64     `json:"records"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Notifier receives stage events.
type Notifier interface {
	Notify(ctx context.Context, ev StageEvent) error
	Close() error
}

// NewNotifier publishes to cfg.StageEvents when Kafka is enabled and
// discards events otherwise.
func NewNotifier(cfg config.KafkaConfig) Notifier {
	if !cfg.Enabled {
		return nopNotifier{}
	}
	return NewKafkaNotifier(kafka.NewProducer(cfg, cfg.StageEvents))
}

// KafkaNotifier publishes events keyed by run id, so one build's events stay
// on one partition in order.
type KafkaNotifier struct {
	producer *kafka.Producer
}

func NewKafkaNotifier(p *kafka.Producer) *KafkaNotifier {
	return &KafkaNotifier{producer: p}
}

func (n *KafkaNotifier) Notify(ctx context.Context, ev StageEvent) error {
	return n.producer.Publish(ctx, kafka.Event{Key: ev.RunID, Value: ev})
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, StageEvent) error { return nil }
func (nopNotifier) Close() error                              { return nil }

// notify never fails a build; a lost event is only logged.
func notify(ctx context.Context, n Notifier, ev StageEvent, logger *slog.Logger) {
	if err := n.Notify(ctx, ev); err != nil {
		logger.Warn("stage event not published",
			"stage", ev.Stage,
			"error", err,
		)
	}
}
