// Package enumerator maps token strings to dense integer ids and back. Ids
// start at 0 and are assigned in first-seen order; a string keeps its id for
// the lifetime of the store. All backends are safe for concurrent use.
package enumerator

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/resilience"
)

// Enumerator interns strings.
type Enumerator interface {
	// IDOf returns the id of s, assigning the next free id if s is new.
	IDOf(s string) (int32, error)
	// ValueOf returns the string with id, or an error wrapping
	// errors.ErrNotFound.
	ValueOf(id int32) (string, error)
	// Len returns the number of ids assigned.
	Len() (int, error)
	// Save persists the mapping where the backend needs it.
	Save() error
	Close() error
}

// Roles name the two token vocabularies of a build.
const (
	RoleEntries  = "entries"
	RoleFeatures = "features"
)

// Backends lists the accepted enumerator types.
var Backends = []string{"memory", "bolt", "postgres", "redis"}

// opTimeout bounds each round trip of the remote backends.
const opTimeout = 10 * time.Second

// Options select and locate a backend for one role.
type Options struct {
	Config   config.EnumeratorConfig
	Role     string
	Postgres config.PostgresConfig
	Redis    config.RedisConfig
	Metrics  *metrics.Metrics
}

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Open returns the backend configured in opts. Connections to postgres and
// redis are retried.
func Open(ctx context.Context, opts Options) (Enumerator, error) {
	role := opts.Role
	if !identifier.MatchString(role) {
		return nil, apperrors.InvalidInputf("bad enumerator role %q", role)
	}
	cfg := opts.Config
	switch strings.ToLower(cfg.Type) {
	case "", "memory":
		path := ""
		if cfg.Path != "" {
			path = fmt.Sprintf("%s.%s", cfg.Path, role)
		}
		return OpenMemory(path, role, opts.Metrics)
	case "bolt":
		path := cfg.Path
		if path == "" {
			path = filepath.Join(".", cfg.Namespace)
		}
		return OpenBolt(fmt.Sprintf("%s.%s.db", path, role), role, opts.Metrics)
	case "postgres":
		table := fmt.Sprintf("%s_%s", cfg.Namespace, role)
		if !identifier.MatchString(table) {
			return nil, apperrors.InvalidInputf("bad enumerator table %q", table)
		}
		var client *postgres.Client
		err := resilience.Retry(ctx, "postgres connect", resilience.RetryConfig{}, func() (err error) {
			client, err = postgres.New(ctx, opts.Postgres)
			return err
		})
		if err != nil {
			return nil, err
		}
		return NewPostgres(ctx, client, table, role, opts.Metrics)
	case "redis":
		var client *redis.Client
		err := resilience.Retry(ctx, "redis connect", resilience.RetryConfig{}, func() (err error) {
			client, err = redis.NewClient(ctx, opts.Redis)
			return err
		})
		if err != nil {
			return nil, err
		}
		e := NewRedis(client, fmt.Sprintf("%s:%s", cfg.Namespace, role), role, opts.Metrics)
		if err := e.Warm(ctx); err != nil {
			client.Close()
			return nil, err
		}
		return e, nil
	default:
		return nil, apperrors.InvalidInputf("unknown enumerator type %q (known: %s)", cfg.Type, strings.Join(Backends, ", "))
	}
}

func notFound(role string, id int32) error {
	return apperrors.Newf(apperrors.ErrNotFound, apperrors.ExitDataErr, "%s id %d", role, id)
}

// cache holds the id mappings already known locally.
type cache struct {
	ids    map[string]int32
	values map[int32]string
}

func newCache() cache {
	return cache{ids: make(map[string]int32), values: make(map[int32]string)}
}

func (c cache) put(s string, id int32) {
	c.ids[s] = id
	c.values[id] = s
}

// flights collapses concurrent remote lookups. Strings and ids are
// deduplicated in separate groups so that interning "#7" never joins a
// lookup of id 7.
type flights struct {
	ids    singleflight.Group
	values singleflight.Group
}

func (f *flights) id(s string, fn func() (int32, error)) (int32, error) {
	v, err, _ := f.ids.Do(s, func() (interface{}, error) { return fn() })
	if err != nil {
		return 0, err
	}
	return v.(int32), nil
}

func (f *flights) value(id int32, fn func() (string, error)) (string, error) {
	v, err, _ := f.values.Do(strconv.Itoa(int(id)), func() (interface{}, error) { return fn() })
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
