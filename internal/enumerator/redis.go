package enumerator

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/redis"
)

// internScript assigns the next dense id to ARGV[1] unless it has one.
// KEYS[1] maps strings to ids and KEYS[2] ids to strings.
var internScript = redis.NewScript(`
local id = redis.call('HGET', KEYS[1], ARGV[1])
if id then
	return tonumber(id)
end
id = redis.call('HLEN', KEYS[1])
redis.call('HSET', KEYS[1], ARGV[1], id)
redis.call('HSET', KEYS[2], id, ARGV[1])
return id
`)

// Redis stores the mapping in two hashes under a key prefix so that several
// processes can share one vocabulary.
type Redis struct {
	client    *redis.Client
	idsKey    string
	valuesKey string
	role      string
	metrics   *metrics.Metrics
	flights   flights

	mu    sync.RWMutex
	local cache
}

// NewRedis uses the hashes "<prefix>:ids" and "<prefix>:values".
func NewRedis(client *redis.Client, prefix, role string, m *metrics.Metrics) *Redis {
	return &Redis{
		client:    client,
		idsKey:    prefix + ":ids",
		valuesKey: prefix + ":values",
		role:      role,
		metrics:   m,
		local:     newCache(),
	}
}

func (e *Redis) IDOf(s string) (int32, error) {
	e.mu.RLock()
	id, ok := e.local.ids[s]
	e.mu.RUnlock()
	if ok {
		return id, nil
	}
	id, err := e.flights.id(s, func() (int32, error) {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		res, err := e.client.Run(ctx, internScript, []string{e.idsKey, e.valuesKey}, s)
		if err != nil {
			return 0, err
		}
		n, ok := res.(int64)
		if !ok {
			return 0, fmt.Errorf("unexpected script result %T", res)
		}
		id := int32(n)
		e.mu.Lock()
		e.local.put(s, id)
		e.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return 0, fmt.Errorf("interning %s %q: %w", e.role, s, err)
	}
	return id, nil
}

func (e *Redis) ValueOf(id int32) (string, error) {
	e.mu.RLock()
	s, ok := e.local.values[id]
	e.mu.RUnlock()
	if ok {
		return s, nil
	}
	field := strconv.Itoa(int(id))
	return e.flights.value(id, func() (string, error) {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		s, err := e.client.HGet(ctx, e.valuesKey, field)
		if redis.IsNilError(err) {
			return "", notFound(e.role, id)
		}
		if err != nil {
			return "", fmt.Errorf("reading value of %s id %d: %w", e.role, id, err)
		}
		e.mu.Lock()
		e.local.put(s, id)
		e.mu.Unlock()
		return s, nil
	})
}

func (e *Redis) Len() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	n, err := e.client.HLen(ctx, e.idsKey)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", e.role, err)
	}
	return int(n), nil
}

// Warm loads the whole mapping into the local cache.
func (e *Redis) Warm(ctx context.Context) error {
	all, err := e.client.HGetAll(ctx, e.idsKey)
	if err != nil {
		return fmt.Errorf("loading %s: %w", e.role, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for s, idStr := range all {
		id, err := strconv.ParseInt(idStr, 10, 32)
		if err != nil {
			return fmt.Errorf("bad %s id %q for %q", e.role, idStr, s)
		}
		e.local.put(s, int32(id))
	}
	return nil
}

// Save records the size; ids are stored as they are assigned.
func (e *Redis) Save() error {
	n, err := e.Len()
	if err != nil {
		return err
	}
	e.metrics.SetEnumeratorSize(e.role, n)
	return nil
}

// Drop deletes both hashes.
func (e *Redis) Drop(ctx context.Context) error {
	return e.client.Del(ctx, e.idsKey, e.valuesKey)
}

func (e *Redis) Close() error {
	return e.client.Close()
}
