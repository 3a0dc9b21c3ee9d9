package enumerator

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/metrics"
)

var (
	idsBucket    = []byte("ids")
	valuesBucket = []byte("values")
)

// Bolt stores the mapping in a bbolt file with one bucket per direction.
// Writes are not synced until Save.
type Bolt struct {
	db      *bolt.DB
	role    string
	metrics *metrics.Metrics

	mu    sync.RWMutex
	local cache
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path, role string, m *metrics.Metrics) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening enumerator database %q: %w", path, err)
	}
	db.NoSync = true
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{idsBucket, valuesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db, role: role, metrics: m, local: newCache()}, nil
}

func idKey(id int32) []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(id))
}

func (e *Bolt) IDOf(s string) (int32, error) {
	e.mu.RLock()
	id, ok := e.local.ids[s]
	e.mu.RUnlock()
	if ok {
		return id, nil
	}

	err := e.db.Update(func(tx *bolt.Tx) error {
		ids, values := tx.Bucket(idsBucket), tx.Bucket(valuesBucket)
		if v := ids.Get([]byte(s)); v != nil {
			id = int32(binary.BigEndian.Uint32(v))
			return nil
		}
		seq, err := ids.NextSequence()
		if err != nil {
			return err
		}
		id = int32(seq - 1)
		if err := ids.Put([]byte(s), idKey(id)); err != nil {
			return err
		}
		return values.Put(idKey(id), []byte(s))
	})
	if err != nil {
		return 0, fmt.Errorf("interning %s %q: %w", e.role, s, err)
	}
	e.mu.Lock()
	e.local.put(s, id)
	e.mu.Unlock()
	return id, nil
}

func (e *Bolt) ValueOf(id int32) (string, error) {
	e.mu.RLock()
	s, ok := e.local.values[id]
	e.mu.RUnlock()
	if ok {
		return s, nil
	}
	err := e.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(valuesBucket).Get(idKey(id))
		if v == nil {
			return notFound(e.role, id)
		}
		s = string(v)
		return nil
	})
	if err != nil {
		return "", err
	}
	e.mu.Lock()
	e.local.put(s, id)
	e.mu.Unlock()
	return s, nil
}

func (e *Bolt) Len() (int, error) {
	var n int
	err := e.db.View(func(tx *bolt.Tx) error {
		n = int(tx.Bucket(idsBucket).Sequence())
		return nil
	})
	return n, err
}

// Save syncs the database file.
func (e *Bolt) Save() error {
	if n, err := e.Len(); err == nil {
		e.metrics.SetEnumeratorSize(e.role, n)
	}
	if err := e.db.Sync(); err != nil {
		return fmt.Errorf("syncing enumerator database: %w", err)
	}
	return nil
}

func (e *Bolt) Close() error {
	if err := e.db.Sync(); err != nil {
		e.db.Close()
		return fmt.Errorf("syncing enumerator database: %w", err)
	}
	return e.db.Close()
}
