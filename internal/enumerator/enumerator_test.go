package enumerator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exercise checks the contract every backend shares.
func exercise(t *testing.T, e Enumerator) {
	t.Helper()
	words := []string{"cat", "dog", "cat", "bird", "dog", "fish"}
	want := []int32{0, 1, 0, 2, 1, 3}
	for i, w := range words {
		id, err := e.IDOf(w)
		require.NoError(t, err)
		assert.Equal(t, want[i], id, w)
	}
	for i, w := range []string{"cat", "dog", "bird", "fish"} {
		s, err := e.ValueOf(int32(i))
		require.NoError(t, err)
		assert.Equal(t, w, s)
	}
	n, err := e.Len()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = e.ValueOf(99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func concurrent(t *testing.T, e Enumerator) {
	t.Helper()
	var wg sync.WaitGroup
	ids := make([][]int32, 8)
	for g := range ids {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id, err := e.IDOf(fmt.Sprintf("w%d", (i+g)%50))
				if err != nil {
					t.Error(err)
					return
				}
				ids[g] = append(ids[g], id)
			}
		}(g)
	}
	wg.Wait()

	n, err := e.Len()
	require.NoError(t, err)
	assert.Equal(t, 50, n)
	seen := make(map[int32]string)
	for i := 0; i < 50; i++ {
		w := fmt.Sprintf("w%d", i)
		id, err := e.IDOf(w)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, id, int32(0))
		assert.Less(t, id, int32(50))
		_, dup := seen[id]
		assert.False(t, dup, "id %d assigned twice", id)
		seen[id] = w
	}
}

func TestMemory(t *testing.T) {
	e, err := OpenMemory("", RoleEntries, nil)
	require.NoError(t, err)
	exercise(t, e)
}

func TestMemoryConcurrent(t *testing.T) {
	e, err := OpenMemory("", RoleEntries, nil)
	require.NoError(t, err)
	concurrent(t, e)
}

func TestFlightsKeepStringsAndIDsApart(t *testing.T) {
	var f flights
	started := make(chan struct{})
	release := make(chan struct{})

	var (
		wg      sync.WaitGroup
		id      int32
		idErr   error
		valueFn bool
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, idErr = f.id("#1", func() (int32, error) {
			close(started)
			<-release
			return 7, nil
		})
	}()
	<-started

	// a string lookup for "#1" is in flight while id 1 is resolved
	value, err := f.value(1, func() (string, error) {
		valueFn = true
		return "dog", nil
	})
	close(release)
	wg.Wait()

	require.NoError(t, err)
	assert.True(t, valueFn)
	assert.Equal(t, "dog", value)
	require.NoError(t, idErr)
	assert.Equal(t, int32(7), id)
}

func TestMemorySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "vocab.entries")
	e, err := OpenMemory(path, RoleEntries, nil)
	require.NoError(t, err)
	for _, w := range []string{"alpha", "beta", "gamma delta"} {
		_, err := e.IDOf(w)
		require.NoError(t, err)
	}
	require.NoError(t, e.Save())
	require.NoError(t, e.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0\talpha\n1\tbeta\n2\tgamma delta\n", string(data))

	loaded, err := OpenMemory(path, RoleEntries, nil)
	require.NoError(t, err)
	id, err := loaded.IDOf("gamma delta")
	require.NoError(t, err)
	assert.Equal(t, int32(2), id)
	id, err = loaded.IDOf("epsilon")
	require.NoError(t, err)
	assert.Equal(t, int32(3), id)
}

func TestMemoryRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab")
	require.NoError(t, os.WriteFile(path, []byte("0\ta\n2\tb\n"), 0o644))
	_, err := OpenMemory(path, RoleEntries, nil)
	assert.ErrorIs(t, err, apperrors.ErrDataFormat)
}

func TestBolt(t *testing.T) {
	e, err := OpenBolt(filepath.Join(t.TempDir(), "vocab.db"), RoleFeatures, nil)
	require.NoError(t, err)
	defer e.Close()
	exercise(t, e)
}

func TestBoltConcurrent(t *testing.T) {
	e, err := OpenBolt(filepath.Join(t.TempDir(), "vocab.db"), RoleFeatures, nil)
	require.NoError(t, err)
	defer e.Close()
	concurrent(t, e)
}

func TestBoltReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.db")
	e, err := OpenBolt(path, RoleFeatures, nil)
	require.NoError(t, err)
	for _, w := range []string{"x", "y"} {
		_, err := e.IDOf(w)
		require.NoError(t, err)
	}
	require.NoError(t, e.Save())
	require.NoError(t, e.Close())

	e, err = OpenBolt(path, RoleFeatures, nil)
	require.NoError(t, err)
	defer e.Close()
	s, err := e.ValueOf(1)
	require.NoError(t, err)
	assert.Equal(t, "y", s)
	id, err := e.IDOf("z")
	require.NoError(t, err)
	assert.Equal(t, int32(2), id)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     config.EnumeratorConfig
		role    string
		wantErr error
	}{
		{name: "memory default", cfg: config.EnumeratorConfig{}, role: RoleEntries},
		{name: "memory with path", cfg: config.EnumeratorConfig{Type: "memory", Path: filepath.Join(dir, "m")}, role: RoleEntries},
		{name: "bolt", cfg: config.EnumeratorConfig{Type: "bolt", Path: filepath.Join(dir, "b")}, role: RoleFeatures},
		{name: "unknown type", cfg: config.EnumeratorConfig{Type: "ldap"}, role: RoleEntries, wantErr: apperrors.ErrInvalidInput},
		{name: "bad role", cfg: config.EnumeratorConfig{}, role: "Drop Table", wantErr: apperrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Open(context.Background(), Options{Config: tt.cfg, Role: tt.role})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer e.Close()
			exercise(t, e)
			require.NoError(t, e.Save())
		})
	}
}

func TestPostgresIntegration(t *testing.T) {
	if os.Getenv("BYBLO_TEST_POSTGRES") == "" {
		t.Skip("BYBLO_TEST_POSTGRES not set")
	}
	ctx := context.Background()
	cfg := config.Default().Postgres
	client, err := postgres.New(ctx, cfg)
	require.NoError(t, err)
	table := "byblo_test_entries"
	_, err = client.DB.ExecContext(ctx, "DROP TABLE IF EXISTS "+table)
	require.NoError(t, err)

	e, err := NewPostgres(ctx, client, table, RoleEntries, nil)
	require.NoError(t, err)
	defer e.Close()
	exercise(t, e)
}

func TestRedisIntegration(t *testing.T) {
	if os.Getenv("BYBLO_TEST_REDIS") == "" {
		t.Skip("BYBLO_TEST_REDIS not set")
	}
	ctx := context.Background()
	client, err := redis.NewClient(ctx, config.Default().Redis)
	require.NoError(t, err)
	e := NewRedis(client, "byblo-test:entries", RoleEntries, nil)
	require.NoError(t, e.Drop(ctx))
	defer e.Close()
	exercise(t, e)
	require.NoError(t, e.Drop(ctx))
}
