package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	base := []string{"byblo", "--log-level", "error", "--temp-dir", t.TempDir()}
	return newApp().Run(append(base, args...))
}

func TestBuildCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "instances")
	require.NoError(t, os.WriteFile(in, []byte("a\tx\na\ty\nb\tx\nb\ty\nc\tz\n"), 0o644))
	out := filepath.Join(dir, "thesaurus")

	require.NoError(t, run(t, "build", "-i", in, "-o", out, "--min-similarity", "0.01", "--k", "5"))

	data, err := os.ReadFile(out + ".neighbours")
	require.NoError(t, err)
	assert.Equal(t, "a\tb\t1\nb\ta\t1\n", string(data))
}

func TestStageCommands(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "instances")
	require.NoError(t, os.WriteFile(in, []byte("1\t7\n2\t7\n"), 0o644))
	prefix := filepath.Join(dir, "t")

	require.NoError(t, run(t, "--enumerated", "count", "-i", in, "-o", prefix))
	require.NoError(t, run(t, "--enumerated", "allpairs", "-i", prefix+".events", "-o", prefix+".sims",
		"--measure", "jaccard", "--algorithm", "naive"))
	require.NoError(t, run(t, "--enumerated", "knn", "-i", prefix+".sims", "-o", prefix+".neighbours", "--k", "1"))

	data, err := os.ReadFile(prefix + ".neighbours")
	require.NoError(t, err)
	assert.Equal(t, []string{"1\t2\t1", "2\t1\t1"}, strings.Split(strings.TrimSpace(string(data)), "\n"))
}

func TestWeightCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "instances")
	require.NoError(t, os.WriteFile(in, []byte("1\t7\n1\t8\n2\t7\n2\t8\n3\t9\n"), 0o644))
	prefix := filepath.Join(dir, "t")

	require.NoError(t, run(t, "--enumerated", "count", "-i", in, "-o", prefix))
	require.NoError(t, run(t, "--enumerated", "weight", "-i", prefix+".events", "-o", prefix+".weighted",
		"--measure", "lin", "--auto-weighting", "--features", prefix+".features"))
	require.NoError(t, run(t, "--enumerated", "allpairs", "-i", prefix+".weighted", "-o", prefix+".sims",
		"--measure", "lin", "--min-similarity", "0.01"))

	data, err := os.ReadFile(prefix + ".sims")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1\t2\t1", "2\t1\t1"}, strings.Split(strings.TrimSpace(string(data)), "\n"))

	// contextual measures read the features file
	require.NoError(t, run(t, "--enumerated", "allpairs", "-i", prefix+".events", "-o", prefix+".confusion",
		"--measure", "confusion", "--features", prefix+".features"))
	err = run(t, "--enumerated", "allpairs", "-i", prefix+".events", "-o", prefix+".confusion",
		"--measure", "confusion")
	assert.Equal(t, apperrors.ExitUsage, apperrors.ExitCode(err))
}

func TestExitCodes(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "instances")
	require.NoError(t, os.WriteFile(in, []byte("a\tx\n"), 0o644))

	err := run(t, "build", "-i", in, "-o", filepath.Join(dir, "out"), "--measure", "nope")
	assert.Equal(t, apperrors.ExitUsage, apperrors.ExitCode(err))

	err = run(t, "--enumerated", "count", "-i", in, "-o", filepath.Join(dir, "out"))
	assert.Equal(t, apperrors.ExitDataErr, apperrors.ExitCode(err))

	err = run(t, "count", "-i", filepath.Join(dir, "absent"), "-o", filepath.Join(dir, "out"))
	assert.Equal(t, apperrors.ExitIOErr, apperrors.ExitCode(err))
}
