package journal

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/assetsim/core/factory"
	"github.com/kilianp07/assetsim/core/model"
)

func sampleRecords(base time.Time) []Record {
	var b1, b2, b3 model.Batch
	b1 = model.Batch{SimulationAt: 0, Phase: 1}
	b1.AddVector("p1", 1, 2, 3)
	b2 = model.Batch{SimulationAt: 0, Phase: 2}
	b2.AddScalar("m1", 4)
	b3 = model.Batch{SimulationAt: 60, Phase: 1}
	b3.AddText("n1", "Inactive")
	return []Record{
		NewRecord("exp-a", b1, nil, base),
		NewRecord("exp-a", b2, []error{errors.New("sensor s1: missing cable power"), nil}, base.Add(time.Second)),
		NewRecord("exp-b", b3, nil, base.Add(2*time.Second)),
	}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0).UTC()
	for _, r := range sampleRecords(base) {
		require.NoError(t, s.Append(ctx, r))
	}

	all, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	a, err := s.Query(ctx, Query{ExperimentID: "exp-a"})
	require.NoError(t, err)
	require.Len(t, a, 2)
	assert.Equal(t, []string{"sensor s1: missing cable power"}, a[1].Errors)

	p1, err := s.Query(ctx, Query{Phase: 1})
	require.NoError(t, err)
	assert.Len(t, p1, 2)

	late, err := s.Query(ctx, Query{Start: base.Add(time.Second)})
	require.NoError(t, err)
	require.Len(t, late, 2)
	s3, ok := late[1].Batch.Find("n1")
	require.True(t, ok)
	assert.Equal(t, "Inactive", s3.Text)
}

func TestJSONLStore(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "journal.jsonl"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestRotatingJSONLStore(t *testing.T) {
	s, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "logs", "journal.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	s, err := NewRotatingJSONLStore(path, 1, 0, 0)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	var b model.Batch
	for i := 0; i < 2000; i++ {
		b.AddVector("p", float64(i), float64(i), float64(i))
	}
	n := 0
	for i := 0; i < 40; i++ {
		require.NoError(t, s.Append(context.Background(), NewRecord("x", b, nil, time.Now())))
		n++
	}
	backups, _ := filepath.Glob(s.backupPattern())
	assert.NotEmpty(t, backups, "expected rotated files")
	all, err := s.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.NotEmpty(t, all)
	assert.LessOrEqual(t, len(all), n)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestRecordJSON(t *testing.T) {
	rec := sampleRecords(time.Unix(0, 0))[0]
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, k := range []string{"id", "timestamp", "experiment_id", "simulation_at", "phase", "batch"} {
		assert.Contains(t, m, k)
	}
	assert.NotContains(t, m, "errors")
}

func TestFactory(t *testing.T) {
	s, err := New(factory.ModuleConfig{})
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)

	_, err = New(factory.ModuleConfig{Type: "jsonl"})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "j.jsonl")
	s, err = New(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": path}})
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)

	_, err = New(factory.ModuleConfig{Type: "kafka"})
	assert.Error(t, err)
}
