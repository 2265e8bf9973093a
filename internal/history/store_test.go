package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndQuery(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	records := []Record{
		{RunID: "r1", Project: "mylib", Op: OpUpdate, Success: true, Duration: 2 * time.Second, At: base},
		{RunID: "r1", Project: "mylib", Op: OpBuild, Success: true, Duration: 30 * time.Second, At: base.Add(time.Minute)},
		{RunID: "r2", Project: "mylib", Op: OpBuild, Success: false, Detail: "exit status 1", At: base.Add(2 * time.Minute)},
		{RunID: "r1", Project: "other", Op: OpBuild, Success: false, Detail: "gradle not found", At: base},
	}
	for _, rec := range records {
		require.NoError(t, s.Append(ctx, rec))
	}

	got, err := s.ByProject(ctx, "mylib", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "r2", got[0].RunID)
	assert.False(t, got[0].Success)
	assert.Equal(t, "exit status 1", got[0].Detail)
	assert.Equal(t, 30*time.Second, got[1].Duration)

	limited, err := s.ByProject(ctx, "mylib", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestLastSuccess(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	none, err := s.LastSuccess(ctx, "mylib")
	require.NoError(t, err)
	assert.Nil(t, none)

	ok := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, s.Append(ctx, Record{RunID: "r1", Project: "mylib", Op: OpBuild, Success: true, At: ok}))
	require.NoError(t, s.Append(ctx, Record{RunID: "r2", Project: "mylib", Op: OpBuild, Success: false, At: ok.Add(time.Minute)}))

	last, err := s.LastSuccess(ctx, "mylib")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, ok.Unix(), last.Unix())
}

func TestOpenPersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), Record{RunID: "r1", Project: "p", Op: OpBuild, Success: true}))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	last, err := reopened.LastSuccess(context.Background(), "p")
	require.NoError(t, err)
	assert.NotNil(t, last)
}
