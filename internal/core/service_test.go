package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookstore/internal/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalSnapshot = `{"store": {"id": "S1", "name": "Corner Books", "currency": "USD"}}`

func TestResetLifecycle(t *testing.T) {
	release := make(chan struct{})
	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(minimalSnapshot))
	}))
	defer feedSrv.Close()

	s := newTestService(t)
	s.client = feed.NewClient(feedSrv.URL, 5*time.Second)
	ctx := context.Background()

	id, err := s.StartReset(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// Only one reset at a time.
	_, err = s.StartReset(ctx)
	assert.ErrorIs(t, err, ErrResetInProgress)

	progress, err := s.ResetProgress(id)
	require.NoError(t, err)
	assert.NotEqual(t, PhaseComplete, progress.Phase)

	close(release)

	result, err := s.ResetResult(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result.Error)
	assert.Equal(t, "Corner Books", result.StoreName)

	meta := s.Meta()
	assert.Equal(t, "Corner Books", meta.Name)
	assert.Equal(t, "USD", meta.Currency)

	// A finished reset unblocks the next one.
	id2, err := s.StartReset(ctx)
	require.NoError(t, err)
	result2, err := s.ResetResult(ctx, id2)
	require.NoError(t, err)
	assert.Empty(t, result2.Error)
}

func TestResetProgressUnknown(t *testing.T) {
	s := newTestService(t)

	_, err := s.ResetProgress("no-such-id")
	assert.ErrorIs(t, err, ErrResetNotFound)

	_, err = s.ResetResult(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrResetNotFound)
}

func TestResetResultHonorsContext(t *testing.T) {
	release := make(chan struct{})
	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(minimalSnapshot))
	}))
	defer feedSrv.Close()
	defer close(release)

	s := newTestService(t)
	s.client = feed.NewClient(feedSrv.URL, 5*time.Second)

	id, err := s.StartReset(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = s.ResetResult(ctx, id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
