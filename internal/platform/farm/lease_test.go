package farm

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type groupRecorder struct {
	mu        sync.Mutex
	created   []string
	deleted   []string
	createErr int
	deleteErr int
}

func (g *groupRecorder) handler(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch r.Method {
	case http.MethodPost:
		if g.createErr != 0 {
			w.WriteHeader(g.createErr)
			return
		}
		g.created = append(g.created, r.URL.Path)
	case http.MethodDelete:
		g.deleted = append(g.deleted, r.URL.Path)
		if g.deleteErr != 0 {
			w.WriteHeader(g.deleteErr)
		}
	}
}

func newTestLease(t *testing.T, rec *groupRecorder) *LeaseManager {
	t.Helper()
	c := newTestClient(t, rec.handler)
	m := NewLeaseManager(c, LeaseConfig{Prefix: "smoke_test", TTL: 500 * time.Second, VMAllocation: "distributeAcrossDcs"}, logr.Discard())
	m.host = "ci.runner"
	m.now = func() time.Time { return time.Unix(1709978400, 0) }
	return m
}

func TestWithLease_Success(t *testing.T) {
	t.Parallel()
	rec := &groupRecorder{}
	m := newTestLease(t, rec)
	var got string

	err := m.WithLease(context.Background(), func(_ context.Context, group string) error {
		got = group
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "smoke_test-ci-runner-1709978400", got)
	assert.Equal(t, []string{"/group/" + got}, rec.created)
	assert.Equal(t, []string{"/group/" + got}, rec.deleted)
}

func TestWithLease_DeletesOnBodyError(t *testing.T) {
	t.Parallel()
	rec := &groupRecorder{}
	m := newTestLease(t, rec)
	sentinel := errors.New("placement failed")

	err := m.WithLease(context.Background(), func(context.Context, string) error { return sentinel })

	assert.ErrorIs(t, err, sentinel)
	assert.Len(t, rec.deleted, 1)
	assert.Equal(t, len(rec.created), len(rec.deleted))
}

func TestWithLease_DeletesOnPanic(t *testing.T) {
	t.Parallel()
	rec := &groupRecorder{}
	m := newTestLease(t, rec)

	assert.Panics(t, func() {
		_ = m.WithLease(context.Background(), func(context.Context, string) error { panic("boom") })
	})
	assert.Len(t, rec.deleted, 1)
}

func TestWithLease_DeletesAfterCancellation(t *testing.T) {
	t.Parallel()
	rec := &groupRecorder{}
	m := newTestLease(t, rec)
	ctx, cancel := context.WithCancel(context.Background())

	err := m.WithLease(ctx, func(ctx context.Context, _ string) error {
		cancel()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, rec.deleted, 1)
}

func TestWithLease_DeleteFailureIsNotReturned(t *testing.T) {
	t.Parallel()
	rec := &groupRecorder{deleteErr: http.StatusInternalServerError}
	m := newTestLease(t, rec)

	err := m.WithLease(context.Background(), func(context.Context, string) error { return nil })

	require.NoError(t, err)
	assert.Len(t, rec.deleted, 1)
}

func TestWithLease_CreateFailure(t *testing.T) {
	t.Parallel()
	rec := &groupRecorder{createErr: http.StatusConflict}
	m := newTestLease(t, rec)
	called := false

	err := m.WithLease(context.Background(), func(context.Context, string) error {
		called = true
		return nil
	})

	var re *RetryError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusConflict, re.StatusCode)
	assert.False(t, called)
	assert.Empty(t, rec.deleted)
}
