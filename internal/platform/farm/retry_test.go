package farm

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallWithRetry_SucceedsAfterWrongStatus(t *testing.T) {
	t.Parallel()
	var attempts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	resp, err := c.RetryOK(context.Background(), c.GetDataCenters)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestCallWithRetry_ExhaustedWithResponse(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("farm is down"))
	})

	_, err := c.CallWithRetry(context.Background(), c.GetGroups, http.StatusOK, 50*time.Millisecond)

	var re *RetryError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusInternalServerError, re.StatusCode)
	assert.Equal(t, "farm is down", re.Message)
	assert.Contains(t, re.URL, "/group")
	assert.GreaterOrEqual(t, re.Attempts, 1)
	assert.True(t, IsRetryExhausted(err))
}

func TestCallWithRetry_ExhaustedWithoutResponse(t *testing.T) {
	t.Parallel()
	c := NewClient("http://farm.invalid", WithRetry(50*time.Millisecond, 10*time.Millisecond))
	transportErr := errors.New("connection refused")

	_, err := c.CallWithRetry(context.Background(), func(context.Context) (*Response, error) {
		return nil, transportErr
	}, http.StatusOK, 50*time.Millisecond)

	var nr *NoResponseError
	require.ErrorAs(t, err, &nr)
	assert.ErrorIs(t, err, transportErr)
	assert.True(t, IsRetryExhausted(err))
}

func TestCallWithRetry_LastResponseWinsOverLaterTransportError(t *testing.T) {
	t.Parallel()
	c := NewClient("http://farm.invalid", WithRetry(time.Second, 10*time.Millisecond))
	n := 0

	_, err := c.CallWithRetry(context.Background(), func(context.Context) (*Response, error) {
		n++
		if n == 1 {
			return &Response{StatusCode: http.StatusTooManyRequests, URL: "u", Body: []byte("slow down")}, nil
		}
		return nil, errors.New("reset")
	}, http.StatusOK, 50*time.Millisecond)

	var re *RetryError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusTooManyRequests, re.StatusCode)
}

func TestCallWithRetry_AttemptBound(t *testing.T) {
	t.Parallel()
	const budget = 100 * time.Millisecond
	const delay = 30 * time.Millisecond
	c := NewClient("http://farm.invalid", WithRetry(budget, delay))
	n := 0

	start := time.Now()
	_, err := c.CallWithRetry(context.Background(), func(context.Context) (*Response, error) {
		n++
		return &Response{StatusCode: http.StatusBadGateway}, nil
	}, http.StatusOK, budget)

	require.Error(t, err)
	assert.LessOrEqual(t, n, 5) // ceil(100/30)+1
	assert.Less(t, time.Since(start), budget+2*delay)
}

func TestCallWithRetry_ContextCancelled(t *testing.T) {
	t.Parallel()
	c := NewClient("http://farm.invalid", WithRetry(time.Minute, time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CallWithRetry(ctx, func(context.Context) (*Response, error) {
		return &Response{StatusCode: http.StatusBadGateway}, nil
	}, http.StatusOK, time.Minute)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsRetryExhausted(err))
}

func TestStatusError_TruncatesBody(t *testing.T) {
	t.Parallel()
	body := make([]byte, 2*maxMessageLen)
	for i := range body {
		body[i] = 'x'
	}
	err := &StatusError{URL: "u", StatusCode: 500, Expected: 200, Body: string(body)}

	assert.Less(t, len(err.Error()), maxMessageLen+100)
}
