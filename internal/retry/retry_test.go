package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient failure")

func transientClassifier(error) (string, bool) { return "TRANSIENT", true }
func fatalClassifier(error) (string, bool)     { return "FATAL", false }

func fastPolicy(c Classifier) Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  10 * time.Millisecond,
		MaxDelay:   80 * time.Millisecond,
		Classify:   c,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastPolicy(transientClassifier), "op", func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	start := time.Now()

	got, err := Do(context.Background(), fastPolicy(transientClassifier), "op", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "ok", nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	// Elapsed must cover the first two backoff delays (10ms + 20ms).
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(transientClassifier), "list-folder", func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls) // initial attempt + 3 retries

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "list-folder", rerr.Op)
	assert.Equal(t, "TRANSIENT", rerr.Code)
	assert.True(t, rerr.Retryable)
	assert.Equal(t, 3, rerr.Attempt)
	assert.ErrorIs(t, err, errTransient)
	assert.Contains(t, err.Error(), "transient failure")
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(fatalClassifier), "op", func(context.Context) (int, error) {
		calls++
		return 0, errors.New("not found")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "FATAL", rerr.Code)
	assert.False(t, rerr.Retryable)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := Policy{
		MaxRetries: 5,
		BaseDelay:  time.Hour, // never elapses
		MaxDelay:   time.Hour,
		Classify:   transientClassifier,
	}

	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, p, "op", func(context.Context) (int, error) {
			return 0, errTransient
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestBackoffDelay_Caps(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: 500 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, backoffDelay(p, 0))
	assert.Equal(t, 200*time.Millisecond, backoffDelay(p, 1))
	assert.Equal(t, 400*time.Millisecond, backoffDelay(p, 2))
	assert.Equal(t, 500*time.Millisecond, backoffDelay(p, 3))
	assert.Equal(t, 500*time.Millisecond, backoffDelay(p, 20))
}

func TestError_Context(t *testing.T) {
	rerr := &Error{Op: "download", Attempt: 2, MaxRetries: 3, Err: errTransient}
	ctx := rerr.Context()
	assert.Equal(t, "download", ctx["operation"])
	assert.Equal(t, "2", ctx["attempt"])
	assert.Equal(t, "3", ctx["maxRetries"])
}
