package bridge_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solrisk/mwabridge/bridge"
	"github.com/solrisk/mwabridge/core"
)

func decodeCount(payload json.RawMessage) (int, error) {
	var v struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return 0, err
	}
	return v.Count, nil
}

func countSpec(em *bridge.Emitter, start func() error) bridge.CallSpec[int] {
	return bridge.CallSpec[int]{
		Operation:   "testOp",
		Timeout:     time.Second,
		Start:       start,
		ResultEvent: "testResult",
		ErrorEvent:  "testError",
		Decode:      decodeCount,
	}
}

func TestRunResolvesOnResultEvent(t *testing.T) {
	em := bridge.NewEmitter()

	// Listeners are installed before Start runs, so a host that answers
	// synchronously is still correlated.
	v, err := bridge.Run(context.Background(), em, nil, countSpec(em, func() error {
		em.Dispatch("testResult", json.RawMessage(`{"count":7}`))
		return nil
	}))

	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 0, em.ListenerCount("testResult"))
	assert.Equal(t, 0, em.ListenerCount("testError"))
}

func TestRunRejectsOnErrorEvent(t *testing.T) {
	em := bridge.NewEmitter()

	_, err := bridge.Run(context.Background(), em, nil, countSpec(em, func() error {
		em.Dispatch("testError", json.RawMessage(`"user declined"`))
		return nil
	}))

	var hostErr *core.HostError
	require.ErrorAs(t, err, &hostErr)
	assert.Equal(t, "testOp", hostErr.Op)
	assert.Equal(t, "user declined", hostErr.Message)
}

func TestRunErrorEventObjectForm(t *testing.T) {
	em := bridge.NewEmitter()

	_, err := bridge.Run(context.Background(), em, nil, countSpec(em, func() error {
		em.Dispatch("testError", json.RawMessage(`{"message":"wallet not installed"}`))
		return nil
	}))

	var hostErr *core.HostError
	require.ErrorAs(t, err, &hostErr)
	assert.Equal(t, "wallet not installed", hostErr.Message)
}

func TestRunFirstEventWins(t *testing.T) {
	em := bridge.NewEmitter()

	// The host may emit duplicates or a spurious error after the result;
	// whichever arrives first settles the call, the rest are no-ops.
	v, err := bridge.Run(context.Background(), em, nil, countSpec(em, func() error {
		em.Dispatch("testResult", json.RawMessage(`{"count":1}`))
		em.Dispatch("testError", json.RawMessage(`"too late"`))
		em.Dispatch("testResult", json.RawMessage(`{"count":2}`))
		return nil
	}))

	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestRunTimeout(t *testing.T) {
	em := bridge.NewEmitter()

	spec := countSpec(em, func() error { return nil })
	spec.Timeout = 20 * time.Millisecond

	start := time.Now()
	_, err := bridge.Run(context.Background(), em, nil, spec)

	require.ErrorIs(t, err, core.ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 0, em.ListenerCount("testResult"))
	assert.Equal(t, 0, em.ListenerCount("testError"))
}

func TestRunLateEventAfterTimeoutIsDropped(t *testing.T) {
	em := bridge.NewEmitter()

	spec := countSpec(em, func() error { return nil })
	spec.Timeout = 20 * time.Millisecond

	_, err := bridge.Run(context.Background(), em, nil, spec)
	require.ErrorIs(t, err, core.ErrTimeout)

	// The host finally answers; nobody is listening anymore and a fresh call
	// must not be corrupted by the stale payload.
	em.Dispatch("testResult", json.RawMessage(`{"count":99}`))

	v, err := bridge.Run(context.Background(), em, nil, countSpec(em, func() error {
		em.Dispatch("testResult", json.RawMessage(`{"count":3}`))
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestRunSyncStartFailure(t *testing.T) {
	em := bridge.NewEmitter()

	boom := errors.New("malformed args")
	_, err := bridge.Run(context.Background(), em, nil, countSpec(em, func() error {
		return boom
	}))

	require.ErrorIs(t, err, core.ErrInvalidArgument)
	assert.Equal(t, 0, em.ListenerCount("testResult"))
	assert.Equal(t, 0, em.ListenerCount("testError"))
}

func TestRunDecodeFailureIsProtocolViolation(t *testing.T) {
	em := bridge.NewEmitter()

	spec := countSpec(em, func() error {
		em.Dispatch("testResult", json.RawMessage(`not json`))
		return nil
	})

	_, err := bridge.Run(context.Background(), em, nil, spec)
	require.ErrorIs(t, err, core.ErrProtocolViolation)
}

func TestRunContextCancellation(t *testing.T) {
	em := bridge.NewEmitter()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bridge.Run(ctx, em, nil, countSpec(em, func() error { return nil }))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, em.ListenerCount("testResult"))
}

func TestRunDefaultTimeoutApplied(t *testing.T) {
	em := bridge.NewEmitter()

	spec := countSpec(em, func() error {
		em.Dispatch("testResult", json.RawMessage(`{"count":5}`))
		return nil
	})
	spec.Timeout = 0

	v, err := bridge.Run(context.Background(), em, nil, spec)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestRunNoListenerLeakAcrossRepeatedCalls(t *testing.T) {
	em := bridge.NewEmitter()

	for i := 0; i < 25; i++ {
		var spec bridge.CallSpec[int]
		switch i % 4 {
		case 0:
			spec = countSpec(em, func() error {
				em.Dispatch("testResult", json.RawMessage(`{"count":1}`))
				return nil
			})
		case 1:
			spec = countSpec(em, func() error {
				em.Dispatch("testError", json.RawMessage(`"no"`))
				return nil
			})
		case 2:
			spec = countSpec(em, func() error { return errors.New("sync") })
		case 3:
			spec = countSpec(em, func() error { return nil })
			spec.Timeout = 5 * time.Millisecond
		}

		_, _ = bridge.Run(context.Background(), em, nil, spec)

		require.Equal(t, 0, em.ListenerCount("testResult"), "iteration %d leaked result listener", i)
		require.Equal(t, 0, em.ListenerCount("testError"), "iteration %d leaked error listener", i)
	}
}

func TestRunResultBeatsTimerWhenRacing(t *testing.T) {
	em := bridge.NewEmitter()

	spec := countSpec(em, func() error { return nil })
	spec.Timeout = 80 * time.Millisecond

	done := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		em.Dispatch("testResult", json.RawMessage(`{"count":11}`))
		close(done)
	}()

	v, err := bridge.Run(context.Background(), em, nil, spec)
	<-done

	require.NoError(t, err)
	assert.Equal(t, 11, v)
}
