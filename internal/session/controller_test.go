package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testController returns a controller with a pre-attached fake handle, so
// lock semantics can be exercised without a live browser.
func testController() *Controller {
	c := NewController(Config{})
	c.handle = &Handle{}
	c.alive = func(*Handle) bool { return true }
	return c
}

func TestWithSessionReleasesLockOnError(t *testing.T) {
	c := testController()

	boom := errors.New("boom")
	err := c.WithSession(context.Background(), func(*Handle) error { return boom })
	assert.ErrorIs(t, err, boom)

	// A second acquisition must not deadlock.
	done := make(chan struct{})
	go func() {
		_ = c.WithSession(context.Background(), func(*Handle) error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session lock was not released after an error")
	}
}

func TestWithSessionSerializes(t *testing.T) {
	c := testController()

	var mu sync.Mutex
	active, maxActive := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.WithSession(context.Background(), func(*Handle) error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive, "at most one worker may hold the session")
}

func TestSessionUnavailable(t *testing.T) {
	c := NewController(Config{})
	c.connect = func(context.Context) (*rod.Browser, error) {
		return nil, errors.New("no chrome anywhere")
	}

	err := c.WithSession(context.Background(), func(*Handle) error {
		t.Fatal("fn must not run without a session")
		return nil
	})
	require.ErrorIs(t, err, ErrSessionUnavailable)
}

func TestStaleHandleReattaches(t *testing.T) {
	c := NewController(Config{})
	c.handle = &Handle{}
	c.alive = func(*Handle) bool { return false }

	reconnects := 0
	c.connect = func(context.Context) (*rod.Browser, error) {
		reconnects++
		return nil, errors.New("still down")
	}

	err := c.WithSession(context.Background(), func(*Handle) error { return nil })
	require.ErrorIs(t, err, ErrSessionUnavailable)
	assert.Equal(t, 1, reconnects, "a dead handle triggers one reattach attempt")
}
