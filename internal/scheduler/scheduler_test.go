package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type closerStub struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (c *closerStub) CloseExpired(_ context.Context, now time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, now)
	return 1, c.err
}

func (c *closerStub) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func TestCloseExpiredJob(t *testing.T) {
	stub := &closerStub{}
	s := New(stub, zap.NewNop())
	fixed := time.Date(2025, 2, 1, 0, 0, 0, 0, time.FixedZone("EAT", 3*3600))
	s.now = func() time.Time { return fixed }

	s.closeExpired()
	stub.err = errors.New("db down")
	s.closeExpired()

	assert.Equal(t, 2, stub.count())
	assert.Equal(t, time.UTC, stub.calls[0].Location())
	assert.True(t, stub.calls[0].Equal(fixed))
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New(&closerStub{}, zap.NewNop())
	assert.Error(t, s.Start("every now and then"))
}

func TestStartRunsJob(t *testing.T) {
	stub := &closerStub{}
	s := New(stub, zap.NewNop())
	assert.NoError(t, s.Start("@every 1s"))
	defer s.Stop()
	assert.Eventually(t, func() bool { return stub.count() > 0 }, 3*time.Second, 50*time.Millisecond)
}
