package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type flakyPinger struct {
	fail atomic.Bool
}

func (p *flakyPinger) Ping(context.Context) error {
	if p.fail.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestMonitor_TracksDatastore(t *testing.T) {
	pinger := &flakyPinger{}
	mon := New(pinger, "postgres", 10*time.Millisecond, zaptest.NewLogger(t))
	mon.Start()
	t.Cleanup(mon.Stop)

	assert.True(t, mon.IsOnline())
	assert.Equal(t, "postgres", mon.GetStatus().Driver)

	pinger.fail.Store(true)
	assert.Eventually(t, func() bool { return !mon.IsOnline() }, time.Second, 5*time.Millisecond)

	pinger.fail.Store(false)
	assert.Eventually(t, mon.IsOnline, time.Second, 5*time.Millisecond)
}

func TestMonitor_NilPingerIsOffline(t *testing.T) {
	mon := New(nil, "none", time.Hour, nil)
	mon.Start()
	mon.Stop()
	mon.Stop()
	assert.False(t, mon.IsOnline())
}
