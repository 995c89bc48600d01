package monitoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonitorHealth(t *testing.T) {
	m := NewMonitor()
	ctx := context.Background()

	h := m.Health(ctx)
	assert.Equal(t, StatusUp, h.Status)
	assert.Empty(t, h.Components)
	assert.GreaterOrEqual(t, h.UptimeSeconds, 0.0)

	m.SetStatus("database", StatusUp)
	m.SetStatus("assistant", StatusDegraded)
	assert.Equal(t, StatusDegraded, m.Health(ctx).Status)

	m.SetStatus("database", StatusDown)
	h = m.Health(ctx)
	assert.Equal(t, StatusDown, h.Status)
	assert.Equal(t, map[string]string{"database": StatusDown, "assistant": StatusDegraded}, h.Components)
}

func TestMonitorChecks(t *testing.T) {
	m := NewMonitor()
	ctx := context.Background()

	var failure error
	m.AddCheck("database", func(context.Context) error { return failure })

	h := m.Health(ctx)
	assert.Equal(t, StatusUp, h.Status)
	assert.Equal(t, StatusUp, h.Components["database"])

	failure = errors.New("sql: database is closed")
	h = m.Health(ctx)
	assert.Equal(t, StatusDown, h.Status)
	assert.Equal(t, StatusDown, h.Components["database"])

	failure = nil
	assert.Equal(t, StatusUp, m.Health(ctx).Status)
}

func TestMonitorStatus(t *testing.T) {
	m := NewMonitor()

	_, ok := m.Status("menu")
	assert.False(t, ok)

	m.SetStatus("menu", StatusUp)
	status, ok := m.Status("menu")
	assert.True(t, ok)
	assert.Equal(t, StatusUp, status)
}
