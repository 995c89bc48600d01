package monitoring

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()

	c.MealAdded()
	c.MealAdded()
	c.MealsDeleted(3)
	c.Persisted(nil)
	c.Persisted(errors.New("disk full"))
	c.Persisted(nil)
	c.ChatHandled(ChatAnswered)
	c.ChatHandled(ChatFailed)
	c.InventoryAdjusted("bolton_dining", -2)
	c.InventoryAdjusted("bolton_dining", 10)
	c.InventoryAdjusted("bolton_dining", -1)
	c.SubscribersChanged(1)
	c.SubscribersChanged(1)
	c.SubscribersChanged(-1)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.mealsAdded))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.mealsDeleted))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.storeWrites.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.storeWrites.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.chatRequests.WithLabelValues(ChatFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.inventoryMoves.WithLabelValues("bolton_dining", "consume")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.inventoryMoves.WithLabelValues("bolton_dining", "restock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.subscribers))
}

func TestMenuFetchMetrics(t *testing.T) {
	c := NewCollector()

	c.MenuFetched("dining-hall-1", "lunch", 120*time.Millisecond, nil)
	c.MenuFetched("dining-hall-1", "dinner", time.Second, errors.New("502"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.menuFailures.WithLabelValues("dining-hall-1", "dinner")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.menuFetch))
}

func TestHandlerExposesRegistry(t *testing.T) {
	c := NewCollector()
	c.MealAdded()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "meals_added_total 1")
	assert.NotContains(t, string(body), "go_goroutines")
}
