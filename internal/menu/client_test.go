package menu

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postcardmijo/food/internal/models"
)

const lunchWeek = `{
  "days": [
    {"date": "2024-03-09", "menu_items": []},
    {
      "date": "2024-03-10",
      "menu_info": {
        "11": {"section_options": {"display_name": "Grill"}},
        "12": {"section_options": {}},
        "13": {"section_options": {"display_name": "Deli"}}
      },
      "menu_items": [
        {"menu_id": 11, "food": {
          "name": "Cheeseburger",
          "description": "Beef patty",
          "icons": {"food_icons": {"label": "Contains Milk"}},
          "rounded_nutrition_info": {"g_protein": 25, "g_carbs": 30, "g_fat": 20, "calories": 420}
        }},
        {"menu_id": 11, "food": null},
        {"menu_id": 11, "food": {"name": "*Chef's Special*"}},
        {"menu_id": 13, "food": {"name": "*Closed Today*"}},
        {"menu_id": 12, "food": {
          "name": "Garden Salad",
          "icons": [{"external_name": "Vegan"}, {"label": "Gluten Free"}],
          "rounded_nutrition_info": {"g_protein": 2, "g_carbs": null, "g_fat": 1}
        }},
        {"menu_id": 99, "food": {"name": "Mystery Soup"}}
      ]
    }
  ]
}`

type recordingObserver struct {
	calls  atomic.Int32
	errors atomic.Int32
}

func (o *recordingObserver) MenuFetched(_, _ string, _ time.Duration, err error) {
	o.calls.Add(1)
	if err != nil {
		o.errors.Add(1)
	}
}

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/school/dining-hall-1/menu-type/lunch/2024/03/10/"):
			w.Write([]byte(lunchWeek))
		case strings.Contains(r.URL.Path, "/menu-type/dinner/"):
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Write([]byte(`{"days": []}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		Halls:     []Hall{{ID: "dining-hall-1", Name: "Bolton Dining Commons"}, {ID: "dining-hall-2", Name: "Oglethorpe"}},
		MealTypes: []string{"breakfast", "lunch", "dinner"},
		Timeout:   time.Second,
	}
}

func TestFetchFlattensMenu(t *testing.T) {
	srv := newTestAPI(t)
	observer := &recordingObserver{}
	client := NewClient(testConfig(srv.URL), observer)

	menu, err := client.Fetch(context.Background(), time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2024-03-10", menu.Date)
	require.Len(t, menu.Halls, 1)
	hall := menu.Halls["dining-hall-1"]
	assert.Equal(t, "Bolton Dining Commons", hall.Name)
	require.Len(t, hall.Meals, 1)

	lunch := hall.Meals["lunch"]
	require.Len(t, lunch["Grill"], 1)
	burger := lunch["Grill"][0]
	assert.Equal(t, "Cheeseburger", burger.Name)
	assert.Equal(t, []string{"Contains Milk"}, burger.DietaryInfo)
	assert.Equal(t, models.Nutrition{Protein: 25, Carbs: 30, Fat: 20}, burger.Nutrition)

	salad := lunch["Station 12"][0]
	assert.Equal(t, []string{"Vegan", "Gluten Free"}, salad.DietaryInfo)
	assert.Equal(t, 0.0, salad.Nutrition.Carbs)

	assert.Len(t, lunch["Unknown Station (99)"], 1)
	assert.NotContains(t, lunch, "Deli")

	assert.EqualValues(t, 6, observer.calls.Load())
	assert.EqualValues(t, 2, observer.errors.Load())
}

func TestFetchDescribe(t *testing.T) {
	srv := newTestAPI(t)
	client := NewClient(testConfig(srv.URL), nil)

	menu, err := client.Fetch(context.Background(), time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	text := menu.Describe()
	assert.Contains(t, text, "Dining Hall: Bolton Dining Commons")
	assert.Contains(t, text, "    Station: Grill")
	assert.Contains(t, text, "      - Cheeseburger [Contains Milk]: Beef patty")
	assert.Contains(t, text, "      - Mystery Soup: No description")
}

func TestFetchCanceled(t *testing.T) {
	srv := newTestAPI(t)
	client := NewClient(testConfig(srv.URL), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Fetch(ctx, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}

type countingFetcher struct {
	calls int
	menu  *models.Menu
}

func (f *countingFetcher) Fetch(context.Context, time.Time) (*models.Menu, error) {
	f.calls++
	return f.menu, nil
}

func TestCacheKeepsOneMenuPerDay(t *testing.T) {
	fetcher := &countingFetcher{menu: &models.Menu{Halls: map[string]models.Hall{"h": {ID: "h"}}}}
	cache := NewCache(fetcher)
	ctx := context.Background()
	day := time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)

	_, err := cache.Get(ctx, day)
	require.NoError(t, err)
	_, err = cache.Get(ctx, day.Add(6*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)

	_, err = cache.Get(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)

	for i := 2; i < 12; i++ {
		_, err = cache.Get(ctx, day.AddDate(0, 0, i))
		require.NoError(t, err)
	}
	assert.Len(t, cache.menus, maxCachedDays)
}

func TestCacheSkipsEmptyMenus(t *testing.T) {
	fetcher := &countingFetcher{menu: &models.Menu{}}
	cache := NewCache(fetcher)
	day := time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)

	cache.Get(context.Background(), day)
	cache.Get(context.Background(), day)
	assert.Equal(t, 2, fetcher.calls)
}

func TestDescribeEmptyMenu(t *testing.T) {
	var menu *models.Menu
	assert.Equal(t, "No food items available today.", menu.Describe())
}
