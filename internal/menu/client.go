package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/postcardmijo/food/internal/models"
)

// ErrUnknownHall is returned when a hall/meal/station is not on the menu
var ErrUnknownHall = errors.New("unknown dining hall, meal or station")

const maxParallelFetches = 8

// Hall names a dining hall known to the menu API
type Hall struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Config describes where and what to fetch
type Config struct {
	Organization string        `yaml:"organization"`
	BaseURL      string        `yaml:"base_url"`
	Halls        []Hall        `yaml:"halls"`
	MealTypes    []string      `yaml:"meal_types"`
	Timeout      time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the University of Georgia dining setup
func DefaultConfig() Config {
	return Config{
		Organization: "uga",
		Halls: []Hall{
			{ID: "dining-hall-1", Name: "Bolton Dining Commons"},
			{ID: "dining-hall-2", Name: "Oglethorpe Dining Commons"},
			{ID: "dining-hall-3", Name: "Snelling Dining Commons"},
			{ID: "dining-hall-4", Name: "The Niche (Health Sciences Campus)"},
			{ID: "dining-hall-5", Name: "The Village Summit (Joe Frank Harris)"},
		},
		MealTypes: []string{"breakfast", "lunch", "dinner", "late-1", "late-2", "over-night"},
		Timeout:   10 * time.Second,
	}
}

// Observer is notified of every upstream request
type Observer interface {
	MenuFetched(hall, meal string, elapsed time.Duration, err error)
}

// Client fetches and flattens menus from the Nutrislice weeks API
type Client struct {
	httpClient *http.Client
	cfg        Config
	observer   Observer
}

// NewClient creates a menu client
func NewClient(cfg Config, observer Observer) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		observer:   observer,
	}
}

type weekResponse struct {
	Days []dayResponse `json:"days"`
}

type dayResponse struct {
	Date      string              `json:"date"`
	MenuInfo  map[string]menuInfo `json:"menu_info"`
	MenuItems []menuItem          `json:"menu_items"`
}

type menuInfo struct {
	SectionOptions struct {
		DisplayName string `json:"display_name"`
	} `json:"section_options"`
}

type menuItem struct {
	MenuID json.Number `json:"menu_id"`
	Food   *food       `json:"food"`
}

type food struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Icons       json.RawMessage  `json:"icons"`
	Nutrition   models.Nutrition `json:"rounded_nutrition_info"`
}

type icon struct {
	ExternalName string `json:"external_name"`
	Label        string `json:"label"`
}

type fetchResult struct {
	hall     string
	meal     string
	stations models.Stations
}

// Fetch retrieves every configured hall and meal type for date in parallel.
// Failed requests are logged and contribute no items.
func (c *Client) Fetch(ctx context.Context, date time.Time) (*models.Menu, error) {
	dateString := date.Format(models.DateLayout)

	results := make([]fetchResult, 0, len(c.cfg.Halls)*len(c.cfg.MealTypes))
	for _, hall := range c.cfg.Halls {
		for _, meal := range c.cfg.MealTypes {
			results = append(results, fetchResult{hall: hall.ID, meal: meal})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for i := range results {
		res := &results[i]
		g.Go(func() error {
			start := time.Now()
			stations, err := c.fetchOne(gctx, res.hall, res.meal, date)
			if c.observer != nil {
				c.observer.MenuFetched(res.hall, res.meal, time.Since(start), err)
			}
			if err != nil {
				log.Printf("menu: fetching %s/%s failed: %v", res.hall, res.meal, err)
				return nil
			}
			res.stations = stations
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	menu := &models.Menu{
		Date:      dateString,
		UpdatedAt: time.Now(),
		Halls:     make(map[string]models.Hall),
	}
	for _, res := range results {
		if len(res.stations) == 0 || strings.HasPrefix(res.meal, "*") {
			continue
		}
		hall, ok := menu.Halls[res.hall]
		if !ok {
			hall = models.Hall{ID: res.hall, Name: c.hallName(res.hall), Meals: make(map[string]models.Stations)}
		}
		hall.Meals[res.meal] = res.stations
		menu.Halls[res.hall] = hall
	}
	return menu, nil
}

// hallName returns the display name of a configured hall
func (c *Client) hallName(id string) string {
	for _, h := range c.cfg.Halls {
		if h.ID == id {
			return h.Name
		}
	}
	return id
}

func (c *Client) url(hall, meal string, date time.Time) string {
	base := c.cfg.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.api.nutrislice.com", c.cfg.Organization)
	}
	return fmt.Sprintf("%s/menu/api/weeks/school/%s/menu-type/%s/%04d/%02d/%02d/?format=json",
		strings.TrimRight(base, "/"), hall, meal, date.Year(), int(date.Month()), date.Day())
}

func (c *Client) fetchOne(ctx context.Context, hall, meal string, date time.Time) (models.Stations, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(hall, meal, date), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting menu: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var week weekResponse
	if err := json.NewDecoder(resp.Body).Decode(&week); err != nil {
		return nil, fmt.Errorf("decoding menu: %w", err)
	}

	dateString := date.Format(models.DateLayout)
	for _, day := range week.Days {
		if day.Date == dateString {
			return groupByStation(day), nil
		}
	}
	return nil, nil
}

func groupByStation(day dayResponse) models.Stations {
	stations := make(models.Stations)
	for _, item := range day.MenuItems {
		// starred names are headings and notices, not dishes
		if item.Food == nil || strings.HasPrefix(item.Food.Name, "*") {
			continue
		}

		id := item.MenuID.String()
		station := fmt.Sprintf("Unknown Station (%s)", id)
		if info, ok := day.MenuInfo[id]; ok {
			station = info.SectionOptions.DisplayName
			if station == "" {
				station = "Station " + id
			}
		}

		stations[station] = append(stations[station], models.MenuFood{
			Name:        item.Food.Name,
			Description: item.Food.Description,
			DietaryInfo: dietaryInfo(item.Food.Icons),
			Nutrition:   item.Food.Nutrition,
		})
	}
	return stations
}

// dietaryInfo accepts icons published either as a list or as an object
func dietaryInfo(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var icons []icon
	if err := json.Unmarshal(raw, &icons); err != nil {
		var keyed map[string]icon
		if err := json.Unmarshal(raw, &keyed); err != nil {
			return nil
		}
		for _, k := range sortedIconKeys(keyed) {
			icons = append(icons, keyed[k])
		}
	}

	var labels []string
	for _, ic := range icons {
		switch {
		case ic.ExternalName != "":
			labels = append(labels, ic.ExternalName)
		case ic.Label != "":
			labels = append(labels, ic.Label)
		}
	}
	return labels
}

func sortedIconKeys(m map[string]icon) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
