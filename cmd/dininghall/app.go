package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jinzhu/gorm"

	"github.com/postcardmijo/food/internal/api"
	"github.com/postcardmijo/food/internal/assistant"
	"github.com/postcardmijo/food/internal/config"
	"github.com/postcardmijo/food/internal/database"
	"github.com/postcardmijo/food/internal/inventory"
	"github.com/postcardmijo/food/internal/meals"
	"github.com/postcardmijo/food/internal/menu"
	"github.com/postcardmijo/food/internal/monitoring"
	"github.com/postcardmijo/food/internal/tracker"
)

// app owns every long-lived component
type app struct {
	cfg       *config.Config
	db        *gorm.DB
	metrics   *monitoring.Collector
	monitor   *monitoring.Monitor
	store     *meals.Store
	menus     *menu.Cache
	inventory *inventory.Service
	tracker   *tracker.Tracker
	assistant *assistant.Assistant
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		db:      db,
		metrics: monitoring.NewCollector(),
		monitor: monitoring.NewMonitor(),
	}
	a.monitor.AddCheck("database", func(context.Context) error { return database.Ping(db) })

	slot, err := meals.NewGormSlot(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	a.store = meals.NewStore(slot,
		meals.WithKey(cfg.Meals.StorageKey),
		meals.WithDefaultWindow(cfg.Meals.DefaultWindow),
		meals.WithObserver(a.metrics),
	)
	a.monitor.SetStatus("meals", monitoring.StatusUp)
	if err := a.store.Load(ctx); err != nil {
		log.Printf("meals: load failed, starting from memory: %v", err)
		a.monitor.SetStatus("meals", monitoring.StatusDegraded)
	}

	repo, err := inventory.NewRepository(db, cfg.Inventory.SeedQuantity)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	a.inventory = inventory.NewService(repo, inventory.NewHub(a.metrics.SubscribersChanged), a.metrics)
	a.monitor.SetStatus("inventory", monitoring.StatusUp)

	a.menus = menu.NewCache(menu.NewClient(cfg.Menu, a.metrics))
	a.monitor.SetStatus("menu", monitoring.StatusUp)

	a.tracker = tracker.New(a.menus, a.store, a.inventory, cfg.Inventory.HallMapping)

	model, err := assistant.NewModel(cfg.Assistant.ProviderConfig)
	if err != nil {
		log.Printf("assistant: disabled: %v", err)
		a.monitor.SetStatus("assistant", monitoring.StatusDegraded)
	} else {
		a.assistant = assistant.New(model, cfg.Assistant.Options)
		a.monitor.SetStatus("assistant", monitoring.StatusUp)
	}

	return a, nil
}

func (a *app) server() *api.Server {
	deps := api.Deps{
		Meals:     a.store,
		Menus:     a.menus,
		Tracker:   a.tracker,
		Inventory: a.inventory,
		Forecast:  a.cfg.Inventory.Forecast,
		Monitor:   a.monitor,
		Metrics:   a.metrics,

		MealContextLimit: a.cfg.Assistant.MealContextLimit,
	}
	if a.assistant != nil {
		deps.Assistant = a.assistant
	}
	return api.NewServer(deps)
}

func (a *app) close(ctx context.Context) error {
	if a.tracker != nil {
		a.tracker.Wait()
	}
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			log.Printf("meals: close failed: %v", err)
		}
	}
	if err := database.Close(a.db); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}
