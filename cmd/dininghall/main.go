package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/postcardmijo/food/internal/inventory"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "dininghall",
		Short:         "Meal diary, dining hall menus and kitchen inventory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path to configuration file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newProgressCmd(&configPath))
	root.AddCommand(newForecastCmd(&configPath))
	root.AddCommand(newResetCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API and metrics servers",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler: a.server().Router,
	}

	metricsRouter := gin.New()
	metricsRouter.GET("/metrics", gin.WrapH(a.metrics.Handler()))
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Server.MetricsPort),
		Handler: metricsRouter,
	}

	go func() {
		log.Printf("Starting metrics server on port %d", a.cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics server error: %v", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting API server on port %d", a.cfg.Server.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Println("Shutting down servers...")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("API server shutdown error: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Metrics server shutdown error: %v", err)
	}
	if err := a.close(shutdownCtx); err != nil {
		log.Printf("Close error: %v", err)
	}
	return serveErr
}

func newProgressCmd(configPath *string) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Print the calorie series and summary for the trailing window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			return printJSON(cmd, map[string]interface{}{
				"points":  a.store.ProgressData(days),
				"summary": a.store.Summarize(days),
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "window length in days")
	return cmd
}

func newForecastCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "forecast <item-id>",
		Short: "Project when an inventory item runs out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q: %w", args[0], err)
			}

			ctx := context.Background()
			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			item, err := a.inventory.Get(ctx, uint(id))
			if err != nil {
				return err
			}
			return printJSON(cmd, inventory.Project(*item, time.Now(), a.cfg.Inventory.Forecast))
		},
	}
}

func newResetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-daily",
		Short: "Zero the consumed-today counters of every mapped hall",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			for _, hall := range a.cfg.Inventory.HallMapping {
				if err := a.inventory.ResetDaily(ctx, hall); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "reset %s\n", hall)
			}
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
