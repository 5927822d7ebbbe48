package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/basin-cli/internal/hydro"
	"github.com/sells-group/basin-cli/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		ttl := time.Duration(cfg.Server.SessionTTLMinutes) * time.Minute
		sessions := server.NewSessions(e.Deps, defaults(), ttl)
		go sessions.RunSweeper(ctx, time.Minute)

		opts := server.Options{
			Sessions:       sessions,
			Store:          st,
			CalcRPS:        cfg.Server.CalcRPS,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}
		// Vector tiles are rendered by PostGIS and need the postgres source.
		if e.Pool != nil {
			var cache *hydro.TileCache
			if cfg.Server.TileCacheEntries > 0 {
				cache = hydro.NewTileCache(cfg.Server.TileCacheEntries,
					time.Duration(cfg.Server.TileCacheTTLMins)*time.Minute)
			}
			opts.Tiles = hydro.NewTileHandler(e.Pool, cache)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           server.New(opts).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.Bool("tiles", opts.Tiles != nil))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
