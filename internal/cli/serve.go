package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/habitloop/backend/internal/catalog"
	"github.com/habitloop/backend/internal/config"
	"github.com/habitloop/backend/internal/httpapi"
	"github.com/habitloop/backend/internal/progression"
	"github.com/habitloop/backend/internal/service"
	"github.com/habitloop/backend/internal/store"
	"github.com/habitloop/backend/internal/ws"
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the progression API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	defs, err := loadCatalogue(cfg)
	if err != nil {
		return err
	}
	engine, err := progression.NewEngine(defs)
	if err != nil {
		return err
	}

	svc := service.New(engine, st)
	broadcaster := ws.NewBroadcaster(originChecker(cfg.Server.AllowedOrigins))

	srv := httpapi.NewServer(svc, broadcaster.Handler)
	srv.SetClientCounter(broadcaster.ClientCount)

	var metrics *httpapi.Metrics
	if cfg.Metrics.Enabled {
		metrics = httpapi.NewMetrics()
		srv.EnableMetrics(metrics)
	}

	svc.OnEvent(func(ev service.Event) {
		broadcaster.Publish(ev)
		if metrics != nil {
			metrics.Observe(ev)
		}
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(ctx)
	}()

	log.Printf("habitd listening on http://%s (%d achievements, %s store)",
		addr, len(defs), cfg.Store.Backend)
	if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// loadConfig reads the --config file, or returns defaults when no file is
// given.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		dir := cfg.Store.Dir
		if dir == "" {
			dir = store.DefaultDir()
		}
		return store.OpenSQLite(dir)
	default:
		return store.NewFileStore(cfg.Store.Dir), nil
	}
}

func loadCatalogue(cfg *config.Config) ([]progression.AchievementDefinition, error) {
	if cfg.Catalog.Path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(cfg.Catalog.Path)
}

// originChecker allows any origin when the list is empty, matching the
// development default.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		return set[r.Header.Get("Origin")]
	}
}
