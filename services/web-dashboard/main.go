package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
)

func main() {
	// 1. Konfigurace
	cfg := LoadConfig()

	// 2. MQTT klient a Logger
	// Logger chce psát i do MQTT (logs/web-dashboard), klient ale potřebuje handlery feedu.
	// Proto nejdřív feed bez dashboardu, klient, logger a dashboard se k feedu připojí až pak.
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	feed := NewFeed(cfg.EventsTopic, bootLogger)
	mqttClient := NewMQTTClient(cfg, feed)

	logWriter := io.MultiWriter(os.Stdout, NewMqttLogWriter(mqttClient, "web-dashboard"))
	logger := slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	feed.logger = logger

	logger.Info("Startuji Web Dashboard", "port", cfg.HTTPPort, "api_url", cfg.APIURL, "store", cfg.StoreBackend)

	// Context, který se zruší při SIGINT/SIGTERM (docker stop).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Úložiště stavu zobrazení (zoom grafů, zavřená upozornění)
	store, closeStore, err := OpenViewState(ctx, cfg, logger)
	if err != nil {
		logger.Error("Kritická chyba: view-state úložiště", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// 4. Katalog senzorů a dashboard
	catalog := NewCatalog(NewAPIClient(cfg.APIURL), cfg.HistoryRange, logger)
	dash := NewDashboard(cfg, catalog, store, logger)
	defer dash.Close()

	// První načtení. Nedostupné API start nezastaví: stránka ukáže upozornění a data dorazí s další obnovou.
	if err := dash.Refresh(ctx); err != nil {
		logger.Warn("Home API při startu nedostupné", "error", err)
	}
	dash.Redraw()
	go dash.StartAutoRefresh(ctx, cfg.CatalogRefresh)

	// 5. Živá data z MQTT
	feed.Attach(dash)
	token := mqttClient.Connect()
	// S ConnectRetry token nedoběhne, dokud broker neodpoví; na start čekáme jen chvíli.
	if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		logger.Warn("MQTT broker zatím nedostupný, připojení běží na pozadí", "broker", cfg.MQTTBroker, "error", token.Error())
		dash.ConnectionLost(token.Error())
	}
	defer mqttClient.Disconnect(250)

	// 6. HTTP server
	web, err := NewWebHandler(dash, "templates", logger)
	if err != nil {
		logger.Error("Kritická chyba: Nepodařilo se načíst HTML šablony", "error", err)
		os.Exit(1)
	}

	var h http.Handler = web.Routes()
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	h = handlers.CombinedLoggingHandler(os.Stdout, h)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Ukončuji Web Dashboard...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("Web server naslouchá", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server nečekaně spadl", "error", err)
		os.Exit(1)
	}
}

// parseLevel převede LOG_LEVEL na slog.Level. Neznámá hodnota = info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
