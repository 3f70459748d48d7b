// Command openapi-gateway runs the aggregation reverse-proxy: it loads the
// configured upstream OpenAPI documents, serves an aggregated /docs UI, and
// forwards every other request to whichever upstream's routes claim it.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"openapi-gateway/config"
	"openapi-gateway/gateway"
	"openapi-gateway/httpclient"
	"openapi-gateway/logger"
	"openapi-gateway/scheduler"
	"openapi-gateway/server"
)

func main() {
	configPath := flag.String("config", "", "path to the TOML configuration file")
	addr := flag.String("addr", "0.0.0.0:8080", "address to listen on")
	flag.Parse()

	log := logger.New("gateway", logger.INFO)

	cfg, err := config.NewManager(*configPath).Load()
	if err != nil {
		log.Error("startup: %v", err)
		os.Exit(1)
	}

	table := gateway.NewTable(cfg.OpenApiURLs)
	clients := httpclient.New()

	sched, err := scheduler.New(cfg.ReloadCron, table, clients, log)
	if err != nil {
		log.Error("startup: %v", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("startup: fetching %d upstream(s)", len(cfg.OpenApiURLs))
	sched.RefreshOnce(ctx)

	go sched.Run(ctx)

	handler := server.New(table, clients, cfg.GlobalCors, log)

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutdown: signal received")
		httpServer.Close()
	}()

	log.Info("listening on %s", *addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("serve: %v", err)
		os.Exit(1)
	}
}
