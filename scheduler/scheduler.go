// Package scheduler drives the gateway's refresh loop: on a cron schedule it
// re-fetches every configured upstream's OpenAPI document concurrently, compiles
// fresh routes, and atomically replaces the routing table while live requests
// continue to be served from the old table right up until the swap.
package scheduler

import (
	"context"
	"sync"
	"time"

	cron "github.com/robfig/cron/v3"

	"openapi-gateway/config"
	"openapi-gateway/fetcher"
	"openapi-gateway/gateway"
	"openapi-gateway/httpclient"
	"openapi-gateway/logger"
	"openapi-gateway/openapi"
)

// guardInterval is slept after every cycle so the minute-resolution cron
// schedule cannot fire twice within the same minute.
const guardInterval = time.Second

// Scheduler holds the parsed cron schedule and the collaborators it needs to
// refresh the routing table.
type Scheduler struct {
	schedule cron.Schedule
	table    *gateway.Table
	clients  *httpclient.Set
	log      *logger.Logger
}

// New parses cronExpr (standard 5-field, minute hour dom month dow) and builds a
// Scheduler bound to table.
func New(cronExpr string, table *gateway.Table, clients *httpclient.Set, log *logger.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, &config.ConfigError{Op: "parse cron expression " + cronExpr, Err: err}
	}
	return &Scheduler{schedule: schedule, table: table, clients: clients, log: log}, nil
}

// RefreshOnce runs a single refresh cycle immediately: fetch, parse, and compile
// every configured upstream concurrently, then swap the routing table. Used both
// for the startup fetch and by Run's cron-triggered cycles.
func (s *Scheduler) RefreshOnce(ctx context.Context) {
	configs := s.table.Configs()
	fresh := make([]gateway.Entry, len(configs))

	var wg sync.WaitGroup
	for i, cfg := range configs {
		wg.Add(1)
		go func(i int, cfg config.OpenApiConfig) {
			defer wg.Done()
			fresh[i] = s.refreshOne(ctx, cfg)
		}(i, cfg)
	}
	wg.Wait()

	s.table.Replace(fresh)
}

// refreshOne fetches, parses, and compiles one upstream. Any failure yields an
// Empty entry (§4.9) that retains Config so the next cycle retries it.
func (s *Scheduler) refreshOne(ctx context.Context, cfg config.OpenApiConfig) gateway.Entry {
	result, err := fetcher.Fetch(ctx, s.clients, cfg.Name, cfg.URL)
	if err != nil {
		s.log.Warn("refresh: fetch failed for %s: %v", cfg.Name, err)
		return gateway.Entry{Config: cfg}
	}

	doc, err := openapi.Parse(result.Bytes, result.Kind, cfg.Name)
	if err != nil {
		s.log.Warn("refresh: parse failed for %s: %v", cfg.Name, err)
		return gateway.Entry{Config: cfg}
	}

	routes, err := openapi.CompileRoutes(doc, cfg.Name)
	if err != nil {
		s.log.Warn("refresh: compile failed for %s: %v", cfg.Name, err)
		return gateway.Entry{Config: cfg}
	}

	return gateway.Entry{
		Config:        cfg,
		DocumentBytes: &gateway.DocumentBytes{Bytes: result.Bytes, ContentType: result.ContentType},
		Routes:        routes,
	}
}

// Run loops forever: sleep until the next cron fire time, run a refresh cycle,
// sleep the guard interval, repeat. It returns promptly once ctx is cancelled, with
// no guarantee that an in-flight cycle completes first.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		now := time.Now().UTC()
		next := s.schedule.Next(now)
		wait := time.Until(next)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.log.Info("refresh: cycle starting")
		s.RefreshOnce(ctx)
		s.log.Info("refresh: cycle complete")

		guard := time.NewTimer(guardInterval)
		select {
		case <-ctx.Done():
			guard.Stop()
			return
		case <-guard.C:
		}
	}
}
