package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mofulabs/mofumarket/internal/server"
	"github.com/mofulabs/mofumarket/internal/server/handler"
	"github.com/mofulabs/mofumarket/internal/server/ws"
	"github.com/mofulabs/mofumarket/internal/service"
)

// Serve builds the service layer on top of the wired dependencies and runs
// the HTTP server plus the WebSocket hub until the context is cancelled.
func (a *App) Serve(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)

	partySvc := service.NewPartyService(deps.PartyStore, deps.MemberStore, a.logger)
	marketSvc := service.NewMarketService(
		deps.EventStore, deps.BetStore, deps.MemberStore, deps.CallStore,
		deps.PriceHistory, deps.PriceCache, deps.SignalBus, a.logger,
	)
	resolutionSvc := service.NewResolutionService(
		deps.EventStore, deps.BetStore, deps.MemberStore, deps.CallStore,
		deps.PriceHistory, deps.SettlementStore, deps.PriceCache,
		deps.SignalBus, deps.Notifier, a.logger,
	)

	hub := ws.NewHub(deps.SignalBus, a.logger)
	g.Go(func() error {
		if err := hub.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	srv := server.NewServer(
		server.Config{
			Port:            a.cfg.Server.Port,
			CORSOrigins:     a.cfg.Server.CORSOrigins,
			APIKey:          a.cfg.Server.APIKey,
			RateLimit:       a.cfg.Server.RateLimit,
			RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
		},
		server.Handlers{
			Health:  handler.NewHealthHandler(a.logger),
			Parties: handler.NewPartyHandler(partySvc, a.logger),
			Events:  handler.NewEventHandler(marketSvc, a.logger),
			Bets:    handler.NewBetHandler(marketSvc, a.logger),
			Calls:   handler.NewCallHandler(resolutionSvc, a.logger),
		},
		hub,
		deps.RateLimiter,
		a.logger,
	)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}
