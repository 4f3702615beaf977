package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/mofulabs/mofumarket/internal/store/memory"
)

// fixture wires every service against shared in-memory stores so tests can
// drive full flows (join, bet, call, confirm, reverse) end to end.
type fixture struct {
	parties    *memory.PartyStore
	members    *memory.MemberStore
	events     *memory.EventStore
	bets       *memory.BetStore
	calls      *memory.CallStore
	prices     *memory.PriceHistoryStore
	cache      *memory.PriceCache
	bus        *memory.SignalBus
	party      *PartyService
	market     *MarketService
	resolution *ResolutionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		parties: memory.NewPartyStore(),
		members: memory.NewMemberStore(),
		events:  memory.NewEventStore(),
		calls:   memory.NewCallStore(),
		prices:  memory.NewPriceHistoryStore(),
		cache:   memory.NewPriceCache(),
		bus:     memory.NewSignalBus(),
	}
	f.bets = memory.NewBetStore(f.events)
	settlement := memory.NewSettlementStore(f.events, f.members, f.prices)

	f.party = NewPartyService(f.parties, f.members, logger)
	f.market = NewMarketService(f.events, f.bets, f.members, f.calls, f.prices, f.cache, f.bus, logger)
	f.resolution = NewResolutionService(f.events, f.bets, f.members, f.calls, f.prices, settlement, f.cache, f.bus, nil, logger)
	return f
}
