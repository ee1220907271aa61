// Package core binds the sharded gateway, the in-memory entity cache and the
// request/response client behind one facade, and runs the event-to-cache
// synchronization pipeline between them.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ZeroTwo-Bot/kord/common"
	"github.com/ZeroTwo-Bot/kord/gateway"
	"github.com/ZeroTwo-Bot/kord/rest"
)

// Config carries everything needed to assemble a Kord instance.
type Config struct {
	Token   string
	Shards  int
	Intents common.Intents

	// Rest handles cache-miss fallbacks and RestOnly reads. Required unless
	// every read goes through CacheOnly.
	Rest rest.Client

	// Strategy picks the default supplier; nil means CacheWithRestFallback.
	Strategy SupplyStrategy

	// MaxReconnectAttempts is passed through to every shard; zero retries
	// forever.
	MaxReconnectAttempts int
}

// Kord is the process-wide handle binding one shard group, one cache, one
// default entity supplier and the outbound event stream. Construct it once
// and pass it explicitly; components never reach for it ambiently.
type Kord struct {
	Cache *DataCache

	logger          *zap.Logger
	config          Config
	gateway         *gateway.MasterGateway
	rest            rest.Client
	defaultSupplier EntitySupplier
	handlers        []gatewayHandler

	events   chan Event
	mu       sync.Mutex
	loggedIn bool
	done     chan struct{}
}

// New assembles a Kord instance. The gateway is not started until Login.
func New(log *zap.Logger, cfg Config) (*Kord, error) {
	if cfg.Token == "" {
		return nil, errors.New("core: token must not be empty")
	}
	if cfg.Shards <= 0 {
		cfg.Shards = 1
	}

	k := &Kord{
		Cache:    NewDataCache(),
		logger:   log,
		config:   cfg,
		gateway:  gateway.NewMasterGateway(log, cfg.Shards),
		rest:     cfg.Rest,
		handlers: defaultHandlers(),
		events:   make(chan Event, 256),
	}

	strategy := cfg.Strategy
	if strategy == nil {
		strategy = CacheWithRestFallback
	}
	k.defaultSupplier = strategy(k)

	return k, nil
}

// Gateway exposes the shard group, for command broadcasts and liveness.
func (k *Kord) Gateway() *gateway.MasterGateway {
	return k.gateway
}

// Rest exposes the request/response client.
func (k *Kord) Rest() rest.Client {
	return k.rest
}

// DefaultSupplier is the read strategy entities and events are bound to
// unless rebound with WithSupplier.
func (k *Kord) DefaultSupplier() EntitySupplier {
	return k.defaultSupplier
}

// Supplier builds a supplier for an explicit strategy against this instance.
func (k *Kord) Supplier(strategy SupplyStrategy) EntitySupplier {
	return strategy(k)
}

// Events is the stream of domain events produced by the synchronization
// pipeline. It is closed after Shutdown once the pipeline drains.
func (k *Kord) Events() <-chan Event {
	return k.events
}

// Login starts every shard and the synchronization pipeline. It returns
// once all shard starts are dispatched, without waiting for any shard to
// reach Connected.
func (k *Kord) Login(ctx context.Context) error {
	k.mu.Lock()
	if k.loggedIn {
		k.mu.Unlock()
		return errors.New("core: already logged in")
	}
	k.loggedIn = true
	k.done = make(chan struct{})
	k.mu.Unlock()

	cfg := gateway.Configuration{
		Token:                k.config.Token,
		Intents:              k.config.Intents,
		MaxReconnectAttempts: k.config.MaxReconnectAttempts,
	}

	k.logger.Sugar().Infof("Starting gateway with %d shard(s).", k.config.Shards)
	if err := k.gateway.Start(ctx, cfg); err != nil {
		return fmt.Errorf("couldn't start gateway: %w", err)
	}

	go k.pump(ctx)
	return nil
}

// pump is the synchronization pipeline: one goroutine drains the merged
// gateway stream in arrival order, so each shard's events hit the cache and
// the outbound stream in that shard's own order.
func (k *Kord) pump(ctx context.Context) {
	defer func() {
		close(k.events)
		close(k.done)
	}()

	for se := range k.gateway.Events() {
		event := k.dispatch(se)
		if event == nil {
			continue
		}

		select {
		case k.events <- event:
		case <-ctx.Done():
			return
		}
	}
}

// dispatch runs the per-domain handlers until one produces a domain event.
func (k *Kord) dispatch(se gateway.ShardEvent) Event {
	for _, handler := range k.handlers {
		if event := handler.Handle(se.Event, se.Shard, k); event != nil {
			return event
		}
	}

	if unknown, ok := se.Event.(gateway.UnknownDispatch); ok {
		k.logger.Sugar().Debugf("Ignoring unknown dispatch %s on shard %d.", unknown.Name, se.Shard)
	}
	return nil
}

// Shutdown detaches every shard and waits for the pipeline to drain. The
// event stream is closed before Shutdown returns.
func (k *Kord) Shutdown() error {
	k.mu.Lock()
	loggedIn, done := k.loggedIn, k.done
	k.mu.Unlock()

	err := k.gateway.DetachAll()
	if loggedIn {
		<-done
	}
	return err
}

// AveragePing aggregates shard liveness, excluding shards that have not
// measured a round-trip yet.
func (k *Kord) AveragePing() (time.Duration, bool) {
	return k.gateway.AveragePing()
}

// GetGuild reads through the default supplier.
func (k *Kord) GetGuild(ctx context.Context, guildID common.Snowflake) (*Guild, error) {
	return k.defaultSupplier.GetGuild(ctx, guildID)
}

// GetUser reads through the default supplier.
func (k *Kord) GetUser(ctx context.Context, userID common.Snowflake) (*User, error) {
	return k.defaultSupplier.GetUser(ctx, userID)
}

// GetChannel reads through the default supplier.
func (k *Kord) GetChannel(ctx context.Context, channelID common.Snowflake) (*Channel, error) {
	return k.defaultSupplier.GetChannel(ctx, channelID)
}
