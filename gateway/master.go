package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// MasterGateway owns the full set of shard connections and drives them as a
// unit. Per-shard failures are isolated: a broadcast keeps going when one
// shard errors, and the merged event stream interleaves shards while
// preserving each shard's own order.
type MasterGateway struct {
	logger   *zap.Logger
	gateways map[int]Gateway

	events     chan ShardEvent
	forwarders sync.WaitGroup
	startOnce  sync.Once
	closeOnce  sync.Once
}

// NewMasterGateway builds a group of count shards.
func NewMasterGateway(log *zap.Logger, count int) *MasterGateway {
	gateways := make(map[int]Gateway, count)
	for i := 0; i < count; i++ {
		gateways[i] = NewShard(log)
	}
	return NewMasterGatewayOf(log, gateways)
}

// NewMasterGatewayOf builds a group over pre-constructed shard connections,
// keyed by shard index.
func NewMasterGatewayOf(log *zap.Logger, gateways map[int]Gateway) *MasterGateway {
	return &MasterGateway{
		logger:   log,
		gateways: gateways,
		events:   make(chan ShardEvent, 64),
	}
}

// Gateways exposes the shard mapping.
func (m *MasterGateway) Gateways() map[int]Gateway {
	return m.gateways
}

// Start derives a per-shard configuration for every shard and starts each
// concurrently. It returns once every start call has been dispatched; it
// does not wait for any shard to reach Connected.
func (m *MasterGateway) Start(ctx context.Context, cfg Configuration) error {
	var err error
	m.startOnce.Do(func() {
		cfg.Shard.Total = len(m.gateways)
		for index, gw := range m.gateways {
			m.forwarders.Add(1)
			go m.forward(index, gw)
			if startErr := gw.Start(ctx, cfg.withIndex(index)); startErr != nil {
				err = multierr.Append(err, fmt.Errorf("couldn't start shard %d: %w", index, startErr))
			}
		}
		go func() {
			m.forwarders.Wait()
			m.closeOnce.Do(func() { close(m.events) })
		}()
	})
	return err
}

// forward pumps one shard's events into the merged stream, tagging them
// with the shard index. A single goroutine per shard keeps that shard's
// events in order.
func (m *MasterGateway) forward(index int, gw Gateway) {
	defer m.forwarders.Done()
	for event := range gw.Events() {
		m.events <- ShardEvent{Event: event, Shard: index}
	}
}

// Events is the merged, shard-tagged event stream. It is closed once every
// shard has been detached.
func (m *MasterGateway) Events() <-chan ShardEvent {
	return m.events
}

// SendAll broadcasts a command to every shard. Shard failures are collected,
// not propagated mid-broadcast; partial delivery is not an error for the
// shards that succeeded.
func (m *MasterGateway) SendAll(cmd Command) error {
	var err error
	for index, gw := range m.gateways {
		if sendErr := gw.Send(cmd); sendErr != nil {
			err = multierr.Append(err, fmt.Errorf("shard %d: %w", index, sendErr))
		}
	}
	return err
}

// StopAll gracefully stops every shard; they remain restartable.
func (m *MasterGateway) StopAll() error {
	var err error
	for index, gw := range m.gateways {
		if stopErr := gw.Stop(); stopErr != nil {
			err = multierr.Append(err, fmt.Errorf("shard %d: %w", index, stopErr))
		}
	}
	return err
}

// DetachAll permanently closes every shard and, through the forwarders,
// the merged event stream.
func (m *MasterGateway) DetachAll() error {
	var err error
	for index, gw := range m.gateways {
		if detachErr := gw.Detach(); detachErr != nil {
			err = multierr.Append(err, fmt.Errorf("shard %d: %w", index, detachErr))
		}
	}
	return err
}

// AveragePing is the arithmetic mean of the last measured round-trip of
// every shard that has a measurement. Shards without one are excluded; if
// no shard has measured yet, ok is false.
func (m *MasterGateway) AveragePing() (time.Duration, bool) {
	var sum time.Duration
	var measured int
	for _, gw := range m.gateways {
		if ping, ok := gw.Ping(); ok {
			sum += ping
			measured++
		}
	}
	if measured == 0 {
		return 0, false
	}
	return sum / time.Duration(measured), true
}
