package kvcache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	pr "github.com/unkn0wn-root/kvcache/provider"
)

type connState uint8

const (
	stateDisconnected connState = iota
	stateConnected
)

func (s connState) String() string {
	if s == stateConnected {
		return "connected"
	}
	return "disconnected"
}

// connection owns at most one store handle. Dialing happens outside the lock, so
// concurrent starts may dial more than once; the first handle installed wins and
// the others are closed.
type connection struct {
	dial  pr.Dialer
	cfg   pr.Config
	log   Logger
	hooks Hooks

	mu     sync.RWMutex
	state  connState
	handle pr.Provider
}

func newConnection(dial pr.Dialer, cfg pr.Config, log Logger, hooks Hooks) *connection {
	return &connection{dial: dial, cfg: cfg, log: log, hooks: hooks}
}

func (c *connection) start(ctx context.Context) error {
	if c.current() != nil {
		return nil
	}

	h, err := c.dial(ctx, c.cfg)
	if err == nil && h == nil {
		err = errors.New("dialer returned a nil handle")
	}
	if err != nil {
		hosts := c.hostList()
		c.hooks.ConnectFailed(hosts, err)
		c.log.Error("connect failed", Fields{"hosts": hosts, "err": err})
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	c.mu.Lock()
	if c.handle != nil {
		c.mu.Unlock()
		c.hooks.DuplicateHandle()
		if cerr := h.Close(ctx); cerr != nil {
			c.log.Warn("closing duplicate handle failed", Fields{"err": cerr})
		}
		return nil
	}
	c.handle = h
	c.state = stateConnected
	c.mu.Unlock()

	c.log.Info("connected", Fields{"hosts": c.hostList()})
	return nil
}

func (c *connection) stop() {
	c.mu.Lock()
	h := c.handle
	c.handle = nil
	c.state = stateDisconnected
	c.mu.Unlock()

	if h == nil {
		return
	}
	// in-flight operations holding h will fail with the store's closed error
	if err := h.Close(context.Background()); err != nil {
		c.log.Warn("close failed", Fields{"err": err})
	}
	c.log.Info("disconnected", nil)
}

func (c *connection) ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handle != nil && c.state == stateConnected
}

// current returns the live handle or nil.
func (c *connection) current() pr.Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != stateConnected {
		return nil
	}
	return c.handle
}

func (c *connection) hostList() []string {
	out := make([]string, len(c.cfg.Hosts))
	for i, h := range c.cfg.Hosts {
		out[i] = h.String()
	}
	return out
}
