package offline

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Connectivity reports whether the network is reachable and notifies
// subscribers on change.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Subscribers are invoked from the goroutine that observed the
//   change; they must not block.
type Connectivity interface {
	// Online reports current reachability.
	Online() bool

	// Subscribe registers fn to run on every state change. The returned
	// function deregisters it.
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// ManualConnectivity is a Connectivity whose state is driven by the
// application, for hosts that learn about connectivity elsewhere (and
// for tests).
type ManualConnectivity struct {
	mu     sync.Mutex
	online bool
	nextID int
	subs   map[int]func(bool)
}

// NewManualConnectivity creates a manual connectivity signal.
func NewManualConnectivity(online bool) *ManualConnectivity {
	return &ManualConnectivity{online: online, subs: make(map[int]func(bool))}
}

// Online reports the current state.
func (c *ManualConnectivity) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// SetOnline updates the state, notifying subscribers on change.
func (c *ManualConnectivity) SetOnline(online bool) {
	c.mu.Lock()
	if c.online == online {
		c.mu.Unlock()
		return
	}
	c.online = online
	subs := make([]func(bool), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		notifyQuietly(fn, online)
	}
}

// Subscribe registers a state-change listener.
func (c *ManualConnectivity) Subscribe(fn func(online bool)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func notifyQuietly(fn func(bool), online bool) {
	defer func() {
		_ = recover()
	}()
	fn(online)
}

// ProbeConnectivityConfig configures ProbeConnectivity.
type ProbeConnectivityConfig struct {
	// URL is probed with a HEAD request; any response means online.
	URL string

	// Interval between probes.
	// Default: 30s
	Interval time.Duration

	// HTTPClient to probe with.
	// Default: client with 5s timeout
	HTTPClient *http.Client
}

// ProbeConnectivity derives connectivity by periodically probing an
// endpoint. It embeds a ManualConnectivity, so the same Subscribe
// surface applies.
type ProbeConnectivity struct {
	*ManualConnectivity

	config ProbeConnectivityConfig
	stop   chan struct{}
	done   chan struct{}
}

// NewProbeConnectivity creates a probe-driven connectivity signal. It
// starts optimistic (online) and adjusts after the first probe; call
// Start to begin probing and Close to stop.
func NewProbeConnectivity(config ProbeConnectivityConfig) *ProbeConnectivity {
	// Apply defaults
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 5 * time.Second}
	}

	return &ProbeConnectivity{
		ManualConnectivity: NewManualConnectivity(true),
		config:             config,
		stop:               make(chan struct{}),
		done:               make(chan struct{}),
	}
}

// Start launches the probe loop.
func (c *ProbeConnectivity) Start() {
	go func() {
		defer close(c.done)

		ticker := time.NewTicker(c.config.Interval)
		defer ticker.Stop()

		c.probe()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				c.probe()
			}
		}
	}()
}

// Close stops the probe loop and waits for it to exit.
func (c *ProbeConnectivity) Close() {
	close(c.stop)
	<-c.done
}

func (c *ProbeConnectivity) probe() {
	timeout := c.config.HTTPClient.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.config.URL, nil)
	if err != nil {
		c.SetOnline(false)
		return
	}

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		c.SetOnline(false)
		return
	}
	resp.Body.Close()

	// Any response at all proves the network path works.
	c.SetOnline(true)
}

// Ensure both implementations satisfy Connectivity
var (
	_ Connectivity = (*ManualConnectivity)(nil)
	_ Connectivity = (*ProbeConnectivity)(nil)
)
