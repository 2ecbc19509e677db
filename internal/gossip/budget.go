package gossip

import (
	"slices"
	"strings"
	"sync"
)

// Budget is a token bucket measured in bytes and refilled per turn rather
// than per second, so simulated and live runs behave the same.
type Budget struct {
	mu        sync.Mutex
	tokens    float64
	maxTokens float64
	rate      float64 // bytes per turn
	last      int64
	started   bool
}

// NewBudget creates a budget with the given fill rate and burst capacity.
func NewBudget(bytesPerTurn, burstBytes float64) *Budget {
	if burstBytes == 0 {
		burstBytes = bytesPerTurn
	}
	return &Budget{
		tokens:    burstBytes,
		maxTokens: burstBytes,
		rate:      bytesPerTurn,
	}
}

// Allow checks whether size bytes can be spent at turn now.
func (b *Budget) Allow(size int, now int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started && now > b.last {
		b.tokens += float64(now-b.last) * b.rate
		if b.tokens > b.maxTokens {
			b.tokens = b.maxTokens
		}
	}
	if !b.started || now > b.last {
		b.last, b.started = now, true
	}

	cost := float64(size)
	if cost > b.tokens {
		return false
	}
	b.tokens -= cost
	return true
}

// Coalescer keeps only the latest payload per peer.
type Coalescer struct {
	mu    sync.Mutex
	peers map[string]Peer
}

// NewCoalescer creates an empty coalescer.
func NewCoalescer() *Coalescer {
	return &Coalescer{peers: make(map[string]Peer)}
}

// Add queues p, replacing any earlier payload from the same peer.
func (c *Coalescer) Add(p Peer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peers[p.ID] = p
}

// Get returns the latest payload queued for id.
func (c *Coalescer) Get(id string) (Peer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.peers[id]
	return p, ok
}

// Len returns the number of peers queued.
func (c *Coalescer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.peers)
}

// Peers returns the queued payloads ordered by peer id without clearing.
func (c *Coalescer) Peers() []Peer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sorted()
}

// Drain returns the queued payloads ordered by peer id and clears the queue.
func (c *Coalescer) Drain() []Peer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.sorted()
	c.peers = make(map[string]Peer)
	return out
}

func (c *Coalescer) sorted() []Peer {
	out := make([]Peer, 0, len(c.peers))
	for _, p := range c.peers {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Peer) int { return strings.Compare(a.ID, b.ID) })
	return out
}
