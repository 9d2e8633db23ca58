package jeux

import (
	"sync"

	"github.com/udisondev/jeux/internal/model"
)

// ClientRegistry tracks every currently-connected Client. A single
// instance lives for the server's lifetime; it is how one connection's
// service loop finds another (for lookups by username) and how the
// server waits out or forces a clean shutdown.
type ClientRegistry struct {
	mu       sync.Mutex
	empty    *sync.Cond
	clients  map[*Client]struct{}
	maxSize  int
}

// NewClientRegistry creates an empty registry. maxSize <= 0 means
// unbounded.
func NewClientRegistry(maxSize int) *ClientRegistry {
	r := &ClientRegistry{
		clients: make(map[*Client]struct{}),
		maxSize: maxSize,
	}
	r.empty = sync.NewCond(&r.mu)
	return r
}

// Register adds c to the registry. Fails with ErrRegistryFull if the
// registry is already at capacity.
func (r *ClientRegistry) Register(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxSize > 0 && len(r.clients) >= r.maxSize {
		return newError(KindFull, "%w", ErrRegistryFull)
	}
	r.clients[c] = struct{}{}
	return nil
}

// Unregister removes c from the registry. If the registry becomes empty,
// any goroutines blocked in WaitForEmpty are released. It is a no-op if c
// is not currently registered.
func (r *ClientRegistry) Unregister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[c]; !ok {
		return
	}
	delete(r.clients, c)
	if len(r.clients) == 0 {
		r.empty.Broadcast()
	}
}

// Lookup returns the registered client whose logged-in player's name
// matches user, if any.
func (r *ClientRegistry) Lookup(user string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for c := range r.clients {
		if p := c.Player(); p != nil && p.Name() == user {
			return c, true
		}
	}
	return nil, false
}

// hasLiveClientFor reports whether some registered client other than
// caller already holds player. Called from Client.Login while caller's
// own stateMu is held, so caller is excluded from the scan rather than
// having its stateMu locked again (sync.Mutex is not reentrant, and
// caller is already registered by the time Login runs).
func (r *ClientRegistry) hasLiveClientFor(caller *Client, player *model.Player) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for c := range r.clients {
		if c == caller {
			continue
		}
		c.stateMu.Lock()
		p := c.player
		c.stateMu.Unlock()
		if p == player {
			return true
		}
	}
	return false
}

// AllPlayers returns the set of players currently logged in, one entry
// per distinct player (a player has at most one live client, enforced by
// Login).
func (r *ClientRegistry) AllPlayers() []*model.Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := make([]*model.Player, 0, len(r.clients))
	for c := range r.clients {
		if p := c.Player(); p != nil {
			players = append(players, p)
		}
	}
	return players
}

// WaitForEmpty blocks until the registry holds no clients. It may be
// called concurrently by any number of goroutines.
func (r *ClientRegistry) WaitForEmpty() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.clients) > 0 {
		r.empty.Wait()
	}
}

// ShutdownAll closes the underlying connection of every registered
// client. Clients are not unregistered by this call; each connection's
// own service loop is expected to observe the resulting I/O error or EOF
// and unregister itself.
func (r *ClientRegistry) ShutdownAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.clients {
		_ = c.conn.Close()
	}
}

// Count returns the number of currently registered clients.
func (r *ClientRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
