package server

import (
	"sort"
	"sync"
)

// Tracks the sessions that are currently running.
//
// The acceptor adds sessions and each session removes itself, from its own
// goroutine.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*session)}
}

func (r *registry) add(s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.id] = s
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Returns the peer addresses of running sessions, sorted.
func (r *registry) peers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	peers := make([]string, 0, len(r.sessions))
	for _, s := range r.sessions {
		peers = append(peers, s.peer)
	}
	sort.Strings(peers)
	return peers
}
