// Package live pushes derived game state to connected clients: clock snapshots
// sampled on an interval and full games after every mutation.
package live

import (
	"context"
	"sync"

	"github.com/maxviazov/matchday-session-service/internal/model"
)

// Topic identifies one watched game.
type Topic struct {
	TeamID string
	GameID string
}

const (
	MessageClock = "clock"
	MessageGame  = "game"
)

// Message is one update for a topic's clients.
type Message struct {
	Type  string               `json:"type"`
	Clock *model.ClockSnapshot `json:"clock,omitempty"`
	Game  *model.Game          `json:"game,omitempty"`
}

// Client is one connection watching a single game.
type Client struct {
	Topic Topic
	Send  chan Message
}

// NewClient builds a client with a buffered outbox.
func NewClient(teamID, gameID string) *Client {
	return &Client{Topic: Topic{TeamID: teamID, GameID: gameID}, Send: make(chan Message, 16)}
}

type envelope struct {
	topic Topic
	msg   Message
}

// Hub tracks clients per topic. All map writes happen on the Run goroutine.
type Hub struct {
	clients map[Topic]map[*Client]bool
	mu      sync.RWMutex

	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[Topic]map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is done. Remaining
// clients have their outbox closed on exit.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for topic, clients := range h.clients {
				for c := range clients {
					close(c.Send)
				}
				delete(h.clients, topic)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.Topic] == nil {
				h.clients[c.Topic] = make(map[*Client]bool)
			}
			h.clients[c.Topic][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.remove(c)

		case env := <-h.broadcast:
			h.mu.RLock()
			targets := make([]*Client, 0, len(h.clients[env.topic]))
			for c := range h.clients[env.topic] {
				targets = append(targets, c)
			}
			h.mu.RUnlock()

			for _, c := range targets {
				select {
				case c.Send <- env.msg:
				default:
					// slow client
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[c.Topic]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.Send)
	if len(clients) == 0 {
		delete(h.clients, c.Topic)
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Register starts delivering the client's topic to it. After Run has
// returned the client's outbox is closed instead.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.Send)
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues msg for every client watching topic. It is dropped once Run has returned.
func (h *Hub) Broadcast(topic Topic, msg Message) {
	select {
	case h.broadcast <- envelope{topic: topic, msg: msg}:
	case <-h.done:
	}
}

// PublishGame broadcasts a mutated game. Its signature matches the session
// service's change listener.
func (h *Hub) PublishGame(teamID string, g model.Game) {
	h.Broadcast(Topic{TeamID: teamID, GameID: g.ID}, Message{Type: MessageGame, Game: &g})
}

// Topics lists every topic with at least one client.
func (h *Hub) Topics() []Topic {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Topic, 0, len(h.clients))
	for t := range h.clients {
		out = append(out, t)
	}
	return out
}
