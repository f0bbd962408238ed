package observer

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/metrics"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/observerproto"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/nametag"
)

const (
	clientBuffer = 1024
	maxBatch     = 256

	defaultPongWait = 60 * time.Second
)

// Hub streams rendered name tags to websocket observers. It implements
// mobs.TagSink; PublishTag never blocks, slow clients lose their oldest
// updates.
type Hub struct {
	log         *logrus.Entry
	worlds      func() []string
	allowRemote bool
	pongWait    time.Duration

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.RWMutex
	clients map[string]*client
}

type Options struct {
	// Worlds lists world names for the HELLO message.
	Worlds func() []string
	// AllowRemote accepts non-loopback observers.
	AllowRemote bool
	// PongWait is how long a silent observer stays connected without answering
	// a ping. Pings go out every 9/10 of it. Defaults to 60s.
	PongWait time.Duration
}

type filter struct {
	worlds   map[string]bool
	species  map[string]bool
	minLevel int
}

func (f *filter) match(u mobs.TagUpdate) bool {
	if f == nil {
		return true
	}
	if len(f.worlds) > 0 && !f.worlds[u.World] {
		return false
	}
	if len(f.species) > 0 && !f.species[u.Species] {
		return false
	}
	return u.Level >= f.minLevel
}

type client struct {
	id      string
	out     chan observerproto.TagUpdate
	filter  atomic.Pointer[filter]
	dropped atomic.Uint64
}

func NewHub(log *logrus.Entry, opts Options) *Hub {
	if opts.Worlds == nil {
		opts.Worlds = func() []string { return nil }
	}
	if opts.PongWait <= 0 {
		opts.PongWait = defaultPongWait
	}
	return &Hub{
		log:         log,
		worlds:      opts.Worlds,
		allowRemote: opts.AllowRemote,
		pongWait:    opts.PongWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: map[string]*client{},
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) PublishTag(u mobs.TagUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}
	msg := observerproto.TagUpdate{
		CreatureID: u.CreatureID,
		World:      u.World,
		Species:    u.Species,
		Level:      u.Level,
		NameTag:    u.NameTag,
		Plain:      nametag.StripColor(u.NameTag),
	}
	for _, c := range h.clients {
		if !c.filter.Load().match(u) {
			continue
		}
		if !sendLatest(c.out, msg) {
			c.dropped.Add(1)
		}
	}
}

// sendLatest enqueues v, discarding the oldest queued value when ch is full.
// It reports false when something was discarded.
func sendLatest(ch chan observerproto.TagUpdate, v observerproto.TagUpdate) bool {
	select {
	case ch <- v:
		return true
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
	return false
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	metrics.ObserverClients.Set(float64(n))
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	n := len(h.clients)
	h.mu.Unlock()
	metrics.ObserverClients.Set(float64(n))
}

func parseSubscribe(b []byte) (*filter, error) {
	var sub observerproto.SubscribeMsg
	if err := json.Unmarshal(b, &sub); err != nil {
		return nil, err
	}
	if sub.Type != observerproto.TypeSubscribe {
		return nil, fmt.Errorf("expected %s, got %q", observerproto.TypeSubscribe, sub.Type)
	}
	if sub.ProtocolVersion != observerproto.Version {
		return nil, fmt.Errorf("unsupported protocol_version %q", sub.ProtocolVersion)
	}
	f := &filter{minLevel: sub.MinLevel}
	if len(sub.Worlds) > 0 {
		f.worlds = make(map[string]bool, len(sub.Worlds))
		for _, w := range sub.Worlds {
			f.worlds[strings.TrimSpace(w)] = true
		}
	}
	if len(sub.Species) > 0 {
		f.species = make(map[string]bool, len(sub.Species))
		for _, s := range sub.Species {
			f.species[strings.ToUpper(strings.TrimSpace(s))] = true
		}
	}
	return f, nil
}

// Handler serves the feed at /v1/nametags/ws.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !h.allowRemote && !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		f, err := parseSubscribe(msg)
		if err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()), time.Now().Add(time.Second))
			return
		}

		c := &client{
			id:  fmt.Sprintf("N%d", h.nextID.Add(1)),
			out: make(chan observerproto.TagUpdate, clientBuffer),
		}
		c.filter.Store(f)
		h.register(c)
		defer h.unregister(c.id)

		log := h.log.WithField("session", c.id)
		log.Debug("observer subscribed")

		hello := observerproto.HelloMsg{
			Type:            observerproto.TypeHello,
			ProtocolVersion: observerproto.Version,
			SessionID:       c.id,
			Worlds:          h.worlds(),
		}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(hello); err != nil {
			return
		}

		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(h.pongWait))
		})

		done := make(chan struct{})
		writeErr := make(chan error, 1)
		go func() {
			writeErr <- h.writeLoop(conn, c, done)
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			f, err := parseSubscribe(msg)
			if err != nil {
				log.WithError(err).Debug("ignoring bad subscribe")
				continue
			}
			c.filter.Store(f)
		}

		close(done)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
		log.Debug("observer left")
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, c *client, done <-chan struct{}) error {
	batch := make([]observerproto.TagUpdate, 0, maxBatch)
	ping := time.NewTicker(h.pongWait * 9 / 10)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return nil
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		case u := <-c.out:
			batch = append(batch[:0], u)
		fill:
			for len(batch) < maxBatch {
				select {
				case u := <-c.out:
					batch = append(batch, u)
				default:
					break fill
				}
			}
			msg := observerproto.TagsMsg{
				Type:            observerproto.TypeTags,
				ProtocolVersion: observerproto.Version,
				Tags:            batch,
				Dropped:         c.dropped.Swap(0),
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				return err
			}
		}
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
