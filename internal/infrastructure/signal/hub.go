package signal

import (
	"context"
	"encoding/json"
	"time"

	"parley/internal/core/domain"
	"parley/internal/core/services"
	"parley/internal/infrastructure/monitoring"

	"go.uber.org/zap"
)

type eventKind int

const (
	eventRegister eventKind = iota
	eventUnregister
	eventFrame
	eventMalformed
	eventPong
)

type event struct {
	kind eventKind
	c    *client
	msg  Message
}

// Hub owns every live connection and runs the single event loop that
// serializes registration, inbound frames, pong replies and liveness ticks.
// Presence transitions happen inside the loop via the presence service, so no
// two state mutations ever interleave. Writes to clients go through buffered
// per-connection queues and never block the loop.
type Hub struct {
	presence *services.PresenceService
	clients  map[domain.UserID]*client
	events   chan event

	pingInterval   time.Duration
	maxMissedBeats int
	sendBuffer     int

	metrics *monitoring.Collector
	logger  *zap.SugaredLogger
}

type HubOptions struct {
	// PingInterval is the liveness probe period.
	PingInterval time.Duration
	// MaxMissedBeats is the number of consecutive unanswered probes after
	// which a connection is evicted.
	MaxMissedBeats int
	// SendBuffer is the per-connection outbound queue length. A full queue
	// forfeits the frame rather than stall the event loop.
	SendBuffer int
}

func NewHub(opts HubOptions, metrics *monitoring.Collector, logger *zap.SugaredLogger) *Hub {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 2 * time.Second
	}
	if opts.MaxMissedBeats <= 0 {
		opts.MaxMissedBeats = 3
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 32
	}
	h := &Hub{
		clients:        make(map[domain.UserID]*client),
		events:         make(chan event, 64),
		pingInterval:   opts.PingInterval,
		maxMissedBeats: opts.MaxMissedBeats,
		sendBuffer:     opts.SendBuffer,
		metrics:        metrics,
		logger:         logger,
	}
	h.presence = services.NewPresenceService(h, logger)
	return h
}

// Run processes events until ctx is cancelled. Exactly one Run per hub.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case ev := <-h.events:
			h.handleEvent(ev)
		case <-ticker.C:
			h.checkLiveness()
		}
	}
}

func (h *Hub) handleEvent(ev event) {
	switch ev.kind {
	case eventRegister:
		h.register(ev.c)
	case eventUnregister:
		h.unregister(ev.c)
	case eventFrame:
		h.dispatch(ev.c, ev.msg)
	case eventMalformed:
		h.metrics.MessageRejected()
		h.sendToClient(ev.c, Message{Type: TypeError, Data: mustRaw([]string{"invalid message format"})})
	case eventPong:
		ev.c.missedBeats = 0
	}
}

// register installs a connection. A second connection for the same user wins:
// the stale transport is closed and its record replaced (last-write-wins).
func (h *Hub) register(c *client) {
	if old, ok := h.clients[c.id]; ok {
		h.logger.Infow("replacing connection for reconnecting user", "user_id", c.id)
		close(old.send)
		old.conn.Close()
		// The stale read pump's unregister will be ignored, so the gauge has
		// to come down here.
		h.metrics.ClientDisconnected()
	}
	h.clients[c.id] = c
	h.presence.Register(c.id, c.email)
	h.metrics.ClientConnected()
	h.metrics.SetActiveRooms(h.presence.RoomCount())
	h.logger.Infow("connected", "user_id", c.id, "email", c.email)
}

func (h *Hub) unregister(c *client) {
	cur, ok := h.clients[c.id]
	if !ok || cur != c {
		// Already replaced by a newer connection; the presence record
		// belongs to the replacement now.
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	h.presence.Disconnect(c.id)
	h.metrics.ClientDisconnected()
	h.metrics.SetActiveRooms(h.presence.RoomCount())
	h.logger.Infow("closed", "user_id", c.id)
}

// dispatch routes one decoded frame to the state machine or the relay.
func (h *Hub) dispatch(c *client, msg Message) {
	h.metrics.MessageReceived(msg.Type)

	switch msg.Type {
	case TypeJoinRoom:
		var data JoinRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			h.metrics.MessageRejected()
			h.sendToClient(c, Message{Type: TypeError, Data: mustRaw([]string{"invalid message format"})})
			return
		}
		h.presence.JoinRoom(c.id, data.To)
		h.metrics.SetActiveRooms(h.presence.RoomCount())

	case TypeExitRoom:
		h.presence.ExitRoom(c.id)
		h.metrics.SetActiveRooms(h.presence.RoomCount())

	case TypeTransferOffer, TypeTransferAnswer, TypeTransferCandidate:
		h.relay(c, msg)

	default:
		h.logger.Infow("unknown message type", "user_id", c.id, "type", msg.Type)
	}
}

// relay forwards a negotiation payload to the named target with the sender's
// identity injected. Best-effort: self-sends and offline targets are dropped
// silently, and no room membership is required.
func (h *Hub) relay(c *client, msg Message) {
	var data TransferData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.metrics.MessageRejected()
		h.sendToClient(c, Message{Type: TypeError, Data: mustRaw([]string{"invalid message format"})})
		return
	}
	if data.To == c.id {
		return
	}
	target, ok := h.clients[data.To]
	if !ok {
		return
	}

	forwarded, err := newMessage(msg.Type, relayData{
		ID:        c.id,
		Offer:     data.Offer,
		Answer:    data.Answer,
		Candidate: data.Candidate,
	})
	if err != nil {
		h.logger.Errorw("failed to build relay frame", "type", msg.Type, "error", err)
		return
	}
	h.sendToClient(target, forwarded)
	h.metrics.FrameRelayed(msg.Type)
}

// checkLiveness evicts connections that missed maxMissedBeats consecutive
// probes, then probes the survivors. Eviction closes the transport, which
// cascades into the normal disconnect path via the read pump.
func (h *Hub) checkLiveness() {
	for _, c := range h.clients {
		if c.missedBeats >= h.maxMissedBeats {
			h.logger.Infow("liveness timeout", "user_id", c.id)
			h.metrics.ClientEvicted()
			c.conn.Close()
			continue
		}
		c.missedBeats++
		h.push(c, outbound{ping: true})
	}
}

func (h *Hub) shutdown() {
	pending := len(h.clients)
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
		c.conn.Close()
	}

	// Every open read pump delivers exactly one unregister, and a register
	// always precedes its connection's unregister. Drain until all of them
	// are in so no pump blocks on the event channel after the loop exits.
	for pending > 0 {
		ev := <-h.events
		switch ev.kind {
		case eventRegister:
			close(ev.c.send)
			ev.c.conn.Close()
			pending++
		case eventUnregister:
			pending--
		}
	}
}

// BroadcastRoster implements ports.RosterNotifier.
func (h *Hub) BroadcastRoster(roster []domain.RosterEntry) {
	msg, err := newMessage(TypeCurrentUsers, roster)
	if err != nil {
		h.logger.Errorw("failed to build roster frame", "error", err)
		return
	}
	for _, c := range h.clients {
		h.push(c, outbound{msg: msg})
	}
}

// NotifyJoined implements ports.RosterNotifier.
func (h *Hub) NotifyJoined(to domain.UserID, joiner domain.UserID) {
	h.sendTo(to, TypeJoinedRoom, userData{ID: joiner})
}

// NotifyExited implements ports.RosterNotifier.
func (h *Hub) NotifyExited(to []domain.UserID, leaver domain.UserID) {
	for _, id := range to {
		h.sendTo(id, TypeExitedRoom, userData{ID: leaver})
	}
}

// SendErrors implements ports.RosterNotifier.
func (h *Hub) SendErrors(to domain.UserID, errs []string) {
	h.sendTo(to, TypeError, errs)
}

func (h *Hub) sendTo(id domain.UserID, msgType string, data interface{}) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	msg, err := newMessage(msgType, data)
	if err != nil {
		h.logger.Errorw("failed to build frame", "type", msgType, "error", err)
		return
	}
	h.sendToClient(c, msg)
}

func (h *Hub) sendToClient(c *client, msg Message) {
	h.push(c, outbound{msg: msg})
}

func (h *Hub) push(c *client, out outbound) {
	select {
	case c.send <- out:
	default:
		h.logger.Warnw("send queue full, dropping frame", "user_id", c.id)
	}
}

func mustRaw(v interface{}) json.RawMessage {
	raw, _ := json.Marshal(v)
	return raw
}
