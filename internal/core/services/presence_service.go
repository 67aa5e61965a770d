package services

import (
	"sort"

	"parley/internal/core/domain"
	"parley/internal/core/ports"

	"go.uber.org/zap"
)

// PresenceService is the connection registry and the presence state machine.
// It owns the map of online users and is the single writer of their
// status/peer relationships.
//
// The service is not internally synchronized: every call must come from the
// hub's event loop (or a single test goroutine), which serializes joins,
// exits, disconnects and liveness evictions against each other.
type PresenceService struct {
	notifier ports.RosterNotifier
	clients  map[domain.UserID]*domain.Client
	logger   *zap.SugaredLogger
}

func NewPresenceService(notifier ports.RosterNotifier, logger *zap.SugaredLogger) *PresenceService {
	return &PresenceService{
		notifier: notifier,
		clients:  make(map[domain.UserID]*domain.Client),
		logger:   logger,
	}
}

// Register records a newly connected user as idle and broadcasts the roster.
// A second connection for the same id wins over the first: the stale record is
// taken through the normal room-exit path and replaced. The caller is
// responsible for closing the stale transport. Returns whether an existing
// record was replaced.
func (s *PresenceService) Register(id domain.UserID, email string) bool {
	old, replaced := s.clients[id]
	if replaced {
		s.leaveRoom(old)
		delete(s.clients, id)
	}

	s.clients[id] = &domain.Client{
		ID:     id,
		Email:  email,
		Status: domain.StatusIdle,
	}
	s.notifier.BroadcastRoster(s.Roster())
	return replaced
}

// Disconnect handles an abrupt close or liveness eviction: an implicit room
// exit, then deregistration, then a final roster broadcast.
func (s *PresenceService) Disconnect(id domain.UserID) {
	c, ok := s.clients[id]
	if !ok {
		return
	}
	s.leaveRoom(c)
	delete(s.clients, id)
	s.notifier.BroadcastRoster(s.Roster())
}

// JoinRoom pairs the caller as a guest of target. Self-joins are silently
// ignored; validation failures are reported to the caller only.
func (s *PresenceService) JoinRoom(id, target domain.UserID) {
	if target == id {
		return
	}
	me, ok := s.clients[id]
	if !ok {
		s.logger.Warnw("join from unregistered client", "user_id", id)
		return
	}
	joined, ok := s.clients[target]
	if !ok {
		s.notifier.SendErrors(id, []string{domain.MsgTargetOffline})
		return
	}
	// Guests cannot be joined; only hosts and idle users can.
	if joined.Status == domain.StatusGuest {
		s.notifier.SendErrors(id, []string{domain.MsgTargetUnavailable})
		return
	}
	if me.InRoom() {
		s.notifier.SendErrors(id, []string{domain.MsgAlreadyInMeeting})
		return
	}

	me.Status = domain.StatusGuest
	me.Peers = []domain.UserID{target}
	joined.Status = domain.StatusHost
	joined.Peers = append(joined.Peers, id)

	s.notifier.BroadcastRoster(s.Roster())
	// Only the host learns about the join directly; existing guests pick the
	// change up from the roster broadcast.
	s.notifier.NotifyJoined(target, id)
}

// ExitRoom removes the caller from its room. A no-op for idle users.
func (s *PresenceService) ExitRoom(id domain.UserID) {
	c, ok := s.clients[id]
	if !ok {
		return
	}
	s.leaveRoom(c)
}

// leaveRoom applies the exit transition for c and emits the broadcast and
// exit notices. Idle clients are left untouched.
func (s *PresenceService) leaveRoom(c *domain.Client) {
	switch c.Status {
	case domain.StatusHost:
		s.hostLeaves(c)
	case domain.StatusGuest:
		s.guestLeaves(c)
	}
}

// hostLeaves hands the room to the oldest guest. With a single guest the
// meeting dissolves; otherwise the promoted host inherits the remaining
// guests, who are re-pointed at it.
func (s *PresenceService) hostLeaves(me *domain.Client) {
	guests := me.Peers
	newHost, ok := s.clients[guests[0]]
	if !ok {
		s.logger.Errorw("host peer list references offline guest",
			"host_id", me.ID, "guest_id", guests[0])
		me.Status = domain.StatusIdle
		me.Peers = nil
		s.notifier.BroadcastRoster(s.Roster())
		return
	}

	if len(guests) == 1 {
		newHost.Status = domain.StatusIdle
		newHost.Peers = nil
	} else {
		newHost.Status = domain.StatusHost
		remaining := make([]domain.UserID, 0, len(guests)-1)
		for _, g := range guests[1:] {
			if g != me.ID {
				remaining = append(remaining, g)
			}
		}
		newHost.Peers = remaining
		for _, g := range remaining {
			if gc, ok := s.clients[g]; ok {
				gc.Peers = []domain.UserID{newHost.ID}
			}
		}
	}

	me.Status = domain.StatusIdle
	me.Peers = nil

	s.notifier.BroadcastRoster(s.Roster())
	s.notifyRoomExited(newHost, me.ID)
}

func (s *PresenceService) guestLeaves(me *domain.Client) {
	host, ok := s.clients[me.Peers[0]]
	me.Status = domain.StatusIdle
	me.Peers = nil
	if !ok {
		s.logger.Errorw("guest references offline host", "guest_id", me.ID)
		s.notifier.BroadcastRoster(s.Roster())
		return
	}

	host.RemovePeer(me.ID)
	if len(host.Peers) == 0 {
		host.Status = domain.StatusIdle
	}

	s.notifier.BroadcastRoster(s.Roster())
	s.notifyRoomExited(host, me.ID)
}

// notifyRoomExited sends I_EXITED_ROOM to the room anchor and its remaining
// guests, excluding the leaver.
func (s *PresenceService) notifyRoomExited(host *domain.Client, leaver domain.UserID) {
	recipients := make([]domain.UserID, 0, len(host.Peers)+1)
	recipients = append(recipients, host.ID)
	for _, g := range host.Peers {
		if g != leaver {
			recipients = append(recipients, g)
		}
	}
	s.notifier.NotifyExited(recipients, leaver)
}

// Roster builds the full snapshot of online users, peers resolved through the
// registry. Sorted by id so consecutive snapshots are comparable.
func (s *PresenceService) Roster() []domain.RosterEntry {
	roster := make([]domain.RosterEntry, 0, len(s.clients))
	for _, c := range s.clients {
		entry := domain.RosterEntry{
			ID:     c.ID,
			Email:  c.Email,
			Status: c.Status,
			With:   make([]domain.RosterPeer, 0, len(c.Peers)),
		}
		for _, p := range c.Peers {
			pc, ok := s.clients[p]
			if !ok {
				continue
			}
			entry.With = append(entry.With, domain.RosterPeer{
				ID:     pc.ID,
				Email:  pc.Email,
				Status: pc.Status,
			})
		}
		roster = append(roster, entry)
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].ID < roster[j].ID })
	return roster
}

// Lookup returns the live record for id. The returned pointer is owned by the
// service; callers must not retain it across events.
func (s *PresenceService) Lookup(id domain.UserID) (*domain.Client, bool) {
	c, ok := s.clients[id]
	return c, ok
}

// Online reports whether id has a registered connection.
func (s *PresenceService) Online(id domain.UserID) bool {
	_, ok := s.clients[id]
	return ok
}

// Count returns the number of registered connections.
func (s *PresenceService) Count() int {
	return len(s.clients)
}

// RoomCount returns the number of active rooms (distinct hosts).
func (s *PresenceService) RoomCount() int {
	n := 0
	for _, c := range s.clients {
		if c.Status == domain.StatusHost {
			n++
		}
	}
	return n
}
