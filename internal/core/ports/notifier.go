package ports

import "parley/internal/core/domain"

// RosterNotifier delivers presence events to connected clients. Implemented by
// the signal hub. Calls are made synchronously from inside presence
// transitions, so implementations must not block on slow receivers.
type RosterNotifier interface {
	// BroadcastRoster sends the full roster snapshot to every connected user.
	BroadcastRoster(roster []domain.RosterEntry)

	// NotifyJoined tells the room host that joiner entered its room.
	NotifyJoined(to domain.UserID, joiner domain.UserID)

	// NotifyExited tells each recipient that leaver left their room.
	NotifyExited(to []domain.UserID, leaver domain.UserID)

	// SendErrors delivers validation errors to the acting user only.
	SendErrors(to domain.UserID, errs []string)
}
