package domain

// Status is the presence state of a connected user.
type Status string

const (
	StatusIdle  Status = "idle"
	StatusHost  Status = "host"
	StatusGuest Status = "guest"
)

// Client is the connection record for one online user. Peers holds user ids,
// resolved through the registry on demand; records never point at each other.
//
// The status/peers invariant:
//
//	idle  -> Peers empty
//	host  -> Peers are the current guests, in join order
//	guest -> Peers is exactly the host id
type Client struct {
	ID     UserID
	Email  string
	Status Status
	Peers  []UserID
}

// InRoom reports whether the client is currently hosting or guesting.
func (c *Client) InRoom() bool {
	return c.Status != StatusIdle
}

// RemovePeer deletes id from the peer list, preserving join order.
func (c *Client) RemovePeer(id UserID) {
	peers := c.Peers[:0]
	for _, p := range c.Peers {
		if p != id {
			peers = append(peers, p)
		}
	}
	c.Peers = peers
}

// RosterPeer is the public view of a paired user inside a roster entry.
type RosterPeer struct {
	ID     UserID `json:"id"`
	Email  string `json:"email"`
	Status Status `json:"status"`
}

// RosterEntry is the public view of one online user, as sent to every
// connected client in a CURRENT_USERS broadcast.
type RosterEntry struct {
	ID     UserID       `json:"id"`
	Email  string       `json:"email"`
	Status Status       `json:"status"`
	With   []RosterPeer `json:"with"`
}
