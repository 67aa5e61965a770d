package signal

import (
	"encoding/json"

	"parley/internal/core/domain"
)

// Inbound frame types.
const (
	TypeJoinRoom          = "JOIN_ROOM"
	TypeExitRoom          = "EXIT_ROOM"
	TypeTransferOffer     = "TRANSFER_OFFER"
	TypeTransferAnswer    = "TRANSFER_ANSWER"
	TypeTransferCandidate = "TRANSFER_CANDIDATE"
)

// Outbound frame types.
const (
	TypeCurrentUsers = "CURRENT_USERS"
	TypeJoinedRoom   = "I_JOINED_ROOM"
	TypeExitedRoom   = "I_EXITED_ROOM"
	TypeError        = "ERROR"
)

// Message is the wire frame. Data is decoded once, at the boundary, into the
// payload type selected by Type.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// JoinRoomData is the JOIN_ROOM payload.
type JoinRoomData struct {
	To domain.UserID `json:"to"`
}

// TransferData is the payload shared by the three relay frame types. The
// negotiation fields are opaque to the server and forwarded verbatim.
type TransferData struct {
	To        domain.UserID   `json:"to"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// relayData is the outbound relay payload: the inbound payload with the
// target replaced by the sender's identity.
type relayData struct {
	ID        domain.UserID   `json:"id"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// userData carries the subject of I_JOINED_ROOM / I_EXITED_ROOM notices.
type userData struct {
	ID domain.UserID `json:"id"`
}

// newMessage marshals data into a frame. The payload types used here are all
// marshalable by construction, so an error means a programming bug.
func newMessage(msgType string, data interface{}) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Data: raw}, nil
}
