package domain

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailInUse   = errors.New("email in use")
)

// Validation messages surfaced to the acting user as ERROR frames. The exact
// wording is part of the wire protocol.
const (
	MsgTargetOffline     = "The user is not online!"
	MsgTargetUnavailable = "The user is currently not available!"
	MsgAlreadyInMeeting  = "You are in a meeting now!"
)
