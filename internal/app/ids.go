package app

import "github.com/google/uuid"

// NewPlayerID issues an opaque identity for a browser or client seat.
func NewPlayerID() string { return uuid.NewString() }

func newGameID() string { return uuid.NewString() }
