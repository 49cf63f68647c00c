package application

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistence wraps any failure of the session storage
	ErrPersistence = errors.New("session persistence failed")
	// ErrPeerSend is wrapped by all the errors returned when a notification
	// cannot be delivered to a peer. It never reaches transition callers.
	ErrPeerSend = errors.New("failed to send to peer")
	// ErrPeerClosed ...
	ErrPeerClosed = fmt.Errorf("%w: peer is closed", ErrPeerSend)
	// ErrPeerQueueFull ...
	ErrPeerQueueFull = fmt.Errorf("%w: peer queue is full", ErrPeerSend)
	// ErrNullPeer ...
	ErrNullPeer = errors.New("peer must not be null")
	// ErrSessionClosed is returned when using a session after Close
	ErrSessionClosed = errors.New("session is closed")
)
