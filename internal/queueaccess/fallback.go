package queueaccess

import (
	"context"
	"fmt"

	"murmur/internal/api"
)

// Session represents an access handle and its cleanup function.
type Session struct {
	Access Access
	// Remote is true when operations go through a running daemon.
	Remote bool
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// LocalOpener builds an in-process service and the function that releases it.
type LocalOpener func() (*api.Service, func() error, error)

// OpenWithFallback tries the daemon API first, then falls back to direct store
// access.
func OpenWithFallback(ctx context.Context, dial func() (*api.Client, error), openLocal LocalOpener) (Session, error) {
	if dial != nil {
		if client, err := dial(); err == nil && client.Ping(ctx) == nil {
			return Session{Access: client, Remote: true}, nil
		}
	}

	if openLocal == nil {
		return Session{}, fmt.Errorf("open queue store: no store opener configured")
	}
	svc, closeFn, err := openLocal()
	if err != nil {
		return Session{}, fmt.Errorf("open queue store: %w", err)
	}
	return Session{Access: svc, close: closeFn}, nil
}
