package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a stored entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidLink is returned for input that is not a Spotify playlist link.
	ErrInvalidLink = errors.New("invalid input")
	// ErrJoinMismatch is returned when track and feature lists cannot be joined.
	ErrJoinMismatch = errors.New("join mismatch")
	// ErrInvalidQuery is returned for an event search that cannot be sent.
	ErrInvalidQuery = errors.New("invalid query")
)

// JoinMismatchError describes why two source lists could not be joined.
type JoinMismatchError struct {
	TrackPlaylistID   string
	FeaturePlaylistID string
	Tracks            int
	Features          int
}

func (e *JoinMismatchError) Error() string {
	if e.TrackPlaylistID != e.FeaturePlaylistID {
		return fmt.Sprintf("join mismatch: playlist %q vs %q", e.TrackPlaylistID, e.FeaturePlaylistID)
	}
	return fmt.Sprintf("join mismatch: %d tracks vs %d feature records", e.Tracks, e.Features)
}

func (e *JoinMismatchError) Is(target error) bool {
	return target == ErrJoinMismatch
}
