package session

import "errors"

var (
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("session: already started")

	// ErrOpenFailed is returned when the transport refuses to open.
	ErrOpenFailed = errors.New("session: open failed")

	// ErrReplyFailed is returned when a status reply could not be published.
	ErrReplyFailed = errors.New("session: reply publish failed")
)

func isReplyError(err error) bool {
	return errors.Is(err, ErrReplyFailed)
}
