package domain

import "errors"

var (
	// ErrSendInProgress rejects a streamed send started while another one
	// is still assembling. Callers retry; nothing is queued.
	ErrSendInProgress = errors.New("a streamed send is already in progress")

	// ErrHistoryNotFound signals that stored history could not be loaded
	// for the requested session.
	ErrHistoryNotFound = errors.New("chat history not found")
)
