package domain

import "errors"

// ErrNotFound reports that a thread or its history does not exist on the
// remote service. For history fetches this is not an error condition for
// callers; a brand-new thread simply has no messages yet.
var ErrNotFound = errors.New("not found")
