package progress

import "errors"

// ErrUnknownGameType is returned when a game identifier is outside the
// closed set of game families. No state changes when it is returned.
var ErrUnknownGameType = errors.New("unknown game type")

// ErrInvalidScore is returned for scores outside [0, 100].
var ErrInvalidScore = errors.New("score out of range")

// ErrInvalidPreferences is returned when a preference update breaks a goal
// invariant (goals must be at least 1).
var ErrInvalidPreferences = errors.New("invalid preferences")

// ErrEmptyActivityID is returned when an operation names no activity.
var ErrEmptyActivityID = errors.New("activity id is required")
