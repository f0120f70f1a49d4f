package combat

import "errors"

// Expected combat outcomes. Callers match with errors.Is and translate to
// protocol reject reasons; none of these indicate a bug.
var (
	ErrInsufficientResource = errors.New("combat: insufficient resource")
	ErrLocked               = errors.New("combat: actor is in recovery")
	ErrEmptyQueue           = errors.New("combat: reaction queue is empty")
	ErrInvalidTarget        = errors.New("combat: invalid target")
	ErrUnknownAbility       = errors.New("combat: unknown ability")
)
