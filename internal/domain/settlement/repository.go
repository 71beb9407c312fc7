package settlement

import (
	"context"
	"errors"
)

// ErrAlreadySettled is returned when the conditional is_synced update
// inside the settlement transaction matches no row, meaning a
// concurrent settlement won the race.
var ErrAlreadySettled = errors.New("match already settled")

// Repository applies a settlement plan atomically.
type Repository interface {
	Apply(ctx context.Context, plan Plan) error
}
