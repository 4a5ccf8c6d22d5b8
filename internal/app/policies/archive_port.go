package policies

import (
	"context"

	"stayrate/internal/app/dto"
)

// BreakdownArchive stores the priced breakdown of a confirmed booking for
// later audit. Failures are logged by callers and never fail the booking.
type BreakdownArchive interface {
	Store(ctx context.Context, booking dto.Booking) error
}
