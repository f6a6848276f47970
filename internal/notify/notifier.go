package notify

import "context"

// Notifier dispatches a one-time code to a mobile number. Implementations must
// treat delivery as best-effort; callers never roll back code issuance on a
// dispatch failure.
type Notifier interface {
	Send(ctx context.Context, mobile, code string) error
}
