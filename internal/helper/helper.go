package helper

import "context"

// CheckDeadline short-circuits work when the caller's context is already
// cancelled or past its deadline.
func CheckDeadline(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
