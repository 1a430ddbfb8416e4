package sms

import "context"

// Gateway delivers a one-time code to a phone number. Implementations
// must classify failures with the apperr gateway kinds (provider,
// timeout, connection, configuration) and apply a bounded timeout.
type Gateway interface {
	Send(ctx context.Context, phoneNumber, code string) (messageID string, err error)
}
