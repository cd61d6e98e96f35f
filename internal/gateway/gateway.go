package gateway

import "context"

// Messenger defines the interface for chat gateways (Telegram, ...)
type Messenger interface {
	// Start runs the message loop until ctx is cancelled or Stop is called.
	// Runs started by incoming messages inherit ctx.
	Start(ctx context.Context) error
	// Stop gracefully shuts down the gateway
	Stop() error
}
