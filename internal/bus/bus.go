package bus

import "context"

// Bus is how workers reach each other.
type Bus interface {
	// Broadcast offers m to every worker except its sender.
	Broadcast(ctx context.Context, m Message) *Receipt
	// SendTargeted offers a copy of m addressed to the named worker only.
	SendTargeted(ctx context.Context, to string, m Message) *Receipt
	// Subscribe observes the shared stream.
	Subscribe() (<-chan Message, func())
}
