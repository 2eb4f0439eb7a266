// Package agent defines the worker contract the orchestrator supervises, the
// canonical request shape workers process, and the four domain workers.
package agent

import (
	"context"

	"github.com/aurakai/genesis/internal/bus"
)

// Worker names.
const (
	NameCascade     = "Cascade"
	NameKai         = "Kai"
	NameAura        = "Aura"
	NameOracleDrive = "OracleDrive"
)

// Agent is an independently lifecycled worker.
type Agent interface {
	// Name is the unique worker name used as the message sender.
	Name() string
	// Aliases are the lowercase names the worker can be addressed by.
	Aliases() []string

	// Initialize prepares the worker. ctx is the worker's own execution context
	// and stays live until the worker is shut down.
	Initialize(ctx context.Context) error
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error

	// OnMessage handles a broadcast or targeted message.
	OnMessage(ctx context.Context, m bus.Message) error
	// ProcessRequest answers a canonical request. requestContext names where
	// the request came from, e.g. "agent_to_agent".
	ProcessRequest(ctx context.Context, req Request, requestContext string) (*Response, error)
}
