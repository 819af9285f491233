// Package blocks defines the contract every block handler satisfies and the
// execution budgets per block class. Handler implementations live in
// subpackages, one per block kind.
package blocks

import (
	"context"
	"time"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

// Handler executes one node of a workflow graph. Implementations receive the
// execution context (upstream outputs, trigger data, authorization) and
// return the node output. The executor bounds the call with a deadline; a
// handler is responsible for honoring ctx cancellation during its own I/O.
type Handler interface {
	Execute(ctx context.Context, execCtx models.ExecutionContext) (any, error)
}

// Factory creates handler instances for one block kind and describes it.
// Factories are registered at process start; dispatch to an unregistered
// kind is a hard failure for the node.
type Factory interface {
	// Create builds a handler bound to the given node configuration.
	Create(ctx context.Context, node *models.Node) (Handler, error)

	// ID returns the block kind discriminator this factory serves.
	ID() models.BlockType

	// Name returns the human-readable name for this block kind.
	Name() string

	// Description returns what this block does.
	Description() string

	// Schema returns the JSON schema for this block's configuration. Static
	// config validation runs against it before execution.
	Schema() map[string]any

	// Timeout returns the execution budget for this block class: short for
	// in-process transforms, long for on-chain transactions awaiting
	// confirmation.
	Timeout() time.Duration
}

// Execution budgets by block class.
const (
	TimeoutInProcess = 10 * time.Second // transform, condition, custom
	TimeoutNetwork   = 30 * time.Second // webhook, email, database
	TimeoutLLM       = 2 * time.Minute  // llm completions
	TimeoutOnChain   = 5 * time.Minute  // wallet, transaction confirmation waits
)
