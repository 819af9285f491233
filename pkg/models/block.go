package models

// BlockType discriminates which handler executes a node.
type BlockType string

const (
	BlockTypeEmail       BlockType = "email"
	BlockTypeDatabase    BlockType = "database"
	BlockTypeWebhook     BlockType = "webhook"
	BlockTypeWallet      BlockType = "wallet"
	BlockTypeTransaction BlockType = "transaction"
	BlockTypeCondition   BlockType = "condition"
	BlockTypeTransform   BlockType = "transform"
	BlockTypeCustom      BlockType = "custom"
	BlockTypeLLM         BlockType = "llm"
)

// RequiresAuthorization reports whether nodes of this type must be pre-cleared
// by the authorization collaborator before the handler is invoked.
func (b BlockType) RequiresAuthorization() bool {
	return b == BlockTypeWallet || b == BlockTypeTransaction
}

// ValidationError describes a single configuration problem found by static
// block validation.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of validating a block configuration against
// its schema. Warnings do not prevent execution.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}
