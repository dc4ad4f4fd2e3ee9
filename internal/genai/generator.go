// Package genai is the boundary to the external AI text-generation provider.
package genai

import (
	"context"

	"github.com/unionlens/contract-assistant/internal/plan"
)

// Generator produces an answer grounded in contract text. Implementations may
// block on network I/O; failures must be returned, never partial answers.
type Generator interface {
	GenerateAnswer(ctx context.Context, contractText, question string, tier plan.Tier) (string, error)
}
