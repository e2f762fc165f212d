// Package inference defines the Inference Kit external collaborator
// (spec.md §6 item 1): optional LLM completion and embedding providers
// that every kernel component must fall back from gracefully. Grounded
// on the Python original's shared/inference_kit.py dependency-injection
// container (llm, embedder fields, has_llm/has_embedder properties) and
// on itsneelabh-gomind's pkg/ai/interfaces.go AIClient contract for the
// completion shape.
package inference

import "context"

// Message is one turn in an LLM completion request.
type Message struct {
	Role    string
	Content string
}

// CompletionConfig parameterizes an LLM completion call.
type CompletionConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// CompletionResult is the normalized shape of an LLM response, per
// spec.md §6: "llm.complete(messages, config) -> {content, tokens_in,
// tokens_out}".
type CompletionResult struct {
	Content   string
	TokensIn  int
	TokensOut int
}

// LLM is the optional completion provider.
type LLM interface {
	Complete(ctx context.Context, messages []Message, cfg CompletionConfig) (CompletionResult, error)
}

// Embedder is the optional embedding provider used by goal drift
// detection, claim grading, and context reading.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Kit is the dependency-injection container kernel components accept
// instead of a hard dependency on a concrete provider. A nil field means
// that capability is unavailable and the caller must use its documented
// heuristic fallback.
type Kit struct {
	LLM      LLM
	LLMCfg   CompletionConfig
	Embedder Embedder
}

// Empty returns a Kit with no providers, forcing every consumer onto its
// fallback path. Used in tests and in lightweight deployments.
func Empty() Kit {
	return Kit{}
}

func (k Kit) HasLLM() bool      { return k.LLM != nil }
func (k Kit) HasEmbedder() bool { return k.Embedder != nil }
