package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/tributary-ai/model-router/internal/types"
)

// Params are the generation knobs forwarded to the upstream model.
type Params struct {
	Temperature float64
	MaxTokens   int
}

// Gateway turns a provider id and a message history into a completion.
// Implementations wrap one vendor SDK each; the Registry fans out by the
// provider id's vendor prefix.
type Gateway interface {
	Complete(ctx context.Context, provider string, messages []types.Message, params Params) (string, error)
}

// Registry routes completion calls to the vendor gateway owning the provider
// id prefix ("openai/", "anthropic/", ...).
type Registry struct {
	vendors map[string]Gateway
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{vendors: make(map[string]Gateway)}
}

// Register binds a vendor prefix (without the trailing slash) to a gateway.
func (r *Registry) Register(vendor string, gw Gateway) {
	r.vendors[vendor] = gw
}

// Complete dispatches to the gateway registered for the provider's vendor.
func (r *Registry) Complete(ctx context.Context, provider string, messages []types.Message, params Params) (string, error) {
	vendor, _, found := strings.Cut(provider, "/")
	if !found {
		return "", fmt.Errorf("malformed provider id %q, want vendor/model", provider)
	}

	gw, ok := r.vendors[vendor]
	if !ok {
		return "", fmt.Errorf("no gateway registered for vendor %q", vendor)
	}
	return gw.Complete(ctx, provider, messages, params)
}
