package interaction

import (
	"context"
)

// Signature describes the payload shapes a handler accepts and produces.
// Values are free-form type names ("object", "order", "empty") used for
// listing and diagnostics, not enforced at dispatch time.
type Signature struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Handler is a named unit of work that recipe steps dispatch to. Names are
// unique across the whole registry. Invoke must be safe for concurrent use:
// the engine may run overlapping invocations of the same handler.
type Handler interface {
	// Name returns the unique handler name.
	Name() string

	// Signature returns the handler's declared input/output shapes.
	Signature() Signature

	// Invoke runs the handler against the given input payload. The context
	// carries cancellation from the dispatching recipe.
	Invoke(ctx context.Context, input map[string]any) (map[string]any, error)
}

// Func adapts a plain function to the Handler interface.
type Func struct {
	name      string
	signature Signature
	invoke    func(ctx context.Context, input map[string]any) (map[string]any, error)
}

// NewFunc wraps fn as a Handler with the given name and signature.
func NewFunc(
	name string,
	signature Signature,
	fn func(ctx context.Context, input map[string]any) (map[string]any, error),
) *Func {
	return &Func{name: name, signature: signature, invoke: fn}
}

// Name returns the handler name.
func (f *Func) Name() string { return f.name }

// Signature returns the declared input/output shapes.
func (f *Func) Signature() Signature { return f.signature }

// Invoke calls the wrapped function.
func (f *Func) Invoke(ctx context.Context, input map[string]any) (map[string]any, error) {
	if f.invoke == nil {
		return nil, nil
	}
	return f.invoke(ctx, input)
}
