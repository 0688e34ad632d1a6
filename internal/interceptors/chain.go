package interceptors

import "context"

// Outcome classifies how a store operation ended.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeIgnored Outcome = "ignored"
	OutcomePanic   Outcome = "panic"
)

// OperationInfo describes the store operation being intercepted
type OperationInfo struct {
	Operation string
}

// Handler runs one store operation. A non-nil error explains why the
// operation was ignored; it is never surfaced to the store's caller.
type Handler func(ctx context.Context) (Outcome, error)

// Interceptor wraps a Handler, the same way a unary server interceptor wraps an RPC
type Interceptor func(ctx context.Context, info *OperationInfo, handler Handler) (Outcome, error)

// Chain composes interceptors so that the first one is the outermost
func Chain(interceptors ...Interceptor) Interceptor {
	return func(ctx context.Context, info *OperationInfo, handler Handler) (Outcome, error) {
		next := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			ic, inner := interceptors[i], next
			next = func(ctx context.Context) (Outcome, error) {
				return ic(ctx, info, inner)
			}
		}
		return next(ctx)
	}
}
