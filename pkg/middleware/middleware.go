// Package middleware wraps a ports.Runtime to add cross-cutting behavior
// (logging, metrics, encryption at rest, writer serialization) without touching
// the adapters.
package middleware

import "github.com/aretw0/arbor/pkg/ports"

// Middleware allows wrapping a Runtime to add behavior.
type Middleware func(ports.Runtime) ports.Runtime

// Chain wraps rt with mws. The first middleware is the outermost one.
func Chain(rt ports.Runtime, mws ...Middleware) ports.Runtime {
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}
	return rt
}
