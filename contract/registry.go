// Package contract stubs out smart-contract execution: a gas-metered,
// always-deterministic simulation of CONTRACT_CALL/CONTRACT_DEPLOY
// transactions, dispatched by function name through a registry-of-handlers
// pattern.
package contract

import (
	"sync"

	"github.com/tolelom/redactchain/core"
)

// Handler simulates one contract function's gas consumption, returning the
// gas it used and whether execution succeeded (it always succeeds unless
// the call exceeds its own gas limit).
type Handler func(call *core.ContractCall) (gasUsed uint64, success bool)

// Registry maps function names to Handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates a Registry pre-populated with the stub handlers for
// the functions TransactionFactory can generate (transfer, approve, mint,
// burn, getData).
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	for name, baseCost := range map[string]uint64{
		"transfer": 21_000,
		"approve":  24_000,
		"mint":     40_000,
		"burn":     30_000,
		"getData":  5_000,
	} {
		cost := baseCost
		r.handlers[name] = func(call *core.ContractCall) (uint64, bool) {
			used := cost + uint64(len(call.Parameters))*500
			return used, used <= call.GasLimit
		}
	}
	return r
}

// Register adds or overwrites the handler for a function name.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Execute dispatches call to its function handler, or to a generic
// fallback charging a flat 21000 gas if the function is unknown. Exceeding
// the call's own gas limit is not an execution error: it is reported via
// success=false, exactly like a real EVM out-of-gas revert.
func (r *Registry) Execute(call *core.ContractCall) (gasUsed uint64, success bool) {
	r.mu.RLock()
	h, ok := r.handlers[call.FunctionName]
	r.mu.RUnlock()
	if !ok {
		used := uint64(21_000)
		return used, used <= call.GasLimit
	}
	return h(call)
}
