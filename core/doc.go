// Package core contains the canonical platform trust-and-orchestration
// contracts, entities, and logic: the role/capability authorization model,
// the service container, the plugin manifest validator, the plugin lifecycle
// state machine, and operation guards. Lower-level adapters must depend on
// this package; core must not depend on transport-specific or store-specific
// adapters.
package core
