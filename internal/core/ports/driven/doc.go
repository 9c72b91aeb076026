// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports).
//
// The core services depend on these interfaces, never on concrete
// adapters. Adapters live in internal/adapters/driven and satisfy the
// interfaces defined here.
package driven
