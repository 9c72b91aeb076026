// Package driving provides interfaces for use cases exposed to
// inbound adapters (primary/driving ports). The CLI depends on these
// interfaces; the core services implement them.
package driving
