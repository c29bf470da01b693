// Package driven defines interfaces for external dependencies that the
// core services call out to (fetchers, destinations, stores). These are
// the "driven" ports in hexagonal architecture terminology.
//
// Implementations live in internal/adapters/driven and
// internal/connectors.
package driven
