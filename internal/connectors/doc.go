// Package connectors provides implementations of the SheetFetcher
// interface. Each connector knows how to fetch tabular data from a
// specific remote service.
package connectors
