// Package memory provides in-memory implementations of the driven
// storage ports, used in tests and for dry runs.
package memory
