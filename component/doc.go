// Package component defines lifecycle-managed infrastructure and a registry
// that starts components in order and stops them in reverse.
//
//   - Component: Start/Stop/Health lifecycle
//   - Describable: optional self-description
//   - Registry: ordered start, reverse stop, aggregated health
package component
