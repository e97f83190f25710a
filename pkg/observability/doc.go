// Package observability provides a prometheus-backed implementation of
// the engine's lifecycle hooks. The engine itself never imports this
// package; wire it in with Holder.SetHooks.
package observability
