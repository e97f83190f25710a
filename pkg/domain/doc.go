// Package domain contains the core data types of the notification engine:
// the Notification record delivered to listeners, the Observable and
// Observer contracts, and the lifecycle hooks used for observability.
//
// The package is intentionally free of behavior. The registry owns
// subscription bookkeeping and dispatch; adapters own transport. Both sides
// meet on the types defined here.
package domain
