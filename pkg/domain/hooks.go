package domain

// LifecycleHooks defines optional callbacks for engine observability.
// All fields may be nil. Hooks run synchronously on the mutating
// goroutine and must not block.
type LifecycleHooks struct {
	OnSubscribe     func(attr, group string)
	OnUnsubscribe   func(attr, group string)
	OnNotify        func(n *Notification)
	OnListenerError func(n *Notification, err error)
}
