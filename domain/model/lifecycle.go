package model

// Lifecycle tracks where an aggregate sits in its Empty -> Active -> Deleted
// state machine. The zero value is Empty: an aggregate that has received no
// events yet. Deleted aggregates keep a full snapshot of their last active
// fields for audit reads; only the lifecycle marker changes.
type Lifecycle string

const (
	LifecycleEmpty   Lifecycle = ""
	LifecycleActive  Lifecycle = "active"
	LifecycleDeleted Lifecycle = "deleted"
)
