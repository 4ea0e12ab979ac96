package orders

type Status string

const (
	StatusPending Status = "pending"
	StatusShipped Status = "shipped"
)

// CanTransition is the single gate for status updates. The shop currently
// allows any transition (an operator fixing a mis-click is the common case);
// tighten here if that ever changes.
func CanTransition(from, to Status) bool {
	return true
}
