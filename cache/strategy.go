package cache

// Strategy selects how GetIfPresent/GetOrCreate resolve an invalid block.
type Strategy int

const (
	// Volatile enqueues a fetch (if not already outstanding) and returns
	// immediately with whatever is currently resident, valid or not.
	Volatile Strategy = iota
	// Blocking loads synchronously on the calling goroutine, retrying
	// until the payload is valid.
	Blocking
	// Budgeted enqueues a fetch and waits, charged against the calling
	// job's Budget, for up to the remaining time at this block's
	// priority level.
	Budgeted
)

func (s Strategy) String() string {
	switch s {
	case Volatile:
		return "VOLATILE"
	case Blocking:
		return "BLOCKING"
	case Budgeted:
		return "BUDGETED"
	default:
		return "UNKNOWN"
	}
}
