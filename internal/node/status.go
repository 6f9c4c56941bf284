package node

import "fmt"

// Status represents the exploration state of a branch. The numeric order of
// the constants is the only order in which a branch may move.
type Status int32

const (
	// UnExplored indicates the branch has never been reached.
	UnExplored Status = iota
	// PartiallyExplored indicates the branch was reached once and its
	// children are already scheduled.
	PartiallyExplored
	// Explored indicates the branch was reached at least twice. Further
	// arrivals only record the label.
	Explored
)

// String returns the name of the status.
func (s Status) String() string {
	switch s {
	case UnExplored:
		return "UnExplored"
	case PartiallyExplored:
		return "PartiallyExplored"
	case Explored:
		return "Explored"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// next returns the status that follows s on an arrival.
func (s Status) next() Status {
	if s >= Explored {
		return Explored
	}
	return s + 1
}
