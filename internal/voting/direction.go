package voting

import "fmt"

// Direction is the signed unit value of a vote. There is no neutral
// direction: the absence of a vote is the absence of a ledger row.
type Direction int

const (
	Up   Direction = 1
	Down Direction = -1
)

// ParseDirection accepts exactly 1 or -1.
func ParseDirection(v int) (Direction, error) {
	switch Direction(v) {
	case Up, Down:
		return Direction(v), nil
	default:
		return 0, fmt.Errorf("%w: got %d", ErrInvalidDirection, v)
	}
}

func (d Direction) Valid() bool {
	return d == Up || d == Down
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "upvote"
	case Down:
		return "downvote"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Kind selects which content ledger a vote belongs to.
type Kind int

const (
	KindPost Kind = iota
	KindComment
)

func (k Kind) String() string {
	switch k {
	case KindPost:
		return "post"
	case KindComment:
		return "comment"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}
