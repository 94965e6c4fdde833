package voting

// LedgerAction is the mutation a vote applies to the voter's ledger row.
type LedgerAction int

const (
	LedgerCreate LedgerAction = iota + 1
	LedgerUpdate
	LedgerDelete
)

func (a LedgerAction) String() string {
	switch a {
	case LedgerCreate:
		return "create"
	case LedgerUpdate:
		return "update"
	case LedgerDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Outcome is the result of reconciling one vote request against the
// voter's existing ledger row.
type Outcome struct {
	Ledger LedgerAction
	// Direction is the stored direction after the mutation; zero on delete.
	Direction Direction
	// ScoreDelta is added to the content's score, KarmaDelta to its author's karma.
	ScoreDelta int
	KarmaDelta int
	// VoteValue is what the caller is told their vote now is: 0, 1 or -1.
	VoteValue int
}

// Reconcile converts a requested direction into ledger and counter changes.
//
//	existing  requested  ledger          delta
//	none      d          create(d)       d
//	d         d          delete          -d
//	-d        d          update(d)       2d
//
// A flip is applied as one delta of magnitude two so no observer ever sees
// the vote in neither direction. requested must be Up or Down.
func Reconcile(existing Direction, hasExisting bool, requested Direction) Outcome {
	var out Outcome
	switch {
	case !hasExisting:
		out = Outcome{Ledger: LedgerCreate, Direction: requested, ScoreDelta: int(requested)}
	case existing == requested:
		out = Outcome{Ledger: LedgerDelete, ScoreDelta: -int(requested)}
	default:
		out = Outcome{Ledger: LedgerUpdate, Direction: requested, ScoreDelta: 2 * int(requested)}
	}
	out.KarmaDelta = out.ScoreDelta
	out.VoteValue = int(out.Direction)
	return out
}
