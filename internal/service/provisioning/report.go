package provisioning

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jeokrohn/wxc-nanp/internal/domain/dialplan"
)

// Phase tracks how far a reconciliation run progressed
type Phase string

const (
	PhaseFetching Phase = "fetching"
	PhaseDiffing  Phase = "diffing"
	PhaseApplying Phase = "applying"
	PhaseDone     Phase = "done"
	PhaseError    Phase = "error"
)

// OperationKind is the type of remote mutation an operation performs
type OperationKind string

const (
	OperationCreate OperationKind = "create"
	OperationUpdate OperationKind = "update"
	OperationDelete OperationKind = "delete"
)

// Operation is one planned remote mutation. Err is populated during
// apply when the remote call for this specific pattern failed.
type Operation struct {
	Kind     OperationKind
	Name     string
	Pattern  dialplan.TranslationPattern
	RemoteID string
	Err      error
}

// Description renders the operation for operator output
func (o Operation) Description() string {
	switch o.Kind {
	case OperationDelete:
		return fmt.Sprintf("delete %s", o.Name)
	default:
		return fmt.Sprintf("%s %s: %s -> %s", o.Kind, o.Name,
			o.Pattern.MatchPattern, o.Pattern.ReplacementPattern)
	}
}

// Plan partitions desired vs existing patterns into the three disjoint
// operation sets. Unchanged counts patterns needing no operation.
type Plan struct {
	ToCreate  []Operation
	ToUpdate  []Operation
	ToDelete  []Operation
	Unchanged int
}

// IsEmpty reports whether the plan requires no remote mutations. A run
// against a converged store always produces an empty plan.
func (p Plan) IsEmpty() bool {
	return len(p.ToCreate) == 0 && len(p.ToUpdate) == 0 && len(p.ToDelete) == 0
}

// Size returns the total number of planned operations
func (p Plan) Size() int {
	return len(p.ToCreate) + len(p.ToUpdate) + len(p.ToDelete)
}

// Operations returns all planned operations in apply order: deletes
// first, then creates, then updates.
func (p Plan) Operations() []Operation {
	ops := make([]Operation, 0, p.Size())
	ops = append(ops, p.ToDelete...)
	ops = append(ops, p.ToCreate...)
	ops = append(ops, p.ToUpdate...)
	return ops
}

// Report is the outcome of one reconciliation run
type Report struct {
	RunID   uuid.UUID
	Mode    Mode
	Scope   dialplan.Scope
	Phase   Phase
	Desired []dialplan.TranslationPattern
	Plan    Plan
}

// FailedOperations returns the operations whose remote call failed
func (r *Report) FailedOperations() []Operation {
	var failed []Operation
	for _, op := range r.Plan.Operations() {
		if op.Err != nil {
			failed = append(failed, op)
		}
	}
	return failed
}

// Succeeded reports overall success: the run completed and every planned
// operation (if any were applied) succeeded.
func (r *Report) Succeeded() bool {
	return r.Phase == PhaseDone && len(r.FailedOperations()) == 0
}
