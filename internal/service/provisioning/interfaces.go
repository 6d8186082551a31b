package provisioning

import (
	"context"

	"github.com/jeokrohn/wxc-nanp/internal/domain/dialplan"
)

// Mode selects how far a run goes: full apply, plan without writes, or
// pure pattern computation without any remote calls.
type Mode string

const (
	ModeApply        Mode = "apply"
	ModeReadOnly     Mode = "readonly"
	ModePatternsOnly Mode = "patternsonly"
)

// MaxPatternsPerScope is the rule store's hard limit on translation
// patterns within one scope.
const MaxPatternsPerScope = 500

// LocalityDataSource returns the set of exchanges local to a home
// NPA/NXX, each tagged with its own NPA and toll rating.
type LocalityDataSource interface {
	LookupLocalExchanges(ctx context.Context, home dialplan.NpaNxx) ([]dialplan.LocalityRecord, error)
}

// RuleStore exposes the remote translation pattern store. It is the only
// durable state in the system; each operation is a single remote call.
type RuleStore interface {
	// List returns all existing patterns in scope
	List(ctx context.Context, scope dialplan.Scope) ([]dialplan.RemotePattern, error)
	// Create provisions a new pattern
	Create(ctx context.Context, scope dialplan.Scope, pattern dialplan.TranslationPattern) (dialplan.RemotePattern, error)
	// Update replaces the content of an existing pattern by ID
	Update(ctx context.Context, scope dialplan.Scope, id string, pattern dialplan.TranslationPattern) error
	// Delete removes an existing pattern by ID
	Delete(ctx context.Context, scope dialplan.Scope, id string) error
}

// Service runs the provisioning pipeline for one home NPA/NXX
type Service interface {
	// Run executes the full pipeline: locality lookup, classification,
	// pattern generation, reconciliation.
	Run(ctx context.Context) (*Report, error)
	// Reconcile converges the rule store onto the desired pattern set
	Reconcile(ctx context.Context, desired []dialplan.TranslationPattern) (*Report, error)
}
