package provisioning

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeokrohn/wxc-nanp/internal/domain/dialplan"
	"github.com/jeokrohn/wxc-nanp/internal/domain/errors"
)

// Settings fixes one run's configuration tuple: home NPA/NXX, scope,
// mode, carrier format table and steering prefix.
type Settings struct {
	Home           dialplan.NpaNxx
	Scope          dialplan.Scope
	Mode           Mode
	Table          dialplan.CarrierFormatTable
	SteeringPrefix string
}

// service implements the Service interface
type service struct {
	source   LocalityDataSource
	store    RuleStore
	settings Settings
	logger   *zap.Logger
}

// NewService creates a new provisioning service
func NewService(source LocalityDataSource, store RuleStore, settings Settings, logger *zap.Logger) Service {
	if settings.Table == nil {
		settings.Table = dialplan.DefaultCarrierFormatTable()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		source:   source,
		store:    store,
		settings: settings,
		logger:   logger,
	}
}

// Run executes the full pipeline for the configured home NPA/NXX
func (s *service) Run(ctx context.Context) (*Report, error) {
	records, err := s.source.LookupLocalExchanges(ctx, s.settings.Home)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("locality lookup complete",
		zap.Stringer("home", s.settings.Home),
		zap.Int("records", len(records)))

	buckets, err := dialplan.Classify(s.settings.Home, records)
	if err != nil {
		return nil, err
	}

	desired, err := dialplan.Generate(s.settings.Home, buckets,
		s.settings.Table, s.settings.SteeringPrefix, s.settings.Scope)
	if err != nil {
		return nil, err
	}
	if len(desired) > MaxPatternsPerScope {
		return nil, errors.NewBusinessError(errors.CodePatternLimitExceeded,
			fmt.Sprintf("%d patterns required, rule store allows at most %d per scope",
				len(desired), MaxPatternsPerScope))
	}
	s.logger.Info("desired patterns computed",
		zap.Stringer("home", s.settings.Home),
		zap.Int("patterns", len(desired)))

	return s.Reconcile(ctx, desired)
}

// Reconcile converges the rule store onto the desired set. Fetch
// failures are fatal; individual write failures are recorded per pattern
// and do not stop sibling operations.
func (s *service) Reconcile(ctx context.Context, desired []dialplan.TranslationPattern) (*Report, error) {
	report := &Report{
		RunID:   uuid.New(),
		Mode:    s.settings.Mode,
		Scope:   s.settings.Scope,
		Desired: desired,
	}
	log := s.logger.With(zap.String("run_id", report.RunID.String()),
		zap.Stringer("scope", s.settings.Scope))

	if s.settings.Mode == ModePatternsOnly {
		report.Phase = PhaseDone
		return report, nil
	}

	report.Phase = PhaseFetching
	existing, err := s.store.List(ctx, s.settings.Scope)
	if err != nil {
		report.Phase = PhaseError
		return report, errors.NewExternalError(errors.CodeRemoteReadFailure,
			"rule store", "listing existing patterns failed").WithCause(err)
	}
	log.Debug("fetched existing patterns", zap.Int("existing", len(existing)))

	report.Phase = PhaseDiffing
	report.Plan = diff(desired, existing)
	log.Info("plan computed",
		zap.Int("create", len(report.Plan.ToCreate)),
		zap.Int("update", len(report.Plan.ToUpdate)),
		zap.Int("delete", len(report.Plan.ToDelete)),
		zap.Int("unchanged", report.Plan.Unchanged))

	if s.settings.Mode == ModeReadOnly {
		report.Phase = PhaseDone
		return report, nil
	}

	report.Phase = PhaseApplying
	s.apply(ctx, report, log)
	report.Phase = PhaseDone

	if failed := report.FailedOperations(); len(failed) > 0 {
		return report, errors.NewExternalError(errors.CodeRemoteWriteFailure,
			"rule store", fmt.Sprintf("%d of %d operations failed",
				len(failed), report.Plan.Size()))
	}
	return report, nil
}

// diff partitions desired vs existing by name into the three disjoint
// operation sets. Only names inside the managed namespace are ever
// candidates for deletion; identical content requires no operation.
func diff(desired []dialplan.TranslationPattern, existing []dialplan.RemotePattern) Plan {
	existingByName := make(map[string]dialplan.RemotePattern, len(existing))
	for _, rp := range existing {
		existingByName[rp.Name] = rp
	}
	desiredByName := make(map[string]dialplan.TranslationPattern, len(desired))
	for _, p := range desired {
		desiredByName[p.Name] = p
	}

	var plan Plan
	for _, p := range desired {
		rp, found := existingByName[p.Name]
		switch {
		case !found:
			plan.ToCreate = append(plan.ToCreate, Operation{
				Kind: OperationCreate, Name: p.Name, Pattern: p,
			})
		case !rp.ContentEqual(p):
			plan.ToUpdate = append(plan.ToUpdate, Operation{
				Kind: OperationUpdate, Name: p.Name, Pattern: p, RemoteID: rp.ID,
			})
		default:
			plan.Unchanged++
		}
	}
	for _, rp := range existing {
		if !dialplan.IsManagedName(rp.Name) {
			continue
		}
		if _, wanted := desiredByName[rp.Name]; wanted {
			continue
		}
		plan.ToDelete = append(plan.ToDelete, Operation{
			Kind: OperationDelete, Name: rp.Name, RemoteID: rp.ID,
		})
	}

	sortOperations(plan.ToCreate)
	sortOperations(plan.ToUpdate)
	sortOperations(plan.ToDelete)
	return plan
}

func sortOperations(ops []Operation) {
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
}

// apply executes the plan against the rule store. Deletes run first so a
// pattern changing shape under a reused name cannot collide with its
// stale predecessor.
func (s *service) apply(ctx context.Context, report *Report, log *zap.Logger) {
	scope := s.settings.Scope

	for i := range report.Plan.ToDelete {
		op := &report.Plan.ToDelete[i]
		if err := s.store.Delete(ctx, scope, op.RemoteID); err != nil {
			s.recordFailure(op, err, log)
		}
	}
	for i := range report.Plan.ToCreate {
		op := &report.Plan.ToCreate[i]
		if _, err := s.store.Create(ctx, scope, op.Pattern); err != nil {
			s.recordFailure(op, err, log)
		}
	}
	for i := range report.Plan.ToUpdate {
		op := &report.Plan.ToUpdate[i]
		if err := s.store.Update(ctx, scope, op.RemoteID, op.Pattern); err != nil {
			s.recordFailure(op, err, log)
		}
	}
}

func (s *service) recordFailure(op *Operation, err error, log *zap.Logger) {
	op.Err = errors.NewExternalError(errors.CodeRemoteWriteFailure,
		"rule store", fmt.Sprintf("%s %s failed", op.Kind, op.Name)).WithCause(err)
	log.Warn("operation failed",
		zap.String("operation", string(op.Kind)),
		zap.String("pattern", op.Name),
		zap.Error(err))
}
