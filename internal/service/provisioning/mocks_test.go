package provisioning

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jeokrohn/wxc-nanp/internal/domain/dialplan"
)

// LocalityDataSource mock
type mockLocalityDataSource struct {
	mock.Mock
}

func (m *mockLocalityDataSource) LookupLocalExchanges(ctx context.Context, home dialplan.NpaNxx) ([]dialplan.LocalityRecord, error) {
	args := m.Called(ctx, home)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dialplan.LocalityRecord), args.Error(1)
}

// RuleStore mock
type mockRuleStore struct {
	mock.Mock
}

func (m *mockRuleStore) List(ctx context.Context, scope dialplan.Scope) ([]dialplan.RemotePattern, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dialplan.RemotePattern), args.Error(1)
}

func (m *mockRuleStore) Create(ctx context.Context, scope dialplan.Scope, pattern dialplan.TranslationPattern) (dialplan.RemotePattern, error) {
	args := m.Called(ctx, scope, pattern)
	return args.Get(0).(dialplan.RemotePattern), args.Error(1)
}

func (m *mockRuleStore) Update(ctx context.Context, scope dialplan.Scope, id string, pattern dialplan.TranslationPattern) error {
	args := m.Called(ctx, scope, id, pattern)
	return args.Error(0)
}

func (m *mockRuleStore) Delete(ctx context.Context, scope dialplan.Scope, id string) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}
