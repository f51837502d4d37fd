package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cpindexer/cpindexer/internal/ports"
)

// ContactSource is a mock implementation of ports.ContactSource.
type ContactSource struct {
	mock.Mock
}

func (m *ContactSource) UpdatedIDsSince(ctx context.Context, tsMs int64) (ports.IDTimestamp, error) {
	args := m.Called(ctx, tsMs)
	return args.Get(0).(ports.IDTimestamp), args.Error(1)
}

func (m *ContactSource) DeletedIDsSince(ctx context.Context, tsMs int64) (ports.IDTimestamp, error) {
	args := m.Called(ctx, tsMs)
	return args.Get(0).(ports.IDTimestamp), args.Error(1)
}

func (m *ContactSource) QueryContacts(ctx context.Context, ids []string, columns map[string]struct{}) (ports.Cursor, error) {
	args := m.Called(ctx, ids, columns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.Cursor), args.Error(1)
}

func (m *ContactSource) SubscribeChanges(onChange func()) func() {
	args := m.Called(onChange)
	if args.Get(0) == nil {
		return func() {}
	}
	return args.Get(0).(func())
}

func (m *ContactSource) SyncInProgress(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

var _ ports.ContactSource = (*ContactSource)(nil)
