package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cpindexer/cpindexer/internal/model"
	"github.com/cpindexer/cpindexer/internal/ports"
)

// ContactStore is a mock implementation of ports.ContactStore.
type ContactStore struct {
	mock.Mock
}

func (m *ContactStore) RegisterSchema(ctx context.Context, force bool) error {
	args := m.Called(ctx, force)
	return args.Error(0)
}

func (m *ContactStore) Upsert(ctx context.Context, people []model.Person) error {
	args := m.Called(ctx, people)
	return args.Error(0)
}

func (m *ContactStore) DeleteByID(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *ContactStore) ListAllIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

var _ ports.ContactStore = (*ContactStore)(nil)
