package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Mock TokenRepository
type TokenRepository struct {
	mock.Mock
}

func (m *TokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}
