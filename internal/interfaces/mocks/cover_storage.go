package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Mock CoverStorage
type CoverStorage struct {
	mock.Mock
}

func (m *CoverStorage) UploadCover(ctx context.Context, storyID, filename, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, storyID, filename, contentType, data)
	return args.String(0), args.Error(1)
}
