package interfaces

import "context"

// CoverStorage загружает бинарные обложки во внешнее хранилище и
// возвращает публичный URL. Ядро использует URL как непрозрачную
// строку и байты изображения не инспектирует.
//
//go:generate mockery --name CoverStorage --output ./mocks --outpkg mocks --case=underscore
type CoverStorage interface {
	UploadCover(ctx context.Context, storyID, filename, contentType string, data []byte) (string, error)
}
