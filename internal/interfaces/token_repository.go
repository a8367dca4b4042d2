package interfaces

import "context"

// TokenRepository проверяет отзыв токенов внешнего провайдера
// идентичности. Сами токены сервер не выпускает.
//
//go:generate mockery --name TokenRepository --output ./mocks --outpkg mocks --case=underscore
type TokenRepository interface {
	// IsRevoked возвращает true, если токен с данным JTI отозван.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
