package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims — полезная нагрузка JWT внешнего провайдера идентичности.
// UserID извлекается из стандартного claim'а "sub".
type Claims struct {
	jwt.RegisteredClaims
}

// UserID парсит subject как UUID пользователя.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
