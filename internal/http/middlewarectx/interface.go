package middlewarectx

import "github.com/magabrotheeeer/parking-manager/internal/lib/jwt"

// TokenParser проверяет токен доступа и возвращает его данные.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}
