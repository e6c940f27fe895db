package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo — сведения, извлечённые из bearer-токена.
type TokenInfo struct {
	// Username — preferred_username, name, email или sub
	Username string
	// ExpiresAt — claim exp (Unix timestamp, 0 — отсутствует)
	ExpiresAt int64
	// JWT — токен разобран как JWT
	JWT bool
}

// InspectToken читает claims токена без проверки подписи.
// Подпись проверяет REST API; консоль использует claims только для отображения.
// Непрозрачный (не JWT) токен допустим и возвращает пустой TokenInfo.
func InspectToken(raw string) TokenInfo {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	if raw == "" {
		return TokenInfo{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return TokenInfo{}
	}

	info := TokenInfo{JWT: true}
	for _, key := range []string{"preferred_username", "name", "email", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			info.Username = v
			break
		}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Unix()
	}
	return info
}

// NormalizeToken убирает пробелы и префикс "Bearer " из введённого токена.
func NormalizeToken(raw string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
}
