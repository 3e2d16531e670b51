package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"boutique/internal/apperr"
	"boutique/internal/models"
)

// Claims is the identity carried by a verified token.
type Claims struct {
	ID    string
	Email string
	Role  string
}

func secret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

func tokenTTL() time.Duration {
	if s := os.Getenv("JWT_EXPIRES_IN"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return time.Hour
}

// Issue signs a token for u. The token is stateless: it cannot be revoked
// before expiry, the short TTL bounds the window.
func Issue(u *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":    u.ID,
		"email": u.Email,
		"role":  u.Role,
		"exp":   now.Add(tokenTTL()).Unix(),
		"iat":   now.Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString(secret())
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "la génération du token a échoué", err)
	}
	return s, nil
}

// Verify checks signature and expiry and returns the decoded claims.
func Verify(tokenStr string) (Claims, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret(), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, apperr.New(apperr.Unauthorized, "token expiré")
		}
		return Claims{}, apperr.New(apperr.Unauthorized, "token invalide")
	}
	mapc, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Claims{}, apperr.New(apperr.Unauthorized, "token invalide")
	}
	id, _ := mapc["id"].(string)
	email, _ := mapc["email"].(string)
	role, _ := mapc["role"].(string)
	if id == "" {
		return Claims{}, apperr.New(apperr.Unauthorized, "payload token invalide")
	}
	return Claims{ID: id, Email: email, Role: role}, nil
}
