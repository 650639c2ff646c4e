package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionTokenType = "session"

// SessionService emite y valida el token de sesion que viaja en la cookie.
// Un token solo es valido mientras su jti siga en el store.
type SessionService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	store  SessionStore
}

type SessionClaims struct {
	Username  string `json:"username"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrSessionInvalid = errors.New("session invalid")
	ErrSessionExpired = errors.New("session expired")
)

func NewSessionService(secret string, ttl time.Duration, store SessionStore) *SessionService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if store == nil {
		store = NewMemorySessionStore()
	}
	return &SessionService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "lume",
		store:  store,
	}
}

func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue crea la sesion del usuario y devuelve el token firmado.
func (s *SessionService) Issue(username string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrSessionInvalid
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrSessionInvalid
	}

	now := time.Now().UTC()
	jti := uuid.NewString()
	claims := SessionClaims{
		Username:  username,
		TokenType: sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	if err := s.store.Store(jti, username, s.ttl); err != nil {
		return "", err
	}
	return signed, nil
}

// Resolve valida firma, emisor, tipo y expiracion, y que la sesion siga abierta en el store.
func (s *SessionService) Resolve(token string) (SessionClaims, error) {
	claims, err := s.parseValid(token)
	if err != nil {
		return SessionClaims{}, err
	}
	username, err := s.store.Lookup(claims.ID)
	if err != nil || username == "" || username != claims.Username {
		return SessionClaims{}, ErrSessionInvalid
	}
	return claims, nil
}

// Revoke cierra la sesion del token.
func (s *SessionService) Revoke(token string) error {
	claims, err := s.parseValid(token)
	if err != nil {
		return err
	}
	return s.store.Revoke(claims.ID)
}

func (s *SessionService) parseValid(token string) (SessionClaims, error) {
	if len(s.secret) == 0 {
		return SessionClaims{}, ErrSessionInvalid
	}
	if strings.TrimSpace(token) == "" {
		return SessionClaims{}, ErrSessionInvalid
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return SessionClaims{}, err
	}
	if !s.isValidClaims(claims) {
		return SessionClaims{}, ErrSessionInvalid
	}
	return claims, nil
}

func (s *SessionService) parseToken(tokenString string) (SessionClaims, error) {
	var claims SessionClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaims{}, ErrSessionExpired
		}
		return SessionClaims{}, ErrSessionInvalid
	}
	return claims, nil
}

func (s *SessionService) isValidClaims(claims SessionClaims) bool {
	if claims.TokenType != sessionTokenType {
		return false
	}
	if strings.TrimSpace(claims.Username) == "" || claims.Subject != claims.Username {
		return false
	}
	if strings.TrimSpace(claims.ID) == "" {
		return false
	}
	return strings.TrimSpace(claims.Issuer) == s.issuer
}
