package security

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// defaultJWTExpiry bounds tokens minted by GenerateJWT.
const defaultJWTExpiry = 24 * time.Hour

// Claims are the JWT claims carried by router-issued tokens.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Authenticator validates API keys and JWTs for the routing endpoints.
// Authentication is enforced only when at least one credential source is
// configured; an empty Authenticator lets everything through.
type Authenticator struct {
	apiKeys   []string
	jwtSecret []byte
	logger    *logrus.Logger
}

// NewAuthenticator creates an authenticator over the configured API keys and
// JWT signing secret. Either may be empty.
func NewAuthenticator(apiKeys []string, jwtSecret string, logger *logrus.Logger) *Authenticator {
	return &Authenticator{
		apiKeys:   apiKeys,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
	}
}

// Enabled reports whether any credential source is configured.
func (a *Authenticator) Enabled() bool {
	return len(a.apiKeys) > 0 || len(a.jwtSecret) > 0
}

// Authenticate validates a bearer token as either an API key or a JWT.
func (a *Authenticator) Authenticate(token string) error {
	if token == "" {
		return errors.New("authentication token is required")
	}

	if a.validAPIKey(token) {
		return nil
	}

	if len(a.jwtSecret) > 0 {
		if _, err := a.ValidateJWT(token); err == nil {
			return nil
		}
	}

	return errors.New("invalid authentication token")
}

func (a *Authenticator) validAPIKey(candidate string) bool {
	// Constant-time comparison against every key, no early exit.
	valid := false
	for _, key := range a.apiKeys {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(key)) == 1 {
			valid = true
		}
	}
	return valid
}

// GenerateJWT mints a signed token for the given user id.
func (a *Authenticator) GenerateJWT(userID string) (string, error) {
	if len(a.jwtSecret) == 0 {
		return "", errors.New("jwt secret not configured")
	}

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "model-router",
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(defaultJWTExpiry)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// ValidateJWT parses and verifies a router-issued token.
func (a *Authenticator) ValidateJWT(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid JWT token")
	}
	return claims, nil
}

// Middleware enforces authentication on every route except health checks.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.Enabled() || strings.HasSuffix(r.URL.Path, "/health") {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if err := a.Authenticate(token); err != nil {
				a.logger.WithFields(logrus.Fields{
					"path":      r.URL.Path,
					"method":    r.Method,
					"remote_ip": clientIP(r),
				}).Warn("Authentication failed")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":{"message":"Invalid authentication token","type":"authentication_error","code":"unauthorized"}}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, found := strings.Cut(forwarded, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	if host, _, found := strings.Cut(r.RemoteAddr, ":"); found {
		return host
	}
	return r.RemoteAddr
}
