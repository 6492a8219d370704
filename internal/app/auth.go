package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

// Identity is the authenticated caller of a request.
type Identity struct {
	SubjectID string
	Email     string
	Role      string
}

type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (app *Application) requireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := app.authenticate(r)
		if err != nil {
			app.contextGetLogger(r).Debug("rejected bearer token", "error", err)
			app.unauthorizedAccessResponse(w, r)
			return
		}

		next.ServeHTTP(w, contextSetIdentity(r, identity))
	})
}

func (app *Application) requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if app.contextGetIdentity(r).Role != role {
				app.forbiddenResponse(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (app *Application) authenticate(r *http.Request) (*Identity, error) {
	header := r.Header.Get("Authorization")

	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil, errors.New("missing bearer token")
	}

	claims := &Claims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(app.config.JWTSecret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return &Identity{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
	}, nil
}
