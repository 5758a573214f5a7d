package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	UserContextKey   contextKey = "user"
	ClientContextKey contextKey = "client"
)

const RoleAdmin = "admin"

// Claims identify an admin panel user.
type Claims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ClientClaims identify a billing client signed into the portal. The
// session carries both halves of the identity so requests need no lookup.
type ClientClaims struct {
	ClientID string `json:"client_id"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies the two session kinds. They use separate
// secrets so a client token can never pass as an admin token.
type Authenticator struct {
	adminSecret  []byte
	clientSecret []byte
	adminTTL     time.Duration
	clientTTL    time.Duration
}

func NewAuthenticator(adminSecret, clientSecret string, clientTTL time.Duration) *Authenticator {
	if clientTTL <= 0 {
		clientTTL = 24 * time.Hour
	}
	return &Authenticator{
		adminSecret:  []byte(adminSecret),
		clientSecret: []byte(clientSecret),
		adminTTL:     24 * time.Hour,
		clientTTL:    clientTTL,
	}
}

func (a *Authenticator) IssueAdminToken(userID int, email, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(now.Add(a.adminTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.adminSecret)
}

func (a *Authenticator) IssueClientToken(clientID, email string) (string, error) {
	now := time.Now()
	claims := ClientClaims{
		ClientID: clientID,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "client",
			ExpiresAt: jwt.NewNumericDate(now.Add(a.clientTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.clientSecret)
}

func parse(secret []byte, tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}

func bearerToken(r *http.Request) (string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "Authorization header required"
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		return "", "Bearer token required"
	}
	return tokenString, ""
}

// AdminAuth requires a valid admin session.
func (a *Authenticator) AdminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, problem := bearerToken(r)
		if problem != "" {
			writeError(w, http.StatusUnauthorized, problem)
			return
		}
		claims := &Claims{}
		if err := parse(a.adminSecret, tokenString, claims); err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientAuth requires a valid client portal session.
func (a *Authenticator) ClientAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, problem := bearerToken(r)
		if problem != "" {
			writeError(w, http.StatusUnauthorized, problem)
			return
		}
		claims := &ClientClaims{}
		if err := parse(a.clientSecret, tokenString, claims); err != nil || claims.ClientID == "" {
			writeError(w, http.StatusUnauthorized, "Invalid session")
			return
		}
		ctx := context.WithValue(r.Context(), ClientContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetUserFromContext(r *http.Request) *Claims {
	claims, ok := r.Context().Value(UserContextKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

func GetClientFromContext(r *http.Request) *ClientClaims {
	claims, ok := r.Context().Value(ClientContextKey).(*ClientClaims)
	if !ok {
		return nil
	}
	return claims
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r)
			if claims == nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, "Insufficient permissions")
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": message})
}
