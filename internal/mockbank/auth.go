package mockbank

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/agmortgage/agbank/internal/id"
	"github.com/agmortgage/agbank/internal/model"
)

const (
	issuer     = "agbank-mockbank"
	callerKey  = "caller"
	bearerPref = "Bearer "
)

func (b *Bank) issueToken(u model.User) (string, error) {
	now := b.now()
	claims := jwt.RegisteredClaims{
		Subject:   u.ID.String(),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(b.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
}

func (b *Bank) validateToken(tokenString string) (id.ID, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return b.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(b.now))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return id.ID(claims.Subject), nil
}

// requireAuth resolves the bearer token to an active identity.
func (b *Bank) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, bearerPref) {
		abort(c, http.StatusUnauthorized, "Access token required")
		return
	}
	uid, err := b.validateToken(strings.TrimPrefix(header, bearerPref))
	if err != nil {
		abort(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	u, ok := b.user(uid)
	if !ok {
		abort(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	if !u.IsActive {
		abort(c, http.StatusForbidden, "Account is deactivated")
		return
	}
	c.Set(callerKey, u)
	c.Next()
}

func requireAdmin(c *gin.Context) {
	if !caller(c).IsAdmin() {
		abort(c, http.StatusForbidden, "Admin access required")
		return
	}
	c.Next()
}

func caller(c *gin.Context) model.User {
	u, _ := c.MustGet(callerKey).(model.User)
	return u
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}
