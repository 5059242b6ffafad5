package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Alan4CS/GeoAppHospital-sub001/pkg/response"
)

// IdentityKey is the gin context key of the authenticated person id
const IdentityKey = "person_id"

// RequireIdentity binds the request to exactly one tracked person. The bearer
// token must be an HS256 JWT whose subject is the person id. When disabled,
// requests pass through without an identity.
func RequireIdentity(secret string, disabled bool) gin.HandlerFunc {
	key := []byte(secret)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	return func(c *gin.Context) {
		if disabled {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		var claims jwt.RegisteredClaims
		if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		}); err != nil {
			response.AbortWithError(c, http.StatusUnauthorized, "invalid token")
			return
		}

		personID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil || personID <= 0 {
			response.AbortWithError(c, http.StatusUnauthorized, "token subject is not a person id")
			return
		}

		c.Set(IdentityKey, personID)
		c.Next()
	}
}

// IdentityFrom returns the person id bound by RequireIdentity
func IdentityFrom(c *gin.Context) (int64, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
