package managers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Majo7-613/Wheels-Unisabana-2/internal/schemas"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/utils"
)

// TokenTTL is the bearer token lifetime.
const TokenTTL = 7 * 24 * time.Hour

// JWTMgr handles bearer token generation, validation and the gin middleware
// enforcing them.
type JWTMgr interface {
	GenerateJWT(userId, email string) (string, error)
	ValidateJWT(tokenString string) (jwt.Claims, error)
	JWTMiddleware() gin.HandlerFunc
}

// JWTManager signs HS256 tokens with a process-wide secret and consults the
// revocation store on every request.
type JWTManager struct {
	secret     []byte
	revocation RevocationMgr
}

// NewJWTManager creates a JWTManager with the given secret.
func NewJWTManager(secret []byte, revocation RevocationMgr) JWTMgr {
	return &JWTManager{secret: secret, revocation: revocation}
}

// NewJWTManagerFromEnv reads JWT_SECRET, which is required at startup.
func NewJWTManagerFromEnv(revocation RevocationMgr) (JWTMgr, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET not set")
	}

	return NewJWTManager([]byte(secret), revocation), nil
}

// GenerateJWT generates a new bearer token for the given user.
func (jm *JWTManager) GenerateJWT(userId, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userId,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(TokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jm.secret)
}

// ValidateJWT validates the given token and returns the claims if valid.
func (jm *JWTManager) ValidateJWT(tokenString string) (jwt.Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("invalid signing method")
		}

		return jm.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	return token.Claims, nil
}

// JWTMiddleware rejects requests without a valid, unrevoked bearer token and
// stores the claims plus the opaque token in the request context.
func (jm *JWTManager) JWTMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, &schemas.ErrorDTO{Error: schemas.Unauthorized.Code})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims, err := jm.ValidateJWT(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, &schemas.ErrorDTO{Error: schemas.Unauthorized.Code})
			return
		}

		if jm.revocation != nil && jm.revocation.IsRevoked(c.Request.Context(), tokenString) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, &schemas.ErrorDTO{Error: schemas.InvalidToken.Code})
			return
		}

		c.Set(utils.ClaimsKey.String(), claims.(jwt.MapClaims))
		c.Set(utils.BearerTokenKey.String(), tokenString)
		c.Next()
	}
}
