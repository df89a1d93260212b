package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gcsmedia/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const viewerContextKey = "viewer"

var (
	jwtKey        []byte
	tokenLifespan = 24 * time.Hour

	// ErrInvalidToken wraps every token validation failure.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims struct to be encoded to JWT
type Claims struct {
	UserID uuid.UUID       `json:"user_id"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// InitializeJWT sets the signing secret and token lifespan.
func InitializeJWT(secret string, lifespan time.Duration) error {
	if secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is not set")
	}
	jwtKey = []byte(secret)
	if lifespan != 0 {
		tokenLifespan = lifespan
	}
	return nil
}

// GenerateToken generates a new JWT token for a given user.
func GenerateToken(user *models.User) (string, error) {
	if len(jwtKey) == 0 {
		return "", fmt.Errorf("JWT secret key not initialized. Call InitializeJWT() first")
	}

	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifespan)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "gcsmedia",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtKey)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates a JWT token string and returns its claims.
func ValidateToken(tokenString string) (*Claims, error) {
	if len(jwtKey) == 0 {
		return nil, fmt.Errorf("JWT secret key not initialized")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", nil
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", fmt.Errorf("Authorization header format must be Bearer {token}")
	}
	return parts[1], nil
}

func setViewer(c *gin.Context, claims *Claims) {
	c.Set(viewerContextKey, Viewer{UserID: claims.UserID, Email: claims.Email, Role: claims.Role})
	c.Set("userID", claims.UserID)
	c.Set("userRole", claims.Role)
}

// AuthMiddleware requires a valid bearer token and stores the viewer in the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token: " + err.Error()})
			return
		}

		setViewer(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware stores the viewer when a valid bearer token is
// present and lets anonymous requests through otherwise.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err == nil && tokenString != "" {
			if claims, err := ValidateToken(tokenString); err == nil {
				setViewer(c, claims)
			}
		}
		c.Next()
	}
}

// RequireCapability aborts with 403 unless the viewer holds capability.
func RequireCapability(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ViewerFromContext(c).Can(capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Sorry, you are not allowed to do that."})
			return
		}
		c.Next()
	}
}

// ViewerFromContext returns the authenticated viewer, or the anonymous one.
func ViewerFromContext(c *gin.Context) Viewer {
	if v, ok := c.Get(viewerContextKey); ok {
		if viewer, ok := v.(Viewer); ok {
			return viewer
		}
	}
	return Viewer{}
}
