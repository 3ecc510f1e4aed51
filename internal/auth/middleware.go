package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/in-nis/classplan/internal/apperr"
)

const (
	tokenKey    = "auth.token"
	nicknameKey = "auth.nickname"
)

// Identity is what a verified bearer token says about its holder.
type Identity struct {
	TokenIdentifier string
	Nickname        string
}

type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// TokenIdentifier is the stable user key derived from a provider subject.
func (v *Verifier) TokenIdentifier(subject string) string {
	return v.issuer + "|" + subject
}

// Verify parses an HS256 token and returns the identity it carries.
func (v *Verifier) Verify(tokenStr string) (*Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, apperr.New(apperr.Unauthenticated, "invalid token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, apperr.New(apperr.Unauthenticated, "token has no subject")
	}
	name, _ := claims["name"].(string)
	return &Identity{TokenIdentifier: v.TokenIdentifier(sub), Nickname: name}, nil
}

func bearer(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Middleware rejects requests without a valid bearer token. The onError
// callback writes the response so the error envelope stays in one place.
func (v *Verifier) Middleware(onError func(*gin.Context, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearer(c)
		if !ok {
			onError(c, apperr.New(apperr.Unauthenticated, "missing or malformed Authorization header"))
			c.Abort()
			return
		}
		id, err := v.Verify(tokenStr)
		if err != nil {
			onError(c, err)
			c.Abort()
			return
		}
		setIdentity(c, id)
		c.Next()
	}
}

// OptionalMiddleware attaches an identity when a valid token is present and
// ignores everything else.
func (v *Verifier) OptionalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearer(c); ok {
			if id, err := v.Verify(tokenStr); err == nil {
				setIdentity(c, id)
			}
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, id *Identity) {
	c.Set(tokenKey, id.TokenIdentifier)
	c.Set(nicknameKey, id.Nickname)
}

// FromContext returns the identity set by one of the middlewares.
func FromContext(c *gin.Context) (*Identity, bool) {
	token := c.GetString(tokenKey)
	if token == "" {
		return nil, false
	}
	return &Identity{TokenIdentifier: token, Nickname: c.GetString(nicknameKey)}, true
}
