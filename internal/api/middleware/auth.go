package middleware

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/emoji-feed/config"
	"github.com/d60-Lab/emoji-feed/pkg/response"
)

const userIDKey = "user_id"

// Verifier 校验身份源签发的会话令牌，sub 即用户 ID
type Verifier struct {
	method string
	secret []byte
	pubKey *rsa.PublicKey
	issuer string
}

func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	v := &Verifier{method: strings.ToUpper(cfg.Algorithm), issuer: cfg.Issuer}
	switch v.method {
	case "HS256":
		if cfg.Secret == "" {
			return nil, errors.New("auth: HS256 requires secret")
		}
		v.secret = []byte(cfg.Secret)
	case "RS256":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("auth: parse public key: %w", err)
		}
		v.pubKey = key
	default:
		return nil, fmt.Errorf("auth: unsupported algorithm %q", cfg.Algorithm)
	}
	return v, nil
}

// Verify 返回令牌中的用户 ID
func (v *Verifier) Verify(token string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{v.method}), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		if v.pubKey != nil {
			return v.pubKey, nil
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// RequireAuth 要求 Authorization: Bearer <token>
func RequireAuth(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.Unauthorized(c, "Sign in to post")
			return
		}
		userID, err := v.Verify(token)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID 当前请求的已认证用户，未认证时为空
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
