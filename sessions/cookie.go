package sessions

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const cookieIssuer = "inbox-assist"

// CookieCodec signs session IDs into compact HS256 tokens for the session cookie.
type CookieCodec struct {
	secret []byte
	now    func() time.Time
}

// NewCookieCodec creates a codec with the given HMAC secret
func NewCookieCodec(secret []byte) *CookieCodec {
	return &CookieCodec{secret: secret, now: time.Now}
}

// Encode returns a signed token naming sessionID that stops verifying at expiresAt.
func (c *CookieCodec) Encode(sessionID string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sid": sessionID,
		"iss": cookieIssuer,
		"iat": c.now().Unix(),
		"exp": expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}
	return signed, nil
}

// Decode verifies the token and returns the session ID it names.
func (c *CookieCodec) Decode(raw string) (string, error) {
	token, err := jwt.Parse(raw, c.verificationKey,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cookieIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("invalid session cookie: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid session cookie claims")
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", fmt.Errorf("session cookie has no session id")
	}
	return sid, nil
}

func (c *CookieCodec) verificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return c.secret, nil
}
