package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lalith-99/pulsechat/internal/apperr"
)

// AccessToken and ChannelToken are both compact JWS strings, but they are
// different types so the compiler refuses to hand one to the other's
// verifier. Convert from a raw string only at the edge (the middleware,
// the websocket gateway).
type (
	AccessToken  string
	ChannelToken string
)

// DefaultChannelTokenTTL is how long a realtime subscription token lives.
const DefaultChannelTokenTTL = 24 * time.Hour

// tokenKey is one token family: a secret plus the HMAC method to sign with.
type tokenKey struct {
	secret []byte
	method jwt.SigningMethod
}

func newTokenKey(secret, alg string) (tokenKey, error) {
	if secret == "" {
		return tokenKey{}, errors.New("empty secret")
	}
	method := jwt.GetSigningMethod(alg)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return tokenKey{}, fmt.Errorf("unsupported signing algorithm %q", alg)
	}
	return tokenKey{secret: []byte(secret), method: method}, nil
}

// TokenService issues and verifies the two token families.
//
// Access tokens prove API identity: sub = username.
// Channel tokens prove realtime identity: sub = user id. They are consumed
// by the broker, which holds the same channel secret.
//
// Both carry only RegisteredClaims (sub, iat, exp). What keeps them apart
// is the key: NewTokenService refuses identical secrets, so a token of
// one family never verifies under the other.
type TokenService struct {
	access     tokenKey
	channel    tokenKey
	channelTTL time.Duration
	now        func() time.Time
}

// Option configures a TokenService.
type Option func(*TokenService)

// WithClock overrides time.Now for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// WithChannelTTL overrides DefaultChannelTokenTTL.
func WithChannelTTL(ttl time.Duration) Option {
	return func(s *TokenService) { s.channelTTL = ttl }
}

func NewTokenService(accessSecret, accessAlg, channelSecret, channelAlg string, opts ...Option) (*TokenService, error) {
	access, err := newTokenKey(accessSecret, accessAlg)
	if err != nil {
		return nil, fmt.Errorf("access token key: %w", err)
	}
	channel, err := newTokenKey(channelSecret, channelAlg)
	if err != nil {
		return nil, fmt.Errorf("channel token key: %w", err)
	}
	if accessSecret == channelSecret {
		return nil, errors.New("access and channel token secrets must differ")
	}

	s := &TokenService{
		access:     access,
		channel:    channel,
		channelTTL: DefaultChannelTokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueAccessToken signs an access token for username, valid for ttl.
func (s *TokenService) IssueAccessToken(username string, ttl time.Duration) (AccessToken, error) {
	signed, err := s.sign(s.access, username, ttl)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return AccessToken(signed), nil
}

// VerifyAccessToken returns the username the token was issued for.
// Any failure (signature, algorithm, expiry, missing sub) is reported as
// apperr.ErrUnauthorized.
func (s *TokenService) VerifyAccessToken(token AccessToken) (string, error) {
	sub, err := s.verify(s.access, string(token))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	return sub, nil
}

// IssueChannelToken signs a realtime subscription token for userID.
func (s *TokenService) IssueChannelToken(userID string) (ChannelToken, error) {
	signed, err := s.sign(s.channel, userID, s.channelTTL)
	if err != nil {
		return "", fmt.Errorf("sign channel token: %w", err)
	}
	return ChannelToken(signed), nil
}

// VerifyChannelToken returns the user id of a channel token. The HTTP API
// never calls this; it exists for the built-in websocket gateway, which
// plays the broker's role when BROKER=redis.
func (s *TokenService) VerifyChannelToken(token ChannelToken) (string, error) {
	sub, err := s.verify(s.channel, string(token))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	return sub, nil
}

func (s *TokenService) sign(key tokenKey, subject string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(key.method, claims).SignedString(key.secret)
}

func (s *TokenService) verify(key tokenKey, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			// WithValidMethods already pins the algorithm; this guards
			// against a non-HMAC method slipping through with the same name.
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key.secret, nil
		},
		jwt.WithValidMethods([]string{key.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}
