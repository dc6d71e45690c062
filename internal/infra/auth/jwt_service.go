package auth

import (
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// jwtService is the HS256 implementation of service.TokenService.
type jwtService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService builds the token service from auth.token.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg == nil || cfg.Auth == nil || cfg.Auth.Token.Secret == "" {
		return nil, errors.New("jwt secret must be provided")
	}

	ttl := cfg.Auth.Token.TTL
	if ttl <= 0 {
		ttl = config.DefaultTokenTTL
	}

	return &jwtService{
		secret: []byte(cfg.Auth.Token.Secret),
		issuer: cfg.Auth.Token.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a token whose subject is the account id.
func (s *jwtService) Issue(accountID uuid.UUID) (string, error) {
	now := s.now()
	claims := service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}

	return token, nil
}

// Verify checks signature, algorithm, issuer and expiry and returns the subject.
func (s *jwtService) Verify(tokenString string) (uuid.UUID, error) {
	claims := &service.Claims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return uuid.Nil, service.ErrTokenInvalid
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, service.ErrTokenInvalid
	}

	return accountID, nil
}
