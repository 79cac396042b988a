package tokens

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/phonehub/internal/models"
)

const MinKeyLen = 32

var (
	ErrWeakKey   = fmt.Errorf("signing key must be at least %d bytes", MinKeyLen)
	ErrWrongKind = errors.New("token is of the wrong kind")
)

type Profile struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

var (
	ProductionProfile  = Profile{AccessTTL: 15 * time.Minute, RefreshTTL: 7 * 24 * time.Hour}
	DevelopmentProfile = Profile{AccessTTL: 30 * time.Second, RefreshTTL: 7 * 24 * time.Hour}
)

type Config struct {
	Secret []byte
	// Environment "dev" (any case) selects Development, anything else Production.
	Environment string
	Production  Profile
	Development Profile
}

// Service issues and checks HS256 tokens with a single key fixed at
// construction. It is safe for concurrent use.
type Service struct {
	key     []byte
	profile Profile
	now     func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	if len(cfg.Secret) < MinKeyLen {
		return nil, ErrWeakKey
	}

	profile := cfg.Production
	if strings.EqualFold(cfg.Environment, "dev") {
		profile = cfg.Development
	}
	if profile.AccessTTL <= 0 || profile.RefreshTTL <= 0 {
		return nil, errors.New("token profile must have positive ttls")
	}

	s := &Service{
		key:     append([]byte(nil), cfg.Secret...),
		profile: profile,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) Profile() Profile { return s.profile }

func (s *Service) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *Service) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) IssueAccessToken(u *models.User) (string, error) {
	claims := accessClaimsFor(u)
	claims.RegisteredClaims = s.registered(u.Username, s.profile.AccessTTL)
	return s.sign(claims)
}

func (s *Service) IssueRefreshToken(username string) (string, error) {
	return s.sign(RefreshClaims{
		Type:             KindRefresh,
		RegisteredClaims: s.registered(username, s.profile.RefreshTTL),
	})
}

func (s *Service) keyFunc(t *jwt.Token) (any, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, errors.New("unexpected sign method")
	}
	return s.key, nil
}

func (s *Service) parse(token string, claims jwt.Claims, opts ...jwt.ParserOption) (*jwt.Token, error) {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	return jwt.ParseWithClaims(token, claims, s.keyFunc, opts...)
}

// ValidateAccess reports whether token is an access token whose signature
// verifies and which is inside its validity window. It never returns an
// error.
func (s *Service) ValidateAccess(token string) bool { return s.valid(token, KindAccess) }

// ValidateRefresh is ValidateAccess for refresh tokens.
func (s *Service) ValidateRefresh(token string) bool { return s.valid(token, KindRefresh) }

func (s *Service) valid(token, kind string) bool {
	if token == "" {
		return false
	}
	var claims RefreshClaims
	t, err := s.parse(token, &claims)
	return err == nil && t.Valid && claims.Type == kind
}

// IsExpired reports whether token is an access token with a good signature
// that is past its expiry.
func (s *Service) IsExpired(token string) bool {
	if token == "" {
		return false
	}
	var claims AccessClaims
	_, err := s.parse(token, &claims)
	return errors.Is(err, jwt.ErrTokenExpired) && claims.Type == KindAccess
}

// ParseClaims returns the claims of a valid access token.
func (s *Service) ParseClaims(token string) (*AccessClaims, error) {
	var claims AccessClaims
	t, err := s.parse(token, &claims)
	if err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	if !t.Valid {
		return nil, errors.New("parse claims: token is not valid")
	}
	if claims.Type != KindAccess {
		return nil, ErrWrongKind
	}
	return &claims, nil
}

// ParseRefreshClaims returns the claims of a valid refresh token.
func (s *Service) ParseRefreshClaims(token string) (*RefreshClaims, error) {
	var claims RefreshClaims
	t, err := s.parse(token, &claims)
	if err != nil {
		return nil, fmt.Errorf("parse refresh claims: %w", err)
	}
	if !t.Valid {
		return nil, errors.New("parse refresh claims: token is not valid")
	}
	if claims.Type != KindRefresh {
		return nil, ErrWrongKind
	}
	return &claims, nil
}

// DecodeExpiredSubjectClaims reads the owner of an access token whose
// signature is good, ignoring the validity window.
func (s *Service) DecodeExpiredSubjectClaims(token string) (*SubjectClaims, error) {
	var claims AccessClaims
	if _, err := s.parse(token, &claims, jwt.WithoutClaimsValidation()); err != nil {
		return nil, fmt.Errorf("decode subject: %w", err)
	}
	if claims.Type != KindAccess {
		return nil, ErrWrongKind
	}
	return &SubjectClaims{Subject: claims.Subject, ID: claims.ID}, nil
}
