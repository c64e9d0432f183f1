// Package auth issues and validates access tokens for B2B accounts and
// handles self-registration against the VAT registry.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/rs/zerolog"

	"github.com/agroflight/backend-shop/internal/b2b"
	"github.com/agroflight/backend-shop/internal/common"
	"github.com/agroflight/backend-shop/internal/events"
	"github.com/agroflight/backend-shop/internal/vies"
)

const defaultAccessTTL = 12 * time.Hour

// homeCountry is the VAT prefix of the home region.
const homeCountry = "PL"

// Service coordinates registration, login and token handling.
type Service struct {
	store     *b2b.Store
	vat       vies.Provider
	bus       *events.Bus
	logger    zerolog.Logger
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	issuer    string
	audience  string
	clockSkew time.Duration
}

// Config configures the auth service.
type Config struct {
	Store          *b2b.Store
	VATRegistry    vies.Provider
	Bus            *events.Bus
	Logger         zerolog.Logger
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// LoginResult bundles the token material returned after a successful login.
type LoginResult struct {
	Customer    b2b.Customer `json:"customer"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"access_expires_at"`
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("auth: store is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-shop"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "shop-frontend"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}
	return &Service{
		store:     cfg.Store,
		vat:       cfg.VATRegistry,
		bus:       cfg.Bus,
		logger:    cfg.Logger,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
		signer:    jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// RegisterParams carries a B2B account application.
type RegisterParams struct {
	Email       string
	Password    string
	CompanyName string
	VATID       string
}

// Register creates a pending B2B account. The VAT id is checked against the
// registry: a malformed or registry-rejected id fails the application, while
// an unreachable registry lets the application through for manual review. The
// region is derived from the VAT prefix; PL is home, everything else foreign.
func (s *Service) Register(ctx context.Context, p RegisterParams) (b2b.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(p.Email))
	if email == "" {
		return b2b.Customer{}, common.NewAppError(common.CodeValidation, "email is required", http.StatusBadRequest, nil)
	}
	if len(p.Password) < 8 {
		return b2b.Customer{}, common.NewAppError(common.CodeValidation, "password must be at least 8 characters", http.StatusBadRequest, nil)
	}
	country, number, err := vies.SplitVATID(p.VATID)
	if err != nil {
		return b2b.Customer{}, common.NewAppError(common.CodeValidation, "invalid VAT id", http.StatusBadRequest, err)
	}
	vatID := country + number

	companyName := strings.TrimSpace(p.CompanyName)
	if s.vat != nil {
		result, err := s.vat.Check(ctx, vatID)
		switch {
		case errors.Is(err, vies.ErrUnavailable):
			s.logger.Warn().Str("vat_id", vatID).Msg("vat registry unavailable, registering unverified")
		case err != nil:
			return b2b.Customer{}, common.NewAppError(common.CodeValidation, "invalid VAT id", http.StatusBadRequest, err)
		case !result.Valid:
			return b2b.Customer{}, common.NewAppError(common.CodeValidation, "VAT id is not registered in VIES", http.StatusBadRequest, nil)
		default:
			if companyName == "" {
				companyName = result.Name
			}
		}
	}
	if companyName == "" {
		return b2b.Customer{}, common.NewAppError(common.CodeValidation, "company name is required", http.StatusBadRequest, nil)
	}

	region := b2b.RegionForeign
	if country == homeCountry {
		region = b2b.RegionHome
	}

	hash, err := argon2id.CreateHash(p.Password, argon2id.DefaultParams)
	if err != nil {
		return b2b.Customer{}, fmt.Errorf("hash password: %w", err)
	}
	customer, err := s.store.CreateCustomer(ctx, b2b.NewCustomerParams{
		Email:        email,
		PasswordHash: hash,
		CompanyName:  companyName,
		VATID:        vatID,
		Region:       region,
		Status:       b2b.StatusPending,
	})
	if err != nil {
		if errors.Is(err, b2b.ErrEmailTaken) {
			return b2b.Customer{}, common.NewAppError(common.CodeConflict, "email is already registered", http.StatusConflict, err)
		}
		return b2b.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	if s.bus != nil {
		if _, err := s.bus.Emit(ctx, events.TopicCustomerRegistered, customer.ID, map[string]any{
			"customerId":  customer.ID.String(),
			"email":       customer.Email,
			"companyName": customer.CompanyName,
			"region":      string(customer.Region),
		}); err != nil {
			s.logger.Warn().Err(err).Msg("customer registration event emission failed")
		}
	}
	return customer, nil
}

// Login verifies credentials and issues an access token. Pending and rejected
// accounts may log in; they simply see retail prices until approved.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	normalized := strings.TrimSpace(strings.ToLower(email))
	if normalized == "" || password == "" {
		return LoginResult{}, invalidCredentials(nil)
	}
	customer, hash, err := s.store.Credentials(ctx, normalized)
	if err != nil {
		return LoginResult{}, invalidCredentials(err)
	}
	ok, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil || !ok {
		return LoginResult{}, invalidCredentials(err)
	}
	token, expiresAt, err := s.signAccessToken(customer.ID.String())
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	return LoginResult{Customer: customer, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// Me fetches the account behind a parsed token subject.
func (s *Service) Me(ctx context.Context, customerID string) (b2b.Customer, error) {
	id, err := parseCustomerID(customerID)
	if err != nil {
		return b2b.Customer{}, common.NewAppError(common.CodeUnauthorized, "unauthorized", http.StatusUnauthorized, err)
	}
	customer, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return b2b.Customer{}, common.NewAppError(common.CodeUnauthorized, "unauthorized", http.StatusUnauthorized, err)
	}
	return customer, nil
}

// ParseAccessToken validates an access token and returns the subject.
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError(common.CodeUnauthorized, "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return "", common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return "", common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return "", common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, err)
	}
	return parsed.Subject(), nil
}

func (s *Service) signAccessToken(subject string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	token, err := jwt.NewBuilder().
		Subject(subject).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func parseCustomerID(raw string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(raw))
}

func invalidCredentials(err error) *common.AppError {
	return common.NewAppError(common.CodeUnauthorized, "invalid email or password", http.StatusUnauthorized, err)
}
