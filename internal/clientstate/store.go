package clientstate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/marketplace-storefront/pkg/marketplace"
	"github.com/angelmondragon/marketplace-storefront/pkg/redis"
	"go.uber.org/multierr"
)

// Persisted state names. They match the keys the browser client used to keep
// in localStorage and sessionStorage.
const (
	KeyAccessToken        = "access_token"
	KeyRefreshToken       = "refresh_token"
	KeyUser               = "user"
	KeyOTPResendTimestamp = "otp_resend_timestamp"
	KeySignupEmail        = "signup_email"
	KeyCart               = "cart"
	KeyWishlist           = "wishlist"
	KeyCards              = "cards"
)

type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	StateKey(sessionID, name string) string
}

// Manager opens per-session stores.
type Manager struct {
	kv           kv
	persistTTL   time.Duration
	ephemeralTTL time.Duration
}

// Options sets how long persisted and ephemeral values live.
type Options struct {
	PersistTTL   time.Duration
	EphemeralTTL time.Duration
}

// NewManager builds a Manager over the provided key-value store.
func NewManager(store kv, opts Options) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	return &Manager{kv: store, persistTTL: opts.PersistTTL, ephemeralTTL: opts.EphemeralTTL}, nil
}

// Open returns the Store for sessionID after running Init.
func (m *Manager) Open(ctx context.Context, sessionID string) (*Store, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	store := &Store{
		kv:           m.kv,
		sessionID:    sessionID,
		persistTTL:   m.persistTTL,
		ephemeralTTL: m.ephemeralTTL,
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Store is the explicitly owned state container of one storefront session.
// It satisfies marketplace.Tokens so authenticated calls read and refresh
// the session's pair through it.
type Store struct {
	kv           kv
	sessionID    string
	persistTTL   time.Duration
	ephemeralTTL time.Duration

	user          *marketplace.User
	authenticated bool
}

// Init reads the persisted tokens and user into the store.
func (s *Store) Init(ctx context.Context) error {
	access, err := s.getString(ctx, KeyAccessToken)
	if err != nil {
		return err
	}
	s.authenticated = access != ""
	s.user = nil
	var user marketplace.User
	found, err := s.GetJSON(ctx, KeyUser, &user)
	if err != nil {
		return err
	}
	if found {
		s.user = &user
	}
	return nil
}

// SessionID returns the owning session id.
func (s *Store) SessionID() string {
	return s.sessionID
}

// IsAuthenticated reports whether an access token was present at Init or saved since.
func (s *Store) IsAuthenticated() bool {
	return s.authenticated
}

// User returns the cached account, nil for guests.
func (s *Store) User() *marketplace.User {
	return s.user
}

// Tokens implements marketplace.Tokens.
func (s *Store) Tokens(ctx context.Context) (marketplace.TokenPair, error) {
	access, err := s.getString(ctx, KeyAccessToken)
	if err != nil {
		return marketplace.TokenPair{}, err
	}
	refresh, err := s.getString(ctx, KeyRefreshToken)
	if err != nil {
		return marketplace.TokenPair{}, err
	}
	return marketplace.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// SaveTokens implements marketplace.Tokens.
func (s *Store) SaveTokens(ctx context.Context, pair marketplace.TokenPair) error {
	if err := s.kv.Set(ctx, s.key(KeyAccessToken), pair.AccessToken, s.persistTTL); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	if pair.RefreshToken != "" {
		if err := s.kv.Set(ctx, s.key(KeyRefreshToken), pair.RefreshToken, s.persistTTL); err != nil {
			return fmt.Errorf("save refresh token: %w", err)
		}
	}
	s.authenticated = pair.AccessToken != ""
	return nil
}

// SaveUser persists the account snapshot.
func (s *Store) SaveUser(ctx context.Context, user *marketplace.User) error {
	if user == nil {
		return nil
	}
	if err := s.PutJSON(ctx, KeyUser, user, s.persistTTL); err != nil {
		return err
	}
	s.user = user
	return nil
}

// SignIn stores the pair and account from a login-shaped result. Whatever the
// previous account left in the session is dropped first.
func (s *Store) SignIn(ctx context.Context, result *marketplace.AuthResult) error {
	if result == nil || result.AccessToken == "" {
		return fmt.Errorf("auth result carries no access token")
	}
	if err := s.dropAccountData(ctx); err != nil {
		return err
	}
	if err := s.SaveTokens(ctx, result.Tokens()); err != nil {
		return err
	}
	return s.SaveUser(ctx, result.User)
}

// OTPResendTimestamp returns when an OTP was last sent. ok is false when none was recorded.
func (s *Store) OTPResendTimestamp(ctx context.Context) (time.Time, bool, error) {
	raw, err := s.getString(ctx, KeyOTPResendTimestamp)
	if err != nil || raw == "" {
		return time.Time{}, false, err
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(millis), true, nil
}

// SetOTPResendTimestamp records at as unix milliseconds.
func (s *Store) SetOTPResendTimestamp(ctx context.Context, at time.Time) error {
	value := strconv.FormatInt(at.UnixMilli(), 10)
	if err := s.kv.Set(ctx, s.key(KeyOTPResendTimestamp), value, s.persistTTL); err != nil {
		return fmt.Errorf("save otp resend timestamp: %w", err)
	}
	return nil
}

// SignupEmail returns the email awaiting OTP verification.
func (s *Store) SignupEmail(ctx context.Context) (string, error) {
	return s.getString(ctx, KeySignupEmail)
}

// SetSignupEmail keeps the email for the short verification window.
func (s *Store) SetSignupEmail(ctx context.Context, email string) error {
	if err := s.kv.Set(ctx, s.key(KeySignupEmail), email, s.ephemeralTTL); err != nil {
		return fmt.Errorf("save signup email: %w", err)
	}
	return nil
}

// ClearSignupEmail drops the pending verification email.
func (s *Store) ClearSignupEmail(ctx context.Context) error {
	return s.kv.Del(ctx, s.key(KeySignupEmail))
}

// GetJSON decodes the named value into out. found is false when the key is absent.
func (s *Store) GetJSON(ctx context.Context, name string, out any) (bool, error) {
	raw, err := s.getString(ctx, name)
	if err != nil || raw == "" {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

// PutJSON stores value under name. A zero ttl uses the persisted lifetime.
func (s *Store) PutJSON(ctx context.Context, name string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if ttl == 0 {
		ttl = s.persistTTL
	}
	if err := s.kv.Set(ctx, s.key(name), string(payload), ttl); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// Delete removes the named value.
func (s *Store) Delete(ctx context.Context, name string) error {
	return s.kv.Del(ctx, s.key(name))
}

// Clear tears the signed-in state down on logout. The guest cart and the
// OTP cooldown survive. Every key is attempted; failures are combined.
func (s *Store) Clear(ctx context.Context) error {
	err := s.del(ctx, KeyAccessToken, KeySignupEmail)
	err = multierr.Append(err, s.dropAccountData(ctx))
	s.authenticated = false
	return err
}

// dropAccountData removes the per-account caches and the refresh token.
func (s *Store) dropAccountData(ctx context.Context) error {
	s.user = nil
	return s.del(ctx, KeyRefreshToken, KeyUser, KeyWishlist, KeyCards)
}

func (s *Store) del(ctx context.Context, names ...string) error {
	var err error
	for _, name := range names {
		err = multierr.Append(err, s.kv.Del(ctx, s.key(name)))
	}
	return err
}

func (s *Store) getString(ctx context.Context, name string) (string, error) {
	value, err := s.kv.Get(ctx, s.key(name))
	if err != nil {
		if redis.IsMissing(err) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return value, nil
}

func (s *Store) key(name string) string {
	return s.kv.StateKey(s.sessionID, name)
}
