// Package session keeps the registered users and the single active session,
// and guards role pages against missing or foreign sessions.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"ethicure/internal/ids"
	"ethicure/internal/kv"
	"ethicure/internal/observability"
	"ethicure/pkg/domain"
)

var (
	// ErrUsernameTaken reports a registration for an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials covers both unknown users and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Option configures a Directory.
type Option func(*Directory)

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) Option {
	return func(d *Directory) {
		if p := strings.TrimSpace(prefix); p != "" {
			d.prefix = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Directory) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec observability.MetricsRecorder) Option {
	return func(d *Directory) {
		if rec != nil {
			d.metrics = rec
		}
	}
}

// WithClock overrides the time source for createdAt stamps.
func WithClock(now func() time.Time) Option {
	return func(d *Directory) {
		if now != nil {
			d.now = now
		}
	}
}

// WithIDs overrides the patient id generator.
func WithIDs(gen ids.Generator) Option {
	return func(d *Directory) {
		if gen != nil {
			d.ids = gen
		}
	}
}

// Directory stores user records under `{prefix}:users` and the active session
// under `{prefix}:session`.
type Directory struct {
	kv       kv.Store
	prefix   string
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	now      func() time.Time
	ids      ids.Generator
	validate *validator.Validate
}

// New builds a Directory over store.
func New(store kv.Store, opts ...Option) (*Directory, error) {
	if store == nil {
		return nil, errors.New("session: nil kv store")
	}
	d := &Directory{
		kv:       store,
		prefix:   "app",
		logger:   observability.DiscardLogger(),
		metrics:  observability.NoopRecorder{},
		now:      time.Now,
		ids:      ids.UUID{},
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// UsersKey is the key holding the user list.
func (d *Directory) UsersKey() string { return d.prefix + ":users" }

// SessionKey is the key holding the active session.
func (d *Directory) SessionKey() string { return d.prefix + ":session" }

// ListUsers returns every registered user. Missing or unreadable data yields
// an empty list.
func (d *Directory) ListUsers(ctx context.Context) ([]domain.UserRecord, error) {
	users, _, err := d.loadUsers(ctx)
	return users, err
}

func (d *Directory) loadUsers(ctx context.Context) ([]domain.UserRecord, string, error) {
	key := d.UsersKey()
	entry, found, err := d.kv.Get(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("session: read users: %w", err)
	}
	if !found {
		return []domain.UserRecord{}, "", nil
	}
	var users []domain.UserRecord
	if err := json.Unmarshal(entry.Value, &users); err != nil || users == nil {
		d.logger.Warn("stored users unreadable, treating as empty", "key", key, "error", err)
		return []domain.UserRecord{}, entry.Revision, nil
	}
	return users, entry.Revision, nil
}

// RegisterUser validates reg, rejects taken usernames and appends the new
// record. The returned error is a domain.FieldErrors for invalid input and
// additionally matches ErrUsernameTaken for a duplicate username.
func (d *Directory) RegisterUser(ctx context.Context, reg Registration) (user domain.UserRecord, err error) {
	defer observability.Since(ctx, d.metrics, "session.register", time.Now(), &err)
	if err := validateRegistration(d.validate, reg); err != nil {
		return domain.UserRecord{}, err
	}
	reg = reg.trimmed()
	users, revision, err := d.loadUsers(ctx)
	if err != nil {
		return domain.UserRecord{}, err
	}
	for _, existing := range users {
		if existing.Username == reg.Username {
			return domain.UserRecord{}, errors.Join(ErrUsernameTaken, domain.FieldErrors{"username": MsgUsernameTaken})
		}
	}
	user = domain.UserRecord{
		Username:  reg.Username,
		Password:  reg.Password,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Email:     reg.Email,
		Role:      domain.Role(reg.Role),
		CreatedAt: domain.At(d.now()),
	}
	if user.Role == domain.RolePatient {
		pid := d.ids.PatientID()
		user.PatientID = &pid
	}
	raw, err := json.Marshal(append(users, user))
	if err != nil {
		return domain.UserRecord{}, fmt.Errorf("session: encode users: %w", err)
	}
	if _, err := d.kv.CompareAndSet(ctx, d.UsersKey(), revision, raw); err != nil {
		return domain.UserRecord{}, fmt.Errorf("session: save users: %w", err)
	}
	d.logger.Info("user registered", "username", user.Username, "role", user.Role)
	return user, nil
}

// Authenticate finds the user by trimmed username and compares the password
// exactly.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (user domain.UserRecord, err error) {
	defer observability.Since(ctx, d.metrics, "session.authenticate", time.Now(), &err)
	users, _, err := d.loadUsers(ctx)
	if err != nil {
		return domain.UserRecord{}, err
	}
	name := strings.TrimSpace(username)
	for _, u := range users {
		if u.Username == name {
			if u.Password != password {
				break
			}
			return u, nil
		}
	}
	d.logger.Debug("authentication failed", "username", name)
	return domain.UserRecord{}, ErrInvalidCredentials
}

// CreateSession replaces the active session with one for user.
func (d *Directory) CreateSession(ctx context.Context, user domain.UserRecord) (domain.SessionRecord, error) {
	s := domain.SessionRecord{
		Username:  user.Username,
		Role:      user.Role,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		PatientID: user.PatientID,
		CreatedAt: domain.At(d.now()),
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return domain.SessionRecord{}, fmt.Errorf("session: encode session: %w", err)
	}
	if _, err := d.kv.Set(ctx, d.SessionKey(), raw); err != nil {
		return domain.SessionRecord{}, fmt.Errorf("session: save session: %w", err)
	}
	return s, nil
}

// GetSession returns the active session. Missing or unreadable data reports
// no session.
func (d *Directory) GetSession(ctx context.Context) (domain.SessionRecord, bool, error) {
	key := d.SessionKey()
	entry, found, err := d.kv.Get(ctx, key)
	if err != nil {
		return domain.SessionRecord{}, false, fmt.Errorf("session: read session: %w", err)
	}
	if !found {
		return domain.SessionRecord{}, false, nil
	}
	var s *domain.SessionRecord
	if err := json.Unmarshal(entry.Value, &s); err != nil || s == nil {
		d.logger.Warn("stored session unreadable, ignoring", "key", key, "error", err)
		return domain.SessionRecord{}, false, nil
	}
	return *s, true, nil
}

// ClearSession removes the active session.
func (d *Directory) ClearSession(ctx context.Context) error {
	if _, err := d.kv.Delete(ctx, d.SessionKey()); err != nil {
		return fmt.Errorf("session: clear session: %w", err)
	}
	return nil
}

// Access is the outcome of a page guard. Redirect is empty when the session
// may view the page.
type Access struct {
	Session  domain.SessionRecord
	Redirect string
}

// Granted reports whether the page may render.
func (a Access) Granted() bool { return a.Redirect == "" }

// RequireSession guards a page. Without a session the caller is sent to the
// login page; a session whose role is not in allowed (when allowed is
// non-empty) is sent to its own home page.
func (d *Directory) RequireSession(ctx context.Context, allowed ...domain.Role) (Access, error) {
	s, ok, err := d.GetSession(ctx)
	if err != nil {
		return Access{}, err
	}
	if !ok {
		return Access{Redirect: domain.PageLogin}, nil
	}
	if len(allowed) > 0 && !containsRole(allowed, s.Role) {
		return Access{Session: s, Redirect: s.Role.HomePage()}, nil
	}
	return Access{Session: s}, nil
}

func containsRole(roles []domain.Role, r domain.Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Login validates creds, authenticates and opens a session. It returns the
// session and the page to navigate to.
func (d *Directory) Login(ctx context.Context, creds Credentials) (s domain.SessionRecord, page string, err error) {
	defer observability.Since(ctx, d.metrics, "session.login", time.Now(), &err)
	if err := validateCredentials(d.validate, creds); err != nil {
		return domain.SessionRecord{}, "", err
	}
	user, err := d.Authenticate(ctx, creds.Username, creds.Password)
	if err != nil {
		return domain.SessionRecord{}, "", err
	}
	s, err = d.CreateSession(ctx, user)
	if err != nil {
		return domain.SessionRecord{}, "", err
	}
	d.logger.Info("session opened", "username", s.Username, "role", s.Role)
	return s, s.Role.HomePage(), nil
}

// Logout clears the session and returns the page to navigate to.
func (d *Directory) Logout(ctx context.Context) (string, error) {
	if err := d.ClearSession(ctx); err != nil {
		return "", err
	}
	return domain.PageIndex, nil
}
