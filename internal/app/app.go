// Package app assembles the storage driver, observability, session directory
// and role document stores from configuration.
package app

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ethicure/internal/config"
	"ethicure/internal/core"
	"ethicure/internal/docstore"
	"ethicure/internal/kv"
	"ethicure/internal/observability"
	"ethicure/internal/session"
	"ethicure/pkg/domain"
)

// ErrUnknownRole is returned for a role name that has no document.
var ErrUnknownRole = errors.New("unknown role")

// Option adjusts how New assembles the application.
type Option func(*builder)

type builder struct {
	logOutput  io.Writer
	registerer prometheus.Registerer
	store      kv.Store
	now        func() time.Time
	loc        *time.Location
}

// WithLogOutput redirects log records (default stderr).
func WithLogOutput(w io.Writer) Option {
	return func(b *builder) {
		if w != nil {
			b.logOutput = w
		}
	}
}

// WithRegisterer registers Prometheus collectors on reg instead of the
// default registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(b *builder) { b.registerer = reg }
}

// WithStore uses store instead of opening the configured driver. The
// application still closes it.
func WithStore(store kv.Store) Option {
	return func(b *builder) { b.store = store }
}

// WithClock overrides the time source of every component.
func WithClock(now func() time.Time) Option {
	return func(b *builder) { b.now = now }
}

// WithLocation sets the zone used by the workspaces for calendar days.
func WithLocation(loc *time.Location) Option {
	return func(b *builder) { b.loc = loc }
}

// App holds the wired components. Close releases the storage driver.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Metrics  observability.MetricsRecorder
	Store    kv.Store
	Sessions *session.Directory

	admin      *docstore.Store[domain.AdminDocument]
	doctor     *docstore.Store[domain.DoctorDocument]
	patient    *docstore.Store[domain.PatientDocument]
	pharmacist *docstore.Store[domain.PharmacistDocument]
	staff      *docstore.Store[domain.StaffDocument]

	now func() time.Time
	loc *time.Location
}

// New wires an application from cfg.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	b := builder{logOutput: os.Stderr, now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(&b)
	}
	logger := observability.NewLogger(b.logOutput, cfg.Log.Level, cfg.Log.Format)
	metrics, err := newMetrics(cfg.Metrics, b.registerer)
	if err != nil {
		return nil, err
	}
	store := b.store
	if store == nil {
		store, err = kv.Open(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("app: open %s storage: %w", cfg.Storage.Driver, err)
		}
	}
	a := &App{Config: cfg, Logger: logger, Metrics: metrics, Store: store, now: b.now, loc: b.loc}
	if err := a.wire(); err != nil {
		_ = store.Close()
		return nil, err
	}
	logger.Info("storage ready", "driver", store.Driver(), "prefix", cfg.KeyPrefix, "write_mode", cfg.WriteMode)
	return a, nil
}

func newMetrics(cfg config.Metrics, reg prometheus.Registerer) (observability.MetricsRecorder, error) {
	switch cfg.Backend {
	case "prometheus":
		return observability.NewPrometheusRecorder(reg, cfg.Namespace)
	case "expvar":
		name := cfg.Namespace
		if expvar.Get(name) != nil {
			name = ""
		}
		return observability.NewExpvarMetricsRecorder(name), nil
	default:
		return observability.NoopRecorder{}, nil
	}
}

func (a *App) wire() error {
	var err error
	docOpts := []docstore.Option{
		docstore.WithPrefix(a.Config.KeyPrefix),
		docstore.WithLogger(a.Logger),
		docstore.WithMetrics(a.Metrics),
		docstore.WithClock(a.now),
	}
	if a.admin, err = docstore.New(a.Store, core.AdminSchema(), docOpts...); err != nil {
		return err
	}
	if a.doctor, err = docstore.New(a.Store, core.DoctorSchema(), docOpts...); err != nil {
		return err
	}
	if a.patient, err = docstore.New(a.Store, core.PatientSchema(), docOpts...); err != nil {
		return err
	}
	if a.pharmacist, err = docstore.New(a.Store, core.PharmacistSchema(), docOpts...); err != nil {
		return err
	}
	if a.staff, err = docstore.New(a.Store, core.StaffSchema(), docOpts...); err != nil {
		return err
	}
	a.Sessions, err = session.New(a.Store,
		session.WithPrefix(a.Config.KeyPrefix),
		session.WithLogger(a.Logger),
		session.WithMetrics(a.Metrics),
		session.WithClock(a.now),
	)
	return err
}

// Close releases the storage driver.
func (a *App) Close() error { return a.Store.Close() }

// WorkspaceOptions returns the options every workspace is opened with.
func (a *App) WorkspaceOptions() []core.Option {
	return []core.Option{
		core.WithWriteMode(core.WriteMode(a.Config.WriteMode)),
		core.WithLogger(a.Logger),
		core.WithMetrics(a.Metrics),
		core.WithClock(a.now),
		core.WithLocation(a.loc),
	}
}

// guard resolves the active session for role. A nil owner means access was
// refused and the returned Access carries the redirect page.
func (a *App) guard(ctx context.Context, role domain.Role) (*domain.Owner, session.Access, error) {
	access, err := a.Sessions.RequireSession(ctx, role)
	if err != nil || !access.Granted() {
		return nil, access, err
	}
	owner := access.Session.Owner()
	return &owner, access, nil
}

// OpenAdmin opens the administrator workspace of the signed-in user. When
// the session is missing or belongs to another role the workspace is nil and
// Access names the page to redirect to.
func (a *App) OpenAdmin(ctx context.Context) (*core.Admin, session.Access, error) {
	owner, access, err := a.guard(ctx, domain.RoleAdmin)
	if owner == nil {
		return nil, access, err
	}
	ws, err := core.OpenAdmin(ctx, a.admin, *owner, a.WorkspaceOptions()...)
	return ws, access, err
}

// OpenDoctor opens the doctor workspace of the signed-in user.
func (a *App) OpenDoctor(ctx context.Context) (*core.Doctor, session.Access, error) {
	owner, access, err := a.guard(ctx, domain.RoleDoctor)
	if owner == nil {
		return nil, access, err
	}
	ws, err := core.OpenDoctor(ctx, a.doctor, *owner, a.WorkspaceOptions()...)
	return ws, access, err
}

// OpenPatient opens the patient workspace of the signed-in user.
func (a *App) OpenPatient(ctx context.Context) (*core.Patient, session.Access, error) {
	owner, access, err := a.guard(ctx, domain.RolePatient)
	if owner == nil {
		return nil, access, err
	}
	ws, err := core.OpenPatient(ctx, a.patient, *owner, a.WorkspaceOptions()...)
	return ws, access, err
}

// OpenPharmacist opens the pharmacist workspace of the signed-in user.
func (a *App) OpenPharmacist(ctx context.Context) (*core.Pharmacist, session.Access, error) {
	owner, access, err := a.guard(ctx, domain.RolePharmacist)
	if owner == nil {
		return nil, access, err
	}
	ws, err := core.OpenPharmacist(ctx, a.pharmacist, *owner, a.WorkspaceOptions()...)
	return ws, access, err
}

// OpenStaff opens the front-desk workspace of the signed-in user.
func (a *App) OpenStaff(ctx context.Context) (*core.Staff, session.Access, error) {
	owner, access, err := a.guard(ctx, domain.RoleStaff)
	if owner == nil {
		return nil, access, err
	}
	ws, err := core.OpenStaff(ctx, a.staff, *owner, a.WorkspaceOptions()...)
	return ws, access, err
}

// DocumentKey returns the storage key of role's document for username.
func (a *App) DocumentKey(role domain.Role, username string) string {
	return docstore.Key(a.Config.KeyPrefix, role, username)
}

// ReadDocumentJSON reads the reconciled document of role for owner and
// returns the JSON a write would store. stored is false when defaults were
// returned because nothing was stored yet.
func (a *App) ReadDocumentJSON(ctx context.Context, role domain.Role, owner domain.Owner) (raw []byte, stored bool, err error) {
	switch role {
	case domain.RoleAdmin:
		return readJSON(ctx, a.admin, owner)
	case domain.RoleDoctor:
		return readJSON(ctx, a.doctor, owner)
	case domain.RolePatient:
		return readJSON(ctx, a.patient, owner)
	case domain.RolePharmacist:
		return readJSON(ctx, a.pharmacist, owner)
	case domain.RoleStaff:
		return readJSON(ctx, a.staff, owner)
	default:
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
}

func readJSON[T any](ctx context.Context, store *docstore.Store[T], owner domain.Owner) ([]byte, bool, error) {
	doc, err := store.Read(ctx, owner)
	if err != nil {
		return nil, false, err
	}
	raw, err := store.Encode(doc)
	if err != nil {
		return nil, false, err
	}
	return raw, doc.Stored, nil
}
