package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the data-access layer. All tenant-scoped accessors take a
// mandatory tenant identifier; invoking one without it is a programming
// error and fails fast.
type Store struct {
	db *gorm.DB

	maxRetries  int
	baseBackoff time.Duration
	regTTL      time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithRetryPolicy overrides the failed-operation queue defaults.
func WithRetryPolicy(maxRetries int, baseBackoff time.Duration) Option {
	return func(s *Store) {
		s.maxRetries = maxRetries
		s.baseBackoff = baseBackoff
	}
}

// WithRegistrationTTL overrides the pending-registration TTL.
func WithRegistrationTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.regTTL = ttl
	}
}

// New builds a Store on db and installs the tenant guard backstop.
func New(db *gorm.DB, opts ...Option) (*Store, error) {
	s := &Store{
		db:          db,
		maxRetries:  5,
		baseBackoff: time.Minute,
		regTTL:      24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := RegisterTenantGuard(db); err != nil {
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying handle for wiring (migrations, health checks).
func (s *Store) DB() *gorm.DB { return s.db }

// scoped returns a session bound to tenantID for both enforcement layers.
// uuid.Nil fails fast rather than silently matching nothing.
func (s *Store) scoped(op string, tenantID uuid.UUID) (*gorm.DB, error) {
	if tenantID == uuid.Nil {
		return nil, &FatalError{Op: op, Err: errNoTenantScope}
	}
	return s.db.Set(TenantScopeSetting, tenantID), nil
}

// translate maps gorm-level errors into the store taxonomy.
func translate(op, entity string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &NotFoundError{Entity: entity}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &ConflictError{Entity: entity, Reason: "already exists"}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &NotFoundError{Entity: entity}
	default:
		if IsValidation(err) || IsNotFound(err) || IsConflict(err) || IsExpired(err) || IsTransient(err) || IsFatal(err) {
			return err
		}
		return &FatalError{Op: op, Err: err}
	}
}
