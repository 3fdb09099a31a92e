package store

import (
	"errors"
	"reflect"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenantScopeSetting is the session key carrying the bound tenant for the
// row-level backstop. It is request-scoped state threaded through the
// gorm session, never a process-wide global.
const TenantScopeSetting = "hogar:tenant_scope"

// TenantOwned is implemented by models that are exclusively owned by one
// tenant and must never be read or written without a tenant filter.
type TenantOwned interface {
	OwnerTenantID() uuid.UUID
}

var (
	errNoTenantScope   = errors.New("tenant-scoped statement without bound tenant")
	errTenantMismatch  = errors.New("row tenant does not match bound tenant scope")
	tenantOwnedRefType = reflect.TypeOf((*TenantOwned)(nil)).Elem()
)

// RegisterTenantGuard installs the row-level backstop on db. Independent
// of the store layer's explicit tenant filters: every query, update and
// delete against a TenantOwned model gets the bound tenant appended as an
// extra condition, and fails outright when no tenant is bound. Creates
// are checked against the bound tenant.
func RegisterTenantGuard(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("hogar:tenant_guard_query", guardStatement); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("hogar:tenant_guard_row", guardStatement); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("hogar:tenant_guard_update", guardStatement); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("hogar:tenant_guard_delete", guardStatement); err != nil {
		return err
	}
	return db.Callback().Create().Before("gorm:create").Register("hogar:tenant_guard_create", guardCreate)
}

func guardStatement(db *gorm.DB) {
	if !statementIsTenantOwned(db) {
		return
	}
	tenantID, ok := boundTenant(db)
	if !ok {
		_ = db.AddError(&FatalError{Op: "tenant_guard", Err: errNoTenantScope})
		return
	}
	db.Statement.AddClause(clause.Where{Exprs: []clause.Expression{
		clause.Eq{
			Column: clause.Column{Table: clause.CurrentTable, Name: "tenant_id"},
			Value:  tenantID,
		},
	}})
}

func guardCreate(db *gorm.DB) {
	if !statementIsTenantOwned(db) {
		return
	}
	tenantID, ok := boundTenant(db)
	if !ok {
		_ = db.AddError(&FatalError{Op: "tenant_guard", Err: errNoTenantScope})
		return
	}

	value := reflect.Indirect(reflect.ValueOf(db.Statement.Dest))
	switch value.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < value.Len(); i++ {
			if !createMatchesTenant(value.Index(i), tenantID) {
				_ = db.AddError(&FatalError{Op: "tenant_guard", Err: errTenantMismatch})
				return
			}
		}
	default:
		if owned, ok := db.Statement.Dest.(TenantOwned); ok {
			if owned.OwnerTenantID() != tenantID {
				_ = db.AddError(&FatalError{Op: "tenant_guard", Err: errTenantMismatch})
			}
		}
	}
}

func createMatchesTenant(v reflect.Value, tenantID uuid.UUID) bool {
	if v.Kind() != reflect.Ptr {
		if !v.CanAddr() {
			return true
		}
		v = v.Addr()
	}
	owned, ok := v.Interface().(TenantOwned)
	if !ok {
		return true
	}
	return owned.OwnerTenantID() == tenantID
}

func boundTenant(db *gorm.DB) (uuid.UUID, bool) {
	val, ok := db.Get(TenantScopeSetting)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := val.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// statementIsTenantOwned reports whether the statement's model or
// destination is a TenantOwned entity.
func statementIsTenantOwned(db *gorm.DB) bool {
	if db.Statement == nil {
		return false
	}
	if typeIsTenantOwned(reflect.TypeOf(db.Statement.Model)) {
		return true
	}
	return typeIsTenantOwned(reflect.TypeOf(db.Statement.Dest))
}

func typeIsTenantOwned(t reflect.Type) bool {
	for t != nil && (t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice || t.Kind() == reflect.Array) {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return false
	}
	return reflect.PointerTo(t).Implements(tenantOwnedRefType)
}
