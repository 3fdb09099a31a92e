package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

func TestRecordAuditTrail(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	for _, action := range []string{"expense.register", "reminder.create"} {
		_, err := s.RecordAudit(AuditEntry{
			TenantID:      &tenant,
			CorrelationID: "corr-7",
			Actor:         "whatsapp:+549...",
			Action:        action,
			Input:         model.MustJSON(map[string]string{"raw": "gaste 100 en verduras"}),
			Status:        model.AuditSuccess,
			Duration:      120 * time.Millisecond,
		})
		require.NoError(t, err)
	}

	entries, err := s.ListAuditByCorrelation("corr-7")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "expense.register", entries[0].Action)
	assert.Equal(t, "reminder.create", entries[1].Action)
	assert.EqualValues(t, 120, entries[0].DurationMS)
}

func TestRecordAuditValidation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.RecordAudit(AuditEntry{Action: "x", Status: model.AuditSuccess})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = s.RecordAudit(AuditEntry{CorrelationID: "c", Status: model.AuditSuccess})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = s.RecordAudit(AuditEntry{CorrelationID: "c", Action: "x", Status: "maybe"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestListTenantAudit(t *testing.T) {
	s := newTestStore(t)
	tenantA := createTestTenant(t, s, "Casa A")
	tenantB := createTestTenant(t, s, "Casa B")

	_, err := s.RecordAudit(AuditEntry{
		TenantID: &tenantA, CorrelationID: "c1", Action: "a", Status: model.AuditSuccess,
	})
	require.NoError(t, err)

	mine, err := s.ListTenantAudit(tenantA, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := s.ListTenantAudit(tenantB, 0)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}
