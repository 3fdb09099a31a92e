package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

func TestFailedOperationDeadAtRetryBudget(t *testing.T) {
	s := newTestStore(t, WithRetryPolicy(5, time.Nanosecond))
	tenant := createTestTenant(t, s, "Casa")

	row, err := s.EnqueueFailedOperation(FailedOperationInput{
		TenantID:      &tenant,
		OperationType: "send_whatsapp",
		Payload:       model.MustJSON(map[string]string{"to": "+549..."}),
		ErrorMessage:  "provider 503",
		CorrelationID: "corr-1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.FailedOpPending, row.Status)
	assert.Equal(t, 0, row.RetryCount)
	assert.Equal(t, 5, row.MaxRetries)

	for attempt := 1; attempt <= 5; attempt++ {
		time.Sleep(2 * time.Millisecond)
		claimed, err := s.ClaimDueOperations(10)
		require.NoError(t, err)
		require.Len(t, claimed, 1, "attempt %d should find the row due", attempt)

		failed, err := s.MarkOperationFailed(claimed[0].ID, fmt.Sprintf("attempt %d failed", attempt))
		require.NoError(t, err)
		assert.Equal(t, attempt, failed.RetryCount)

		if attempt < 5 {
			assert.Equal(t, model.FailedOpPending, failed.Status, "attempt %d keeps retrying", attempt)
		} else {
			// Dead exactly at the budget, not before, not after.
			assert.Equal(t, model.FailedOpDead, failed.Status)
		}
	}

	// Dead rows are never claimed again.
	claimed, err := s.ClaimDueOperations(10)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	dead, err := s.ListDeadOperations(0)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "attempt 5 failed", dead[0].ErrorMessage)
}

func TestFailedOperationCompletes(t *testing.T) {
	s := newTestStore(t, WithRetryPolicy(5, time.Nanosecond))

	row, err := s.EnqueueFailedOperation(FailedOperationInput{OperationType: "sync_calendar"})
	require.NoError(t, err)

	claimed, err := s.ClaimDueOperations(10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	require.NoError(t, s.MarkOperationCompleted(claimed[0].ID))

	var final model.FailedOperation
	require.NoError(t, s.db.First(&final, "id = ?", row.ID).Error)
	assert.Equal(t, model.FailedOpCompleted, final.Status)

	// Completed rows are out of the queue.
	claimed, err = s.ClaimDueOperations(10)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestClaimDueRespectsBackoff(t *testing.T) {
	s := newTestStore(t, WithRetryPolicy(5, time.Hour))

	_, err := s.EnqueueFailedOperation(FailedOperationInput{OperationType: "send_email"})
	require.NoError(t, err)

	claimed, err := s.ClaimDueOperations(10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	_, err = s.MarkOperationFailed(claimed[0].ID, "smtp down")
	require.NoError(t, err)

	// The next attempt is an hour away; nothing is due now.
	claimed, err = s.ClaimDueOperations(10)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestClaimDueClaimsEachRowOnce(t *testing.T) {
	s := newTestStore(t, WithRetryPolicy(5, time.Nanosecond))

	_, err := s.EnqueueFailedOperation(FailedOperationInput{OperationType: "a"})
	require.NoError(t, err)
	_, err = s.EnqueueFailedOperation(FailedOperationInput{OperationType: "b"})
	require.NoError(t, err)

	first, err := s.ClaimDueOperations(10)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	// Already processing; a second worker gets nothing.
	second, err := s.ClaimDueOperations(10)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestRequeueDeadOperation(t *testing.T) {
	s := newTestStore(t, WithRetryPolicy(1, time.Nanosecond))

	row, err := s.EnqueueFailedOperation(FailedOperationInput{OperationType: "send_whatsapp"})
	require.NoError(t, err)

	claimed, err := s.ClaimDueOperations(10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	failed, err := s.MarkOperationFailed(claimed[0].ID, "boom")
	require.NoError(t, err)
	require.Equal(t, model.FailedOpDead, failed.Status)

	// Manual intervention puts it back with a fresh budget.
	require.NoError(t, s.RequeueDeadOperation(row.ID))

	claimed, err = s.ClaimDueOperations(10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, 0, claimed[0].RetryCount)

	// Requeueing a non-dead row reports not found.
	err = s.RequeueDeadOperation(row.ID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}
