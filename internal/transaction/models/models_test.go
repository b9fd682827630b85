package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spverifier/internal/verification"
	"spverifier/pkg/platform/sentinel"
)

func TestTransactionLifecycle(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tx := NewTransaction("tx", "req", "ep", "http://sp/verify/ep", "n-1", now)
	assert.Equal(t, StatusCreated, tx.Status)

	require.ErrorIs(t, tx.CheckCode(""), sentinel.ErrInvalidState, "unresponded transaction must not redeem")

	tx.MarkRequested()
	tx.MarkRequested()
	assert.Equal(t, StatusRequested, tx.Status)

	assert.ErrorIs(t, tx.CanRespond("tx"), sentinel.ErrInvalidState, "transaction id is not a valid state")
	assert.ErrorIs(t, tx.MarkResponded("wrong", "ABC123", nil, now), sentinel.ErrInvalidState)
	assert.ErrorIs(t, tx.MarkResponded("req", "", nil, now), sentinel.ErrInvalidState)
	assert.Empty(t, tx.ResponseCode)

	presented := []verification.PresentedCredential{{Cred: "c", Key: "$.a", Value: "v", Issuer: "did:x"}}
	require.NoError(t, tx.MarkResponded("req", "ABC123", presented, now.Add(time.Second)))
	assert.Equal(t, StatusResponded, tx.Status)
	assert.Equal(t, now.Add(time.Second), tx.RespondedAt)

	assert.ErrorIs(t, tx.MarkResponded("req", "XYZ789", nil, now), sentinel.ErrAlreadyUsed)
	assert.Equal(t, "ABC123", tx.ResponseCode)

	tx.MarkRequested()
	assert.Equal(t, StatusResponded, tx.Status)

	assert.NoError(t, tx.CheckCode("ABC123"))
	assert.ErrorIs(t, tx.CheckCode("abc123"), sentinel.ErrInvalidState)
	assert.ErrorIs(t, tx.CheckCode(""), sentinel.ErrInvalidState)
}

func TestCloneDetachesDisclosures(t *testing.T) {
	tx := NewTransaction("tx", "req", "ep", "", "", time.Time{})
	tx.Presented = []verification.PresentedCredential{{Cred: "a"}}

	clone := tx.Clone()
	clone.Presented[0].Cred = "b"
	assert.Equal(t, "a", tx.Presented[0].Cred)
}
