package membership

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raimangsxr/my-warehouse/internal/apierror"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

func newTestEnv(t *testing.T) (*store.Store, string) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	now := store.FormatTime(time.Now())
	_, err = s.DB().Exec(`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		"user-1", "owner@example.com", "hash", now)
	require.NoError(t, err)
	_, err = s.DB().Exec(`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		"user-2", "invitee@example.com", "hash", now)
	require.NoError(t, err)

	warehouseID := "warehouse-1"
	_, err = s.DB().Exec(`INSERT INTO warehouses (id, name, created_by, created_at) VALUES (?, ?, ?, ?)`,
		warehouseID, "Test Warehouse", "user-1", now)
	require.NoError(t, err)
	return s, warehouseID
}

func TestIsMember_FalseUntilAdded(t *testing.T) {
	s, wh := newTestEnv(t)
	m := New()
	ctx := context.Background()

	ok, err := m.IsMember(ctx, s.DB(), "user-2", wh)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.AddMember(ctx, s.DB(), "user-2", wh, time.Now()))

	ok, err = m.IsMember(ctx, s.DB(), "user-2", wh)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAddMember_IdempotentOnDuplicate(t *testing.T) {
	s, wh := newTestEnv(t)
	m := New()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, m.AddMember(ctx, s.DB(), "user-2", wh, now))
	require.NoError(t, m.AddMember(ctx, s.DB(), "user-2", wh, now))

	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM memberships WHERE user_id = ? AND warehouse_id = ?`, "user-2", wh).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestRequireMember_ForbiddenWhenNotAMember(t *testing.T) {
	s, wh := newTestEnv(t)
	m := New()

	err := m.RequireMember(context.Background(), s.DB(), "user-2", wh)
	require.Error(t, err)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindForbidden, apiErr.Kind)
}

func TestCreateInviteAndAccept_GrantsMembership(t *testing.T) {
	s, wh := newTestEnv(t)
	m := New()
	ctx := context.Background()
	now := time.Now()

	token, invite, err := m.CreateInvite(ctx, s.DB(), wh, "invitee@example.com", "user-1", now)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Nil(t, invite.AcceptedAt)

	accepted, err := m.AcceptInvite(ctx, s.DB(), token, "user-2", "invitee@example.com", now)
	require.NoError(t, err)
	require.NotNil(t, accepted.AcceptedAt)

	ok, err := m.IsMember(ctx, s.DB(), "user-2", wh)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAcceptInvite_WrongEmailForbidden(t *testing.T) {
	s, wh := newTestEnv(t)
	m := New()
	ctx := context.Background()
	now := time.Now()

	token, _, err := m.CreateInvite(ctx, s.DB(), wh, "invitee@example.com", "user-1", now)
	require.NoError(t, err)

	_, err = m.AcceptInvite(ctx, s.DB(), token, "user-2", "someone-else@example.com", now)
	require.Error(t, err)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindForbidden, apiErr.Kind)
}

func TestAcceptInvite_ExpiredRejected(t *testing.T) {
	s, wh := newTestEnv(t)
	m := New()
	ctx := context.Background()
	createdAt := time.Now().Add(-30 * 24 * time.Hour)

	token, _, err := m.CreateInvite(ctx, s.DB(), wh, "invitee@example.com", "user-1", createdAt)
	require.NoError(t, err)

	_, err = m.AcceptInvite(ctx, s.DB(), token, "user-2", "invitee@example.com", time.Now())
	require.Error(t, err)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindInvalidInput, apiErr.Kind)
}

func TestAcceptInvite_UnknownTokenNotFound(t *testing.T) {
	s, _ := newTestEnv(t)
	m := New()

	_, err := m.AcceptInvite(context.Background(), s.DB(), "bogus-token", "user-2", "invitee@example.com", time.Now())
	require.Error(t, err)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindNotFound, apiErr.Kind)
}

func TestAcceptInvite_AlreadyAcceptedIsIdempotent(t *testing.T) {
	s, wh := newTestEnv(t)
	m := New()
	ctx := context.Background()
	now := time.Now()

	token, _, err := m.CreateInvite(ctx, s.DB(), wh, "invitee@example.com", "user-1", now)
	require.NoError(t, err)

	first, err := m.AcceptInvite(ctx, s.DB(), token, "user-2", "invitee@example.com", now)
	require.NoError(t, err)

	second, err := m.AcceptInvite(ctx, s.DB(), token, "user-2", "invitee@example.com", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, first.AcceptedAt.Unix(), second.AcceptedAt.Unix())
}
