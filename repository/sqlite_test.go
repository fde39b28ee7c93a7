package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/cordlite/database"
	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), database.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedUser(t *testing.T, users UserRepository, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "hash"}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func seedServer(t *testing.T, servers ServerRepository, owner *models.User) *models.Server {
	t.Helper()
	s := &models.Server{Name: "Test", OwnerID: owner.ID}
	require.NoError(t, servers.Create(context.Background(), s))
	require.NoError(t, servers.AddMember(context.Background(), &models.Membership{
		UserID: owner.ID, ServerID: s.ID, Role: models.RoleOwner,
	}))
	return s
}

func TestSQLiteUserRepo_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	ctx := context.Background()

	u := seedUser(t, users, "alice")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, time.UTC, u.CreatedAt.Location())

	byEmail, err := users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)
	assert.Nil(t, byEmail.AvatarURL)

	byID, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestSQLiteUserRepo_CreateDuplicate(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	seedUser(t, users, "alice")

	tests := []struct {
		name string
		user models.User
	}{
		{"same email", models.User{Username: "other", Email: "alice@example.com", PasswordHash: "h"}},
		{"same username", models.User{Username: "alice", Email: "other@example.com", PasswordHash: "h"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.user
			err := users.Create(context.Background(), &u)
			assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
		})
	}
}

func TestSQLiteUserRepo_UpdatePatch(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	ctx := context.Background()
	u := seedUser(t, users, "alice")
	seedUser(t, users, "bob")

	updated, err := users.Update(ctx, u.ID, models.UserPatch{AvatarURL: models.Some("https://cdn/a.png")})
	require.NoError(t, err)
	assert.Equal(t, "alice", updated.Username)
	require.NotNil(t, updated.AvatarURL)
	assert.Equal(t, "https://cdn/a.png", *updated.AvatarURL)

	// Username only: avatar is left as is.
	updated, err = users.Update(ctx, u.ID, models.UserPatch{Username: models.Some("alice2")})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)
	require.NotNil(t, updated.AvatarURL)

	// Empty string clears.
	updated, err = users.Update(ctx, u.ID, models.UserPatch{AvatarURL: models.Some("")})
	require.NoError(t, err)
	assert.Nil(t, updated.AvatarURL)
	assert.Equal(t, "alice2", updated.Username)

	_, err = users.Update(ctx, u.ID, models.UserPatch{Username: models.Some("bob")})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	_, err = users.Update(ctx, "missing", models.UserPatch{Username: models.Some("carol")})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestSQLiteServerRepo_Memberships(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	servers := NewSQLiteServerRepo(db.Conn)
	ctx := context.Background()

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")
	s := seedServer(t, servers, alice)

	require.NoError(t, servers.AddMember(ctx, &models.Membership{UserID: bob.ID, ServerID: s.ID, Role: models.RoleMember}))

	err := servers.AddMember(ctx, &models.Membership{UserID: bob.ID, ServerID: s.ID, Role: models.RoleMember})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	err = servers.AddMember(ctx, &models.Membership{UserID: bob.ID, ServerID: "missing", Role: models.RoleMember})
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	m, err := servers.GetMembership(ctx, bob.ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, m.Role)

	list, err := servers.ListForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.RoleOwner, list[0].Role)
	assert.Equal(t, "Test", list[0].Name)

	ids, err := servers.MemberIDs(ctx, s.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{alice.ID, bob.ID}, ids)

	carol := seedUser(t, users, "carol")
	_, err = servers.GetMembership(ctx, carol.ID, s.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	list, err = servers.ListForUser(ctx, carol.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSQLiteChannelRepo_NameUniqueIgnoringCase(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	servers := NewSQLiteServerRepo(db.Conn)
	channels := NewSQLiteChannelRepo(db.Conn)
	ctx := context.Background()

	s := seedServer(t, servers, seedUser(t, users, "alice"))

	require.NoError(t, channels.Create(ctx, &models.Channel{ServerID: s.ID, Name: "general", Type: models.ChannelTypeText}))
	require.NoError(t, channels.Create(ctx, &models.Channel{ServerID: s.ID, Name: "voice-room", Type: models.ChannelTypeVoice}))

	err := channels.Create(ctx, &models.Channel{ServerID: s.ID, Name: "GENERAL", Type: models.ChannelTypeText})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	list, err := channels.ListByServer(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "general", list[0].Name)
	assert.Equal(t, models.ChannelTypeVoice, list[1].Type)

	got, err := channels.GetByID(ctx, list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ServerID)

	_, err = channels.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestSQLiteMessageRepo_OrderMatchesAppendOrder(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	servers := NewSQLiteServerRepo(db.Conn)
	channels := NewSQLiteChannelRepo(db.Conn)
	messages := NewSQLiteMessageRepo(db.Conn)
	ctx := context.Background()

	alice := seedUser(t, users, "alice")
	s := seedServer(t, servers, alice)
	ch := &models.Channel{ServerID: s.ID, Name: "general", Type: models.ChannelTypeText}
	require.NoError(t, channels.Create(ctx, ch))

	// Identical timestamps fall back to the id, which is time ordered.
	frozen := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	orig := utcNow
	utcNow = func() time.Time { return frozen }
	t.Cleanup(func() { utcNow = orig })

	var want []string
	for i := 0; i < 20; i++ {
		m := &models.Message{ChannelID: ch.ID, UserID: alice.ID, Content: "msg"}
		require.NoError(t, messages.Create(ctx, m))
		assert.Equal(t, "alice", m.Author.Username)
		want = append(want, m.ID)
	}

	list, err := messages.ListByChannel(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, list, len(want))
	for i, m := range list {
		assert.Equal(t, want[i], m.ID)
		assert.Equal(t, "alice", m.Author.Username)
		assert.True(t, frozen.Equal(m.CreatedAt))
		assert.Equal(t, time.UTC, m.CreatedAt.Location())
	}
}

func TestSQLiteMessageRepo_UnknownChannel(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	messages := NewSQLiteMessageRepo(db.Conn)
	ctx := context.Background()

	alice := seedUser(t, users, "alice")

	_, err := messages.ListByChannel(ctx, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	err = messages.Create(ctx, &models.Message{ChannelID: "missing", UserID: alice.ID, Content: "hi"})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

// cancelAfterExec cancels the caller's context as soon as a write returns,
// the way a client hanging up mid-request would.
type cancelAfterExec struct {
	database.TxQuerier
	cancel context.CancelFunc
}

func (c cancelAfterExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := c.TxQuerier.ExecContext(ctx, query, args...)
	c.cancel()
	return res, err
}

func TestSQLiteMessageRepo_CreateCancelledAfterInsert(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	servers := NewSQLiteServerRepo(db.Conn)
	channels := NewSQLiteChannelRepo(db.Conn)
	bg := context.Background()

	alice := seedUser(t, users, "alice")
	s := seedServer(t, servers, alice)
	ch := &models.Channel{ServerID: s.ID, Name: "general", Type: models.ChannelTypeText}
	require.NoError(t, channels.Create(bg, ch))

	ctx, cancel := context.WithCancel(bg)
	defer cancel()
	messages := NewSQLiteMessageRepo(cancelAfterExec{TxQuerier: db.Conn, cancel: cancel})

	m := &models.Message{ChannelID: ch.ID, UserID: alice.ID, Content: "hi"}
	require.NoError(t, messages.Create(ctx, m), "a stored row is never reported as a failure")
	assert.Equal(t, "alice", m.Author.Username)
	assert.Error(t, ctx.Err())

	list, err := NewSQLiteMessageRepo(db.Conn).ListByChannel(bg, ch.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, m.ID, list[0].ID)
}

func TestSQLiteMessageRepo_UnknownAuthor(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	servers := NewSQLiteServerRepo(db.Conn)
	channels := NewSQLiteChannelRepo(db.Conn)
	messages := NewSQLiteMessageRepo(db.Conn)
	ctx := context.Background()

	alice := seedUser(t, users, "alice")
	s := seedServer(t, servers, alice)
	ch := &models.Channel{ServerID: s.ID, Name: "general", Type: models.ChannelTypeText}
	require.NoError(t, channels.Create(ctx, ch))

	err := messages.Create(ctx, &models.Message{ChannelID: ch.ID, UserID: "ghost", Content: "hi"})
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	list, err := messages.ListByChannel(ctx, ch.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
