package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmind/internal/types"
)

func TestCreateUser_AndLookups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, types.User{
		Username:       "alice",
		Email:          "alice@example.com",
		HashedPassword: "$2a$10$fakehash",
		IsActive:       true,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byName.Email)
	assert.True(t, byName.IsActive)

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := s.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, types.User{Username: "bob", HashedPassword: "x", IsActive: true})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, types.User{Username: "bob", HashedPassword: "y", IsActive: true})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUser(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetUserByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
