package model

import (
	"encoding/json"
	"testing"

	"github.com/ariebrainware/heart-risk/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t, "migrate")

	require.NoError(t, Migrate(db))
	for _, m := range Models {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestCreateUser(t *testing.T) {
	db := setupTestDB(t, "create_user")

	user := User{Username: "alice", Password: "argon2id$hash", PasswordSalt: "salt"}
	require.NoError(t, CreateUser(db, &user))
	assert.NotZero(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	db := setupTestDB(t, "dup_user")

	require.NoError(t, CreateUser(db, &User{Username: "bob", Password: "h1", PasswordSalt: "s1"}))
	err := CreateUser(db, &User{Username: "bob", Password: "h2", PasswordSalt: "s2"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	var count int64
	db.Model(&User{}).Where("username = ?", "bob").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestFindUserByUsername(t *testing.T) {
	db := setupTestDB(t, "find_user")
	require.NoError(t, CreateUser(db, &User{Username: "carol", Password: "h", PasswordSalt: "s"}))

	found, err := FindUserByUsername(db, "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol", found.Username)
	assert.Equal(t, "h", found.Password)

	_, err = FindUserByUsername(db, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUsernameExists(t *testing.T) {
	db := setupTestDB(t, "exists")
	require.NoError(t, CreateUser(db, &User{Username: "dave", Password: "h", PasswordSalt: "s"}))

	exists, err := UsernameExists(db, "dave")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = UsernameExists(db, "erin")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUser_PasswordNotSerialized(t *testing.T) {
	user := User{Username: "frank", Password: "secret-hash", PasswordSalt: "secret-salt"}
	b, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
}

func TestNewUser_HashesPassword(t *testing.T) {
	user, err := NewUser("erin", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "erin", user.Username)
	assert.NotEqual(t, "hunter2", user.Password)
	assert.NotEmpty(t, user.PasswordSalt)

	ok, err := util.VerifyPassword("hunter2", user.Password, user.PasswordSalt)
	require.NoError(t, err)
	assert.True(t, ok)
}
