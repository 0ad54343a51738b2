package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewStore(path)

	u, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, u, "no session before Save")

	require.NoError(t, store.Save(User{FirstName: "Ada", EmailAddress: "ada@example.com"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	u, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Ada", u.FirstName)
	assert.Equal(t, "ada@example.com", u.EmailAddress)

	existed, err := store.Clear()
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.Clear()
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestStore_SaveRequiresEmail(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	assert.Error(t, store.Save(User{FirstName: "Ada"}))
}

func TestStore_LoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewStore(path).Load()
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"firstName":"Ada"}`), 0600))
	_, err = NewStore(path).Load()
	assert.Error(t, err)
}

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "Ada", User{FirstName: "Ada", EmailAddress: "ada@example.com"}.DisplayName())
	assert.Equal(t, "ada@example.com", User{FirstName: "  ", EmailAddress: "ada@example.com"}.DisplayName())
}
