package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	names, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	b, err := fs.ReadFile(Migrations, names[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "-- +goose Up"))
	assert.True(t, strings.Contains(string(b), "auth_users_email_key"))
}
