package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awingconnect/license-server/internal/models"
	"github.com/awingconnect/license-server/internal/services"
)

func setTestEnv(t *testing.T, environment string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("ENVIRONMENT", environment)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", path)
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("SECRET_KEY", strings.Repeat("c", 40))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("PASSWORD_ARGON2_MEMORY_KIB", "1024")
	t.Setenv("PASSWORD_ARGON2_ITERATIONS", "1")
	t.Setenv("PASSWORD_ARGON2_PARALLELISM", "1")
	t.Setenv("BOOTSTRAP_ADMIN_PASSWORD", "")
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandTree(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{
		{"serve"},
		{"migrate"},
		{"admin", "create"},
		{"license", "reset-hwid"},
		{"sessions", "purge"},
	} {
		found, _, err := cmd.Find(path)
		require.NoError(t, err, strings.Join(path, " "))
		assert.Equal(t, path[len(path)-1], found.Name())
	}
}

func TestAdminCreate(t *testing.T) {
	setTestEnv(t, "development")

	out, err := execute(t, "admin", "create", "--username", "ops", "--password", "password-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Admin user 'ops' created")
	assert.NotContains(t, out, "Password:")

	out, err = execute(t, "admin", "create", "--username", "night-shift")
	require.NoError(t, err)
	assert.Contains(t, out, "Password: ")

	_, err = execute(t, "admin", "create", "--username", "ops", "--password", "password-2")
	assert.ErrorIs(t, err, services.ErrUsernameTaken)

	_, err = execute(t, "admin", "create")
	assert.Error(t, err, "username is required")
}

func TestLicenseResetAndSessionPurge(t *testing.T) {
	setTestEnv(t, "development")

	_, err := execute(t, "license", "reset-hwid", "AWC-FFFFFFFFFFFF-FFFFFFFF")
	assert.ErrorIs(t, err, services.ErrLicenseNotFound)

	rt, err := openRuntime()
	require.NoError(t, err)
	created, err := services.NewLicenseService(rt.db, rt.log).CreateLicense(context.Background(), &services.CreateLicenseRequest{})
	require.NoError(t, err)
	require.NoError(t, rt.db.Model(&models.License{}).Where("key = ?", created.LicenseKey).
		Update("hwid", "HW-OLD").Error)
	rt.Close()

	out, err := execute(t, "license", "reset-hwid", created.LicenseKey)
	require.NoError(t, err)
	assert.Contains(t, out, "cleared (was HW-OLD)")

	out, err = execute(t, "license", "reset-hwid", created.LicenseKey)
	require.NoError(t, err)
	assert.Contains(t, out, "cleared (was none)")

	out, err = execute(t, "sessions", "purge")
	require.NoError(t, err)
	assert.Contains(t, out, "Purged 0 expired session(s)")

	out, err = execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations applied")
}

func TestSeedBootstrapAdmin(t *testing.T) {
	cases := []struct {
		name        string
		environment string
		password    string
		wantAdmins  int64
	}{
		{"development default", "development", "", 1},
		{"production without password", "production", "", 0},
		{"production with password", "production", "a-long-bootstrap-password", 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setTestEnv(t, tc.environment)
			t.Setenv("BOOTSTRAP_ADMIN_PASSWORD", tc.password)

			rt, err := openRuntime()
			require.NoError(t, err)
			defer rt.Close()

			require.NoError(t, seedBootstrapAdmin(context.Background(), rt))
			require.NoError(t, seedBootstrapAdmin(context.Background(), rt))

			var count int64
			require.NoError(t, rt.db.Model(&models.AdminUser{}).Count(&count).Error)
			assert.Equal(t, tc.wantAdmins, count)
		})
	}
}
