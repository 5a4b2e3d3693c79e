package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadEnv_LoadsExistingFiles(t *testing.T) {
	tmp := t.TempDir()
	envFile := filepath.Join(tmp, ".env.local")
	require.NoError(t, os.WriteFile(envFile, []byte("VELORA_TEST_ENV_LOAD=ok\n"), 0o644))

	_ = os.Unsetenv("VELORA_TEST_ENV_LOAD")
	t.Cleanup(func() { _ = os.Unsetenv("VELORA_TEST_ENV_LOAD") })

	n, err := LoadEnv([]string{filepath.Join(tmp, ".env"), envFile})
	require.NoError(t, err)
	require.Equal(t, 1, n, "only the existing env file should be counted")
	require.Equal(t, "ok", os.Getenv("VELORA_TEST_ENV_LOAD"))
}

func TestConfiguration_Defaults(t *testing.T) {
	c := &Configuration{}
	require.NoError(t, c.load(nil))

	require.Equal(t, 90, c.Lifecycle.RehireCoolOffDays)
	require.Equal(t, 24*time.Hour, c.Lifecycle.SweepInterval)
	require.ElementsMatch(t, []string{"manager", "hr"}, c.Lifecycle.PromotionAuthorRoles)
	require.ElementsMatch(t, []string{"hr", "admin"}, c.Lifecycle.PromotionApproverRoles)
	require.NotContains(t, c.Lifecycle.PromotionApproverRoles, "manager",
		"approver set is configured independently of the authoring set")
	require.NotNil(t, c.Logger())
}

func TestLifecycleOptions_Validate(t *testing.T) {
	opts := &LifecycleOptions{
		RehireCoolOffDays:      -1,
		SweepInterval:          time.Hour,
		SweepBatchSize:         100,
		PromotionAuthorRoles:   []string{"manager"},
		PromotionApproverRoles: []string{"hr"},
		RehireAuthorRoles:      []string{"hr"},
		RehireDeciderRoles:     []string{"hr"},
	}
	require.Error(t, opts.Validate())

	opts.RehireCoolOffDays = 90
	require.NoError(t, opts.Validate())

	opts.PromotionApproverRoles = nil
	require.Error(t, opts.Validate())
}
