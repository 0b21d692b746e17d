package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_Defaults(t *testing.T) {
	src := New("authors-service", map[string]any{"db.timeout": 3 * time.Second})

	assert.Equal(t, "authors-service", src.Service())
	assert.Equal(t, ":8080", src.HTTP().Addr)
	assert.Equal(t, 3*time.Second, src.Duration("db.timeout"))
	assert.Equal(t, "email-exchange", src.AMQP().Exchange)
	assert.Equal(t, 5*time.Second, src.AMQP().PublishTimeout)
	assert.False(t, src.HTTP().TrustProxy)
	assert.Equal(t, "config/authors-service/data", src.Consul().ConfigKey)
}

func TestSource_EnvOverridesDefault(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("HTTP_CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("HTTP_TRUST_PROXY", "true")

	src := New("authors-service", nil)

	assert.True(t, src.HTTP().TrustProxy)
	assert.Equal(t, ":9090", src.HTTP().Addr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, src.HTTP().CORSOrigins)
}

func TestSource_MergeYAML(t *testing.T) {
	src := New("email-service", map[string]any{"mail.host": "localhost"})

	err := src.MergeYAML([]byte("mail:\n  host: smtp.internal\namqp:\n  prefetch: 3\nhttp:\n  cors_origins:\n    - http://ui.test\n"))
	require.NoError(t, err)

	assert.Equal(t, "smtp.internal", src.String("mail.host"))
	assert.Equal(t, 3, src.AMQP().Prefetch)
	assert.Equal(t, []string{"http://ui.test"}, src.HTTP().CORSOrigins)
}

func TestSource_EnvWinsOverMergedYAML(t *testing.T) {
	t.Setenv("MAIL_HOST", "from-env")
	src := New("email-service", map[string]any{"mail.host": "localhost"})

	require.NoError(t, src.MergeYAML([]byte("mail:\n  host: from-consul\n")))

	assert.Equal(t, "from-env", src.String("mail.host"))
}

func TestSource_MergeYAML_Empty(t *testing.T) {
	src := New("email-service", nil)
	assert.NoError(t, src.MergeYAML([]byte("  \n")))
}

func TestSource_ConsulDerivesPortAndID(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":8081")

	c := New("email-service", nil).Consul()

	assert.Equal(t, 8081, c.ServicePort)
	assert.Equal(t, "email-service-8081", c.ServiceID)
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, ".env")
	require.NoError(t, os.WriteFile(p, []byte("DB_DSN=from_file\nPS_ONLY_IN_FILE=yes\n"), 0o644))

	t.Setenv("DB_DSN", "from_env")
	t.Cleanup(func() { _ = os.Unsetenv("PS_ONLY_IN_FILE") })

	LoadEnvFiles(p)

	assert.Equal(t, "from_env", os.Getenv("DB_DSN"))
	assert.Equal(t, "yes", os.Getenv("PS_ONLY_IN_FILE"))
}
