package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentflare-ai/xsdcheck"
)

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := AppFs
	AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { AppFs = prev })
	return AppFs
}

func TestLoadDefaults(t *testing.T) {
	useMemFs(t)

	cfg, err := Load(New(), "", "/nowhere")
	require.NoError(t, err)

	assert.Equal(t, "xsd", cfg.XSDDir)
	assert.Equal(t, "xml", cfg.XMLDir)
	assert.Equal(t, xsdcheck.ScanLines, cfg.Scan)
	assert.Equal(t, xsdcheck.KeyByPath, cfg.Key)
	assert.False(t, cfg.Strict)
	assert.Equal(t, 2, cfg.ContextLines)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Empty(t, cfg.File)
}

func TestLoadConfigFileFromSearchPath(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/proj/.xsdcheck.yaml", []byte(`
xsd: schemas
xml: documents
scan: dom
key: name
strict: true
context-lines: 4
debounce: 1s
`), 0o644))

	cfg, err := Load(New(), "", "/proj")
	require.NoError(t, err)

	assert.Equal(t, "schemas", cfg.XSDDir)
	assert.Equal(t, "documents", cfg.XMLDir)
	assert.Equal(t, xsdcheck.ScanDOM, cfg.Scan)
	assert.Equal(t, xsdcheck.KeyByName, cfg.Key)
	assert.True(t, cfg.Strict)
	assert.Equal(t, 4, cfg.ContextLines)
	assert.Equal(t, time.Second, cfg.Debounce)
	assert.Equal(t, "/proj/.xsdcheck.yaml", cfg.File)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/etc/xsdcheck.yaml", []byte("xml: in\n"), 0o644))

	cfg, err := Load(New(), "/etc/xsdcheck.yaml")
	require.NoError(t, err)
	assert.Equal(t, "in", cfg.XMLDir)

	_, err = Load(New(), "/etc/missing.yaml")
	assert.Error(t, err)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/proj/.xsdcheck.yaml", []byte("scan: lines\nno-color: false\n"), 0o644))
	t.Setenv("XSDCHECK_SCAN", "dom")
	t.Setenv("XSDCHECK_NO_COLOR", "true")

	cfg, err := Load(New(), "", "/proj")
	require.NoError(t, err)
	assert.Equal(t, xsdcheck.ScanDOM, cfg.Scan)
	assert.True(t, cfg.NoColor)
}

func TestLoadDotEnvFiles(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, ".env", []byte("XSDCHECK_KEY=name\nXSDCHECK_XSD=from-env\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, ".env.local", []byte("XSDCHECK_XML=from-local\n"), 0o644))

	// Registered for cleanup, then cleared so .env can supply it.
	t.Setenv("XSDCHECK_KEY", "")
	require.NoError(t, os.Unsetenv("XSDCHECK_KEY"))
	// Already set: .env must not override, .env.local must.
	t.Setenv("XSDCHECK_XSD", "from-shell")
	t.Setenv("XSDCHECK_XML", "from-shell")

	cfg, err := Load(New(), "", "/nowhere")
	require.NoError(t, err)
	assert.Equal(t, xsdcheck.KeyByName, cfg.Key)
	assert.Equal(t, "from-shell", cfg.XSDDir)
	assert.Equal(t, "from-local", cfg.XMLDir)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	useMemFs(t)

	for key, value := range map[string]string{
		"XSDCHECK_SCAN":          "regex",
		"XSDCHECK_KEY":           "inode",
		"XSDCHECK_CONTEXT_LINES": "-1",
		"XSDCHECK_DEBOUNCE":      "0s",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load(New(), "", "/nowhere")
			assert.Error(t, err)
		})
	}
}
