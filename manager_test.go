package vrule

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRules(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestNewManager_InitialLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRules(t, path, "types: [string]\nmaxLength: 3\n")

	m, err := NewManager(path)
	require.NoError(t, err)
	defer m.Close()

	require.NotNil(t, m.Get())
	assert.True(t, m.Validate("abc"))
	assert.Equal(t, KeyMaxLength, m.Evaluate("abcd").FailedCheck)
	assert.Error(t, m.Check("abcd"))
	assert.NoError(t, m.Check(nil))
}

func TestNewManager_InvalidDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRules(t, path, "maxlen: 3\n")

	_, err := NewManager(path)
	require.Error(t, err)

	var derr *DefinitionError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ErrorTypeUnknownKey, derr.Type)
}

func TestNewManager_MissingFile(t *testing.T) {
	_, err := NewManager(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestMustNewManager(t *testing.T) {
	assert.Panics(t, func() {
		MustNewManager(filepath.Join(t.TempDir(), "absent.yaml"))
	})
}

func TestManager_ReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	writeRules(t, path, "maxLength: 3\n")

	m, err := NewManager(path)
	require.NoError(t, err)
	defer m.Close()

	reloaded := make(chan *RuleSet, 4)
	m.OnReload(func(rs *RuleSet) { reloaded <- rs })

	require.NoError(t, m.EnableWatch())

	assert.False(t, m.Validate("abcd"))

	writeRules(t, path, "maxLength: 5\n")

	ok := waitFor(t, 3*time.Second, func() bool {
		return m.Validate("abcd")
	})
	assert.True(t, ok, "manager should pick up the relaxed bound")

	select {
	case rs := <-reloaded:
		n, set := rs.MaxLength()
		assert.True(t, set)
		assert.Equal(t, 5, n)
	case <-time.After(3 * time.Second):
		t.Fatal("reload callback not invoked")
	}
}

func TestManager_KeepsPreviousSetOnBadRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	writeRules(t, path, "maxLength: 3\n")

	m, err := NewManager(path)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.EnableWatch())
	before := m.Get()

	// Unknown key makes the rewrite invalid; the previous set must survive.
	writeRules(t, path, "maxlen: 99\n")

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, before, m.Get())
	assert.False(t, m.Validate("abcd"))
}

func TestManager_EnableWatchTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRules(t, path, "maxLength: 3\n")

	m, err := NewManager(path)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.EnableWatch())
	require.NoError(t, m.EnableWatch())
	require.NoError(t, m.DisableWatch())
}

func TestManager_NilSafety(t *testing.T) {
	var m *Manager
	assert.Nil(t, m.Get())
	assert.NoError(t, m.Close())
}
