// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sara-fetch/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KeyUsername, "  someone@example.org  \n")
				writeFile(t, dir, KeyPassword, "hunter2\n")
				return dir
			},
			want: map[string]string{
				KeyUsername: "someone@example.org",
				KeyPassword: "hunter2",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KeyUsername, "user")
				writeFile(t, dir, KeyPassword, "   \n\t  ")
				return dir
			},
			want: map[string]string{KeyUsername: "user"},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden", "secret")
				writeFile(t, dir, KeyPassword, "pw")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{KeyPassword: "pw"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	var warn bytes.Buffer
	_, err := Load(path, &warn)
	assert.Error(t, err)
}

func TestCredentials(t *testing.T) {
	c := Credentials(map[string]string{KeyUsername: "user", KeyPassword: "pass", "other": "x"})
	assert.Equal(t, types.Credentials{Username: "user", Password: "pass"}, c)
	assert.True(t, Credentials(map[string]string{KeyUsername: "user"}).IsEmpty())
}

func TestMerge(t *testing.T) {
	fromFlags := types.Credentials{Username: "flag-user"}
	fromFiles := types.Credentials{Username: "file-user", Password: "file-pass"}

	got := Merge(fromFlags, fromFiles)
	assert.Equal(t, types.Credentials{Username: "flag-user", Password: "file-pass"}, got)
	assert.Equal(t, fromFiles, Merge(types.Credentials{}, fromFiles))
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SARA_FETCH_TEST_USERNAME=dotenv-user\nSARA_FETCH_TEST_KEEP=from-file\n"), 0o644))
	t.Setenv("SARA_FETCH_TEST_USERNAME", "")
	os.Unsetenv("SARA_FETCH_TEST_USERNAME")
	t.Setenv("SARA_FETCH_TEST_KEEP", "from-env")

	require.NoError(t, LoadEnvFile(path))
	t.Cleanup(func() { os.Unsetenv("SARA_FETCH_TEST_USERNAME") })

	assert.Equal(t, "dotenv-user", os.Getenv("SARA_FETCH_TEST_USERNAME"))
	assert.Equal(t, "from-env", os.Getenv("SARA_FETCH_TEST_KEEP"))
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "none.env")))
}

func TestPromptPassword_NotTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()

	var out bytes.Buffer
	_, err = PromptPassword(f, &out, "user")
	assert.ErrorIs(t, err, ErrNotTerminal)
	assert.Empty(t, out.String())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
