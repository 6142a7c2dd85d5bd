// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets finds SARA account credentials. Values come from a
// directory of plain-text files (filename is the key, trimmed contents the
// value), from a .env file, or from an interactive prompt.
//
// Supported key files: sara-username, sara-password.
package secrets

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/pdiddy/sara-fetch/pkg/types"
)

// Key file names.
const (
	KeyUsername = "sara-username"
	KeyPassword = "sara-password"
)

// ErrNotTerminal is returned by PromptPassword when input is not a terminal.
var ErrNotTerminal = errors.New("password prompt needs an interactive terminal")

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map.
// Unreadable files are reported to warn but do not abort.
func Load(dir string, warn io.Writer) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if warn != nil {
				fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			}
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Credentials picks the username and password out of a loaded secrets map.
func Credentials(secrets map[string]string) types.Credentials {
	return types.Credentials{
		Username: secrets[KeyUsername],
		Password: secrets[KeyPassword],
	}
}

// Merge fills the empty fields of primary from fallback.
func Merge(primary, fallback types.Credentials) types.Credentials {
	if primary.Username == "" {
		primary.Username = fallback.Username
	}
	if primary.Password == "" {
		primary.Password = fallback.Password
	}
	return primary
}

// LoadEnvFile loads variables from a dotenv file into the process
// environment without overriding variables already set. A missing file is
// not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// PromptPassword asks for the password of user on out and reads it from in
// without echo.
func PromptPassword(in *os.File, out io.Writer, user string) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNotTerminal
	}
	fmt.Fprintf(out, "SARA password for %s: ", user)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimSpace(string(pw)), nil
}
