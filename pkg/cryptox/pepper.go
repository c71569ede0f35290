package cryptox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadOrCreatePepper loads the password pepper from file, generating and
// persisting a new one when the file does not exist. Losing the file
// invalidates every stored password hash.
func LoadOrCreatePepper(file string) (string, error) {
	file = filepath.Clean(file)

	data, err := os.ReadFile(file)
	if err == nil {
		pepper := strings.TrimSpace(string(data))
		if pepper == "" {
			return "", fmt.Errorf("cryptox: pepper file %s is empty", file)
		}
		return pepper, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("cryptox: read pepper: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
		return "", err
	}

	pepper, err := RandomString(SecretSize)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(file, []byte(pepper), 0600); err != nil {
		return "", fmt.Errorf("cryptox: write pepper: %w", err)
	}
	return pepper, nil
}
