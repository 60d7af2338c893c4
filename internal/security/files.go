package security

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Default locations of the secrets inside a repository.
var (
	PlainSecretsFile     = filepath.Join(".cinderella", "secrets.toml")
	EncryptedSecretsFile = filepath.Join(".cinderella", "secrets")
)

// EncryptFile seals the contents of src and writes them to dst.
func EncryptFile(src, dst, password string) error {
	plaintext, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if _, err := ParseSecrets(plaintext); err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}

	blob, err := Seal(plaintext, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return os.WriteFile(dst, blob, 0600)
}

// DecryptFile opens the sealed file at path.
func DecryptFile(path, password string) ([]byte, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Open(blob, password)
}

// ParseSecrets reads plaintext secrets of the form
//
//	API_TOKEN = "value"
//
// Values that are not strings are rejected.
func ParseSecrets(plaintext []byte) (map[string]string, error) {
	var raw map[string]any
	if err := toml.Unmarshal(plaintext, &raw); err != nil {
		return nil, fmt.Errorf("parse secrets: %w", err)
	}

	secrets := make(map[string]string, len(raw))
	for name, value := range raw {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("parse secrets: %q is not a string", name)
		}
		secrets[name] = s
	}
	return secrets, nil
}

// LoadSecrets decrypts and parses the secrets file at path.
func LoadSecrets(path, password string) (map[string]string, error) {
	plaintext, err := DecryptFile(path, password)
	if err != nil {
		return nil, err
	}
	return ParseSecrets(plaintext)
}
