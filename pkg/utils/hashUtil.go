package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SignHMAC returns the GitHub style signature of body: "sha256=" followed by
// the hex HMAC-SHA256.
func SignHMAC(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC checks a signature produced by SignHMAC. The "sha256=" prefix
// is optional.
func VerifyHMAC(secret, body []byte, signature string) error {
	if len(secret) == 0 {
		return errors.New("hmac: secret is empty")
	}
	if signature == "" {
		return errors.New("hmac: signature is empty")
	}

	signatureBytes, err := hex.DecodeString(strings.TrimPrefix(signature, "sha256="))
	if err != nil {
		return fmt.Errorf("hmac: invalid hex signature: %w", err)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	if subtle.ConstantTimeCompare(mac.Sum(nil), signatureBytes) != 1 {
		return errors.New("hmac: signature mismatch")
	}
	return nil
}
