package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

const (
	backupCodeCount  = 10
	backupCodeLength = 10
	// excludes i, l, o, 0 and 1
	backupCodeAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"
)

// GenerateBackupCodes returns n random codes formatted as xxxxx-xxxxx.
func GenerateBackupCodes(n int) ([]string, error) {
	codes := make([]string, 0, n)
	buf := make([]byte, backupCodeLength)
	for range n {
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		var sb strings.Builder
		for i, b := range buf {
			if i == backupCodeLength/2 {
				sb.WriteByte('-')
			}
			sb.WriteByte(backupCodeAlphabet[int(b)%len(backupCodeAlphabet)])
		}
		codes = append(codes, sb.String())
	}
	return codes, nil
}

// NormalizeBackupCode lowercases code and drops separators and whitespace.
func NormalizeBackupCode(code string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, code))
}

// FingerprintBackupCode returns the stored form of a backup code.
func FingerprintBackupCode(code string) string {
	sum := sha256.Sum256([]byte(NormalizeBackupCode(code)))
	return hex.EncodeToString(sum[:])
}

func fingerprintAll(codes []string) []string {
	hashes := make([]string, len(codes))
	for i, c := range codes {
		hashes[i] = FingerprintBackupCode(c)
	}
	return hashes
}
