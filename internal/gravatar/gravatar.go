package gravatar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const baseURL = "https://www.gravatar.com/avatar/"

var (
	defaultImages = []string{"404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"}
	ratings       = []string{"g", "pg", "r", "x"}
)

// Options controls the avatar image Gravatar serves.
type Options struct {
	// DefaultImage is served when the email has no Gravatar.
	DefaultImage string
	// Rating is the maximum allowed image rating.
	Rating string
	// Size is the edge length in pixels (1-2048). Zero leaves the Gravatar default.
	Size int
}

// Validate checks the options against the values Gravatar accepts.
func (o Options) Validate() error {
	if o.DefaultImage != "" && !lo.Contains(defaultImages, o.DefaultImage) {
		return fmt.Errorf("invalid gravatar default image %q", o.DefaultImage)
	}
	if o.Rating != "" && !lo.Contains(ratings, o.Rating) {
		return fmt.Errorf("invalid gravatar rating %q", o.Rating)
	}
	if o.Size != 0 && (o.Size < 1 || o.Size > 2048) {
		return fmt.Errorf("gravatar size must be between 1 and 2048, got %d", o.Size)
	}
	return nil
}

// URL returns the avatar URL for email, or "" for an empty email.
func URL(email string, o Options) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}

	hash := sha256.Sum256([]byte(email))
	u := baseURL + hex.EncodeToString(hash[:])

	params := url.Values{}
	if o.DefaultImage != "" {
		params.Add("d", o.DefaultImage)
	}
	if o.Rating != "" {
		params.Add("r", o.Rating)
	}
	if o.Size > 0 {
		params.Add("s", strconv.Itoa(o.Size))
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}
