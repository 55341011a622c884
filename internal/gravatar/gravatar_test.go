package gravatar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testHash = "973dfe463ec85785f5f95af5ba3906eedb2d931c24e69824a89ea65dba4e813b"

func TestURL(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		opts     Options
		expected string
	}{
		{
			name:     "empty email",
			email:    "   ",
			expected: "",
		},
		{
			name:     "no options",
			email:    "test@example.com",
			expected: baseURL + testHash,
		},
		{
			name:     "default image",
			email:    "test@example.com",
			opts:     Options{DefaultImage: "mp"},
			expected: baseURL + testHash + "?d=mp",
		},
		{
			name:  "all options",
			email: "TEST@EXAMPLE.COM", // Test case normalization
			opts: Options{
				DefaultImage: "identicon",
				Rating:       "pg",
				Size:         120,
			},
			expected: baseURL + testHash + "?d=identicon&r=pg&s=120",
		},
		{
			name:     "email with whitespace",
			email:    "  test@example.com  ",
			expected: baseURL + testHash,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, URL(tt.email, tt.opts))
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "zero value", opts: Options{}},
		{name: "all valid", opts: Options{DefaultImage: "retro", Rating: "g", Size: 2048}},
		{name: "unknown default image", opts: Options{DefaultImage: "MP"}, wantErr: true},
		{name: "unknown rating", opts: Options{Rating: "nc17"}, wantErr: true},
		{name: "negative size", opts: Options{Size: -1}, wantErr: true},
		{name: "size too large", opts: Options{Size: 2049}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
