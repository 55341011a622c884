package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var loaded State
	router := gin.New()
	router.Use(sessions.Sessions("test", cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	router.GET("/pending", func(c *gin.Context) {
		s := sessions.Default(c)
		StoreState(s, AwaitingTwoFactor{UserID: 7, Uniquifier: "u-7"})
		require.NoError(t, s.Save())
	})
	router.GET("/authenticated", func(c *gin.Context) {
		s := sessions.Default(c)
		StoreState(s, Authenticated{UserID: 7, Uniquifier: "u-7"})
		require.NoError(t, s.Save())
	})
	router.GET("/logout", func(c *gin.Context) {
		s := sessions.Default(c)
		StoreState(s, Anonymous{})
		require.NoError(t, s.Save())
	})
	router.GET("/load", func(c *gin.Context) {
		loaded = LoadState(sessions.Default(c))
	})

	var cookies []*http.Cookie
	do := func(path string) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if set := w.Result().Cookies(); len(set) > 0 {
			cookies = set
		}
	}

	do("/load")
	assert.Equal(t, Anonymous{}, loaded)

	do("/pending")
	do("/load")
	assert.Equal(t, AwaitingTwoFactor{UserID: 7, Uniquifier: "u-7"}, loaded)

	do("/authenticated")
	do("/load")
	assert.Equal(t, Authenticated{UserID: 7, Uniquifier: "u-7"}, loaded)

	do("/logout")
	do("/load")
	assert.Equal(t, Anonymous{}, loaded)
}

func TestBackupCodes(t *testing.T) {
	codes, err := GenerateBackupCodes(backupCodeCount)
	require.NoError(t, err)
	require.Len(t, codes, backupCodeCount)

	seen := map[string]bool{}
	for _, c := range codes {
		assert.Len(t, c, backupCodeLength+1)
		assert.Equal(t, byte('-'), c[backupCodeLength/2])
		assert.False(t, seen[c])
		seen[c] = true
	}

	assert.Equal(t, "abcdefghjk", NormalizeBackupCode(" ABCDE-fghjk\n"))
	assert.Equal(t, FingerprintBackupCode("abcde-fghjk"), FingerprintBackupCode("ABCDEFGHJK"))
	assert.NotEqual(t, FingerprintBackupCode("abcde-fghjk"), FingerprintBackupCode("abcde-fghjm"))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "S3cret"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret"))
}
