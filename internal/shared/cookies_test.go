package shared

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieJarSetAndGet(t *testing.T) {
	j := NewCookieJar(filepath.Join(t.TempDir(), "cookies.json"))
	j.SetCookie("alice.comp1.rednet", "session", "abc123", nil, "/", false)

	c, ok := j.GetCookie("alice.comp1.rednet", "session", time.Now())
	require.True(t, ok)
	assert.Equal(t, "abc123", c.Value)
}

func TestCookieJarExpiredCookieIsPurgedLazily(t *testing.T) {
	j := NewCookieJar(filepath.Join(t.TempDir(), "cookies.json"))
	past := time.Now().Add(-time.Hour)
	j.SetCookie("alice.comp1.rednet", "stale", "v", &past, "/", false)

	_, ok := j.GetCookie("alice.comp1.rednet", "stale", time.Now())
	assert.False(t, ok)

	all := j.GetAllCookies("alice.comp1.rednet", time.Now())
	assert.Empty(t, all)
}

func TestCookieJarGetAllCookiesFiltersDomain(t *testing.T) {
	j := NewCookieJar(filepath.Join(t.TempDir(), "cookies.json"))
	now := time.Now()
	j.SetCookie("a.comp1.rednet", "x", "1", nil, "/", false)
	j.SetCookie("b.comp1.rednet", "y", "2", nil, "/", false)

	all := j.GetAllCookies("a.comp1.rednet", now)
	require.Len(t, all, 1)
	assert.Equal(t, "x", all[0].Name)
}

func TestCookieJarClearCookies(t *testing.T) {
	j := NewCookieJar(filepath.Join(t.TempDir(), "cookies.json"))
	j.SetCookie("a.comp1.rednet", "x", "1", nil, "/", false)
	j.ClearCookies("a.comp1.rednet")

	_, ok := j.GetCookie("a.comp1.rednet", "x", time.Now())
	assert.False(t, ok)
}

func TestCookieJarSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	j := NewCookieJar(path)
	future := time.Now().Add(time.Hour).Truncate(time.Second)
	j.SetCookie("a.comp1.rednet", "x", "1", &future, "/", true)

	require.NoError(t, j.Save())

	reloaded := NewCookieJar(path)
	require.NoError(t, reloaded.Load())

	c, ok := reloaded.GetCookie("a.comp1.rednet", "x", time.Now())
	require.True(t, ok)
	assert.Equal(t, "1", c.Value)
	assert.True(t, c.Secure)
}

func TestCookieJarLoadMissingFileIsNotAnError(t *testing.T) {
	j := NewCookieJar(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.NoError(t, j.Load())
}
