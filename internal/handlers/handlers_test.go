package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferContentType(t *testing.T) {
	cases := map[string]ContentKind{
		"/page.rwml":  KindMarkup,
		"/script.lua": KindDynamic,
		"/index.html": KindHTML,
		"/index.htm":  KindHTML,
		"/notes.txt":  KindText,
		"/noext":      KindText,
	}
	for p, want := range cases {
		assert.Equal(t, want, InferContentType(p), p)
	}
}

func TestIsComputerDomainURL(t *testing.T) {
	assert.True(t, isComputerDomainURL("alice.comp1.rednet/page.rwml"))
	assert.False(t, isComputerDomainURL("rdnt://home"))
	assert.False(t, isComputerDomainURL("/local/path"))
}

func TestSplitHostPath(t *testing.T) {
	host, p := splitHostPath("alice.comp1.rednet/a/b.rwml")
	assert.Equal(t, "alice.comp1.rednet", host)
	assert.Equal(t, "/a/b.rwml", p)

	host, p = splitHostPath("alice.comp1.rednet")
	assert.Equal(t, "alice.comp1.rednet", host)
	assert.Equal(t, "/", p)
}
