package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/httptim/rednet-core/internal/api/handlers"
	"github.com/httptim/rednet-core/internal/search/engine"
	"github.com/httptim/rednet-core/internal/search/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSearchEngine() *engine.Engine {
	ix := index.New()
	ix.AddDocument("rn://shop.1001.rn/cats", "Cats For Sale", "we sell cats and cat toys", "page")
	ix.AddDocument("rn://shop.1001.rn/dogs", "Dogs For Sale", "we sell dogs and dog toys", "page")
	return engine.New(ix, engine.Config{}, engine.NewResultCache(100, 1<<20))
}

func TestSearchReturnsScoredResults(t *testing.T) {
	h := handlers.New(nil, nil)
	h.SetSearch(newTestSearchEngine())

	r := gin.New()
	r.GET("/search", h.Search)

	req := httptest.NewRequest(http.MethodGet, "/search?q=cats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "shop.1001.rn/cats")
}

func TestSearchInvalidQueryReturns400(t *testing.T) {
	h := handlers.New(nil, nil)
	h.SetSearch(newTestSearchEngine())

	r := gin.New()
	r.GET("/search", h.Search)

	req := httptest.NewRequest(http.MethodGet, `/search?q=%22unterminated`, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchWithNilComponentReturnsEmptyResponse(t *testing.T) {
	h := handlers.New(nil, nil)

	r := gin.New()
	r.GET("/search", h.Search)

	req := httptest.NewRequest(http.MethodGet, "/search?q=cats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"results":[]`)
}

func TestSearchSuggestDelegatesToIndex(t *testing.T) {
	h := handlers.New(nil, nil)
	h.SetSearch(newTestSearchEngine())

	r := gin.New()
	r.GET("/search/suggest", h.SearchSuggest)

	req := httptest.NewRequest(http.MethodGet, "/search/suggest?q=ca", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cats")
}
