package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/httptim/rednet-core/internal/api/models"
)

// Search godoc
// @Summary Search the index
// @Description Parses and scores q against the search index, honoring site:/type:/title: filters and boolean/phrase syntax
// @Tags search
// @Produce json
// @Param q query string true "Query text"
// @Param category query string false "Category filter"
// @Param sort query string false "Sort order"
// @Param limit query int false "Max results" default(20)
// @Param offset query int false "Result offset" default(0)
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /search [get]
func (h *Handler) Search(c *gin.Context) {
	h.mu.RLock()
	search := h.search
	h.mu.RUnlock()

	if search == nil {
		c.JSON(http.StatusOK, models.SearchResponse{Results: []models.SearchResult{}})
		return
	}

	q := c.Query("q")
	category := c.Query("category")
	sort := c.Query("sort")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	rs, err := search.Search(q, category, sort, limit, offset)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	results := make([]models.SearchResult, 0, len(rs.Results))
	for _, r := range rs.Results {
		results = append(results, models.SearchResult{DocID: r.DocID, URL: r.URL, Title: r.Title, Score: r.Score})
	}
	c.JSON(http.StatusOK, models.SearchResponse{Results: results, Total: rs.Total, Limit: limit, Offset: offset})
}

// SearchSuggest godoc
// @Summary Search suggestions
// @Description Returns indexed terms whose prefix matches partial, ranked by document frequency
// @Tags search
// @Produce json
// @Param q query string true "Partial term"
// @Param limit query int false "Max suggestions" default(10)
// @Success 200 {object} models.SearchSuggestResponse
// @Router /search/suggest [get]
func (h *Handler) SearchSuggest(c *gin.Context) {
	h.mu.RLock()
	search := h.search
	h.mu.RUnlock()

	if search == nil {
		c.JSON(http.StatusOK, models.SearchSuggestResponse{Suggestions: []string{}})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	suggestions := search.GetSuggestions(c.Query("q"), limit)
	c.JSON(http.StatusOK, models.SearchSuggestResponse{Suggestions: suggestions})
}
