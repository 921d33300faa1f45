// internal/api/public.go
package api

import (
	"net/http"
	"strconv"

	"infinz-leadgen/internal/common/errors"
	"infinz-leadgen/internal/common/validation"
	calculateemi "infinz-leadgen/internal/handlers/calculator/calculate-emi"
	fetchposts "infinz-leadgen/internal/handlers/content/fetch-posts"
	searchdictionary "infinz-leadgen/internal/handlers/content/search-dictionary"
	"infinz-leadgen/internal/models"

	"github.com/gin-gonic/gin"
)

func (s *Server) calculateEMI(c *gin.Context) {
	var input calculateemi.Input
	if !s.bind(c, validation.SchemaEMI, &input) {
		return
	}
	out, err := s.deps.Calculator.Execute(c.Request.Context(), &input)
	s.respond(c, http.StatusOK, out, err)
}

func (s *Server) searchDictionary(c *gin.Context) {
	out, err := s.deps.Dictionary.Execute(c.Request.Context(), &searchdictionary.Input{
		Query:    c.Query("q"),
		Category: c.Query("category"),
	})
	s.respond(c, http.StatusOK, out, err)
}

func (s *Server) dictionaryCategories(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Dictionary.Categories())
}

func (s *Server) listContent(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.errors.Respond(c, errors.NewFieldValidationError("page", "Page must be a number"))
			return
		}
		page = n
	}

	out, err := s.deps.Content.Execute(c.Request.Context(), &fetchposts.Input{
		Kind: models.ContentKind(c.Param("kind")),
		Page: page,
	})
	s.respond(c, http.StatusOK, out, err)
}
