package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tagdomain "github.com/smallbiznis/orderdesk/internal/tag/domain"
)

type createTagRequest struct {
	Name string `json:"name"`
}

func (s *Server) CreateTag(c *gin.Context) {
	var req createTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tagSvc.Create(c.Request.Context(), tagdomain.CreateTagRequest{
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListTags(c *gin.Context) {
	resp, err := s.tagSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
