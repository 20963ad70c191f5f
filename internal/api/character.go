package api

import (
	"net/http"

	"ai-companion-demo/backend/internal/models"
	"ai-companion-demo/backend/internal/service"
	apperrors "ai-companion-demo/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// CharacterHandler maps the character CRUD endpoints onto the service.
type CharacterHandler struct {
	service *service.CharacterService
}

func NewCharacterHandler(service *service.CharacterService) *CharacterHandler {
	return &CharacterHandler{service: service}
}

// RegisterRoutes registers the character routes on the given group.
func (h *CharacterHandler) RegisterRoutes(group *gin.RouterGroup) {
	characters := group.Group("/characters")
	{
		characters.GET("", h.List)
		characters.POST("", h.Create)
		characters.PUT("/:id", h.Update)
		characters.DELETE("/:id", h.Delete)
	}
}

// List handles GET /api/characters
func (h *CharacterHandler) List(c *gin.Context) {
	characters, err := h.service.List()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, characters)
}

// Create handles POST /api/characters
func (h *CharacterHandler) Create(c *gin.Context) {
	var req models.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", "Invalid request format"))
		return
	}

	character, err := h.service.Create(req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, character)
}

// Update handles PUT /api/characters/:id
func (h *CharacterHandler) Update(c *gin.Context) {
	var req models.UpdateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", "Invalid request format"))
		return
	}

	character, err := h.service.Update(c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, character)
}

// Delete handles DELETE /api/characters/:id
func (h *CharacterHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
