package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spytro26/gantabya-sub000/internal/models"
	"github.com/spytro26/gantabya-sub000/internal/services"
)

// OfferHandler handles coupon HTTP requests
type OfferHandler struct {
	offerService *services.OfferService
}

// NewOfferHandler creates a new OfferHandler
func NewOfferHandler(offerService *services.OfferService) *OfferHandler {
	return &OfferHandler{offerService: offerService}
}

// Apply checks a coupon code against a booking total
// POST /api/v1/offers/apply
func (h *OfferHandler) Apply(c *gin.Context) {
	var req models.ApplyOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": err.Error(),
		})
		return
	}

	breakdown, err := h.offerService.Apply(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"discount": breakdown})
}
