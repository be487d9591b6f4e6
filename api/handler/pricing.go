package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/variantsync/classify"
	"github.com/use-agent/variantsync/models"
	"github.com/use-agent/variantsync/pricing"
)

// Classify returns a handler for POST /api/v1/classify.
func Classify() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ClassifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid classify request: "+err.Error())
			return
		}
		c.JSON(http.StatusOK, models.ClassifyResponse{
			Label:           req.Label,
			ClassifiedLabel: classify.Classify(req.Label),
			Keywords:        classify.Keywords(req.Label),
		})
	}
}

// Normalize returns a handler for POST /api/v1/normalize.
func Normalize() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.NormalizeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid normalize request: "+err.Error())
			return
		}
		c.JSON(http.StatusOK, pricing.Normalize(req.Variant))
	}
}

// Suggest returns a handler for POST /api/v1/suggest.
func Suggest(inferer *pricing.Inferer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SuggestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid suggest request: "+err.Error())
			return
		}
		s := inferer.Suggest(req.Product, req.Variant)
		if !s.Found {
			respondError(c, models.NewRunError(models.ErrCodeNotFound, "variant not in product", nil))
			return
		}
		c.JSON(http.StatusOK, s)
	}
}
