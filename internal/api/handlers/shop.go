package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/hybridation-api/internal/imaging"
	"github.com/Conceptual-Machines/hybridation-api/internal/logger"
	"github.com/Conceptual-Machines/hybridation-api/internal/shopping"
)

type Shopper interface {
	Ready() error
	Search(ctx context.Context, png []byte, fields logger.Fields) ([]shopping.Product, error)
}

type ShopResultRecorder interface {
	RecordShopResults(count int)
}

type ShopHandler struct {
	shopper  Shopper
	recorder ShopResultRecorder
}

// NewShopHandler accepts a nil recorder.
func NewShopHandler(shopper Shopper, recorder ShopResultRecorder) *ShopHandler {
	return &ShopHandler{shopper: shopper, recorder: recorder}
}

type ShopResponse struct {
	Success  bool               `json:"success"`
	Products []shopping.Product `json:"products"`
	Total    int                `json:"total"`
}

// Shop finds store listings for a cropped product photo sent as base64.
func (h *ShopHandler) Shop(c *gin.Context) {
	const op = "handlers.shop"
	fields := logger.WithContext(c)

	if err := h.shopper.Ready(); err != nil {
		respondError(c, err, fields)
		return
	}

	blob, ok := c.GetPostForm(fieldImageBlob)
	if !ok {
		respondError(c, badInput(op, "image_blob is required"), fields)
		return
	}

	raw, err := imaging.DecodeDataURL(blob)
	if err != nil {
		respondError(c, err, fields)
		return
	}
	png, err := imaging.NormalizePNG(raw)
	if err != nil {
		respondError(c, err, fields)
		return
	}

	products, err := h.shopper.Search(c.Request.Context(), png, fields)
	if err != nil {
		respondError(c, err, fields)
		return
	}
	if h.recorder != nil {
		h.recorder.RecordShopResults(len(products))
	}

	c.JSON(http.StatusOK, ShopResponse{
		Success:  true,
		Products: products,
		Total:    len(products),
	})
}
