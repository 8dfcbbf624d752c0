package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"gidimart-be/internal/logger"
	"gidimart-be/internal/product"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProductHandler struct {
	repo product.Repository
}

func NewProductHandler(repo product.Repository) *ProductHandler {
	return &ProductHandler{repo: repo}
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 32)
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 32)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}

	products, err := h.repo.ListProducts(ctx, int32(limit), int32((page-1)*limit))
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		return
	}

	if products == nil {
		products = []*product.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	p, err := h.repo.GetProduct(ctx, uint(id))
	if errors.Is(err, product.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": p})
}
