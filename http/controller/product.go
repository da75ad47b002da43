package controller

import (
	"errors"
	"strconv"

	"github.com/dedilute/catalog-backend/http/controller/dto"
	"github.com/dedilute/catalog-backend/service"
	"github.com/dedilute/catalog-backend/utils"
	"github.com/gin-gonic/gin"
)

func (ctrl *Controller) ListPublicProducts(c *gin.Context) {
	var page dto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		utils.JSON400(c, "limit must be 1..50 and offset must be >= 0")
		return
	}

	products, err := ctrl.Products.ListPublic(c.Request.Context(), page.Limit, page.Offset)
	if err != nil {
		ctrl.respondProductError(c, err)
		return
	}
	utils.JSON200(c, products)
}

func (ctrl *Controller) GetPublicProduct(c *gin.Context) {
	product, err := ctrl.Products.GetPublicBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		ctrl.respondProductError(c, err)
		return
	}
	utils.JSON200(c, product)
}

func (ctrl *Controller) ListProducts(c *gin.Context) {
	var page dto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		utils.JSON400(c, "limit must be 1..50 and offset must be >= 0")
		return
	}

	products, err := ctrl.Products.List(c.Request.Context(), page.Limit, page.Offset)
	if err != nil {
		ctrl.respondProductError(c, err)
		return
	}
	utils.JSON200(c, products)
}

func (ctrl *Controller) GetProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	product, err := ctrl.Products.Get(c.Request.Context(), id)
	if err != nil {
		ctrl.respondProductError(c, err)
		return
	}
	utils.JSON200(c, product)
}

func (ctrl *Controller) CreateProduct(c *gin.Context) {
	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.JSON400(c, "Invalid product payload")
		return
	}

	product, err := ctrl.Products.Create(c.Request.Context(), in)
	if err != nil {
		ctrl.respondProductError(c, err)
		return
	}
	ctrl.Infra.Logger.InfoWithContextf(c.Request.Context(), "[Product] Created product %d (%s)", product.ID, product.Slug)
	utils.JSON201(c, product)
}

func (ctrl *Controller) UpdateProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var patch service.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.JSON400(c, "Invalid product payload")
		return
	}

	product, err := ctrl.Products.Update(c.Request.Context(), id, patch)
	if err != nil {
		ctrl.respondProductError(c, err)
		return
	}
	utils.JSON200(c, product)
}

func (ctrl *Controller) DeleteProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	if err := ctrl.Products.Delete(c.Request.Context(), id); err != nil {
		ctrl.respondProductError(c, err)
		return
	}
	utils.JSON200(c, dto.MessageIDResponse{Message: "Product deleted", ID: id})
}

func (ctrl *Controller) respondProductError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.JSON400(c, verr.Error())
	case errors.Is(err, service.ErrNoFieldsToPatch):
		utils.JSON400(c, "At least one field is required")
	case errors.Is(err, service.ErrSlugTaken):
		utils.JSON409(c, "Slug already exists")
	case errors.Is(err, service.ErrProductNotFound):
		utils.JSON404(c, "Product not found")
	default:
		ctrl.Infra.Logger.ErrorWithContextf(c.Request.Context(), err, "[Product] Request failed")
		utils.JSON500(c, "Internal server error")
	}
}

func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.JSON400(c, "Invalid product id")
		return 0, false
	}
	return id, true
}
