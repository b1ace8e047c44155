package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharmstock/inventory-service/internal/classifications"
	"github.com/pharmstock/inventory-service/internal/database"
)

// ListCategories returns all product categories
// @Summary List categories
// @Description Returns every product category ordered by name
// @Tags categories
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/categories [get]
func ListCategories(c *gin.Context) {
	store := database.NewCategoryStore(database.Pool())
	categories, err := store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to lookup categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// ListClassifications returns the recognized drug classifications
// @Summary List drug classifications
// @Description Returns the drug classification values imports are normalized to
// @Tags categories
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /internal/classifications [get]
func ListClassifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"classifications": classifications.Valid(),
		"default":         classifications.Default,
	})
}
