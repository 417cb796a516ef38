package routes

import (
	"errors"
	"io"
	"net/http"

	"cv-screening-platform/internal/matching"
	"cv-screening-platform/models"
	"cv-screening-platform/services"
	"cv-screening-platform/utils"

	"github.com/gin-gonic/gin"
)

// HandleLoadCatalog accepts a raw JSON catalog payload (flat or categorized)
// and upserts it.
func HandleLoadCatalog(catalogSvc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 4<<20))
		if err != nil {
			utils.RespondWithBadRequest(c, "Failed to read request body", nil)
			return
		}

		result, err := catalogSvc.LoadCatalog(c.Request.Context(), payload)
		if err != nil {
			if errors.Is(err, matching.ErrNotAList) {
				utils.RespondWithBadRequest(c, "Catalog payload must be a JSON array", nil)
				return
			}
			utils.RespondWithInternalError(c, "Failed to load catalog", nil)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleListCatalog returns all catalog entries.
func HandleListCatalog(catalogSvc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := catalogSvc.ListCatalog(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list catalog", nil)
			return
		}
		if entries == nil {
			entries = []models.CatalogEntry{}
		}
		c.JSON(http.StatusOK, gin.H{
			"count":  len(entries),
			"skills": entries,
		})
	}
}
