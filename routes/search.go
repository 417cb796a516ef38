package routes

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cv-screening-platform/models"
	"cv-screening-platform/services"
	"cv-screening-platform/utils"

	"github.com/gin-gonic/gin"
)

// HandleRank returns the full catalog ranking.
func HandleRank(rankingSvc *services.RankingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				utils.RespondWithBadRequest(c, "limit must be a positive integer", nil)
				return
			}
			limit = parsed
		}

		ranking, err := rankingSvc.RankByCatalog(c.Request.Context(), limit)
		if err != nil {
			utils.RespondWithInternalError(c, "Ranking failed", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"count":      len(ranking),
			"candidates": ranking,
		})
	}
}

// HandleSkillSearch ranks candidates against a single skill, either from the
// catalog by name or from ad-hoc query text.
func HandleSkillSearch(rankingSvc *services.RankingService, catalogSvc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SkillQueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", nil)
			return
		}
		if req.SkillName == "" && req.Text == "" {
			utils.RespondWithBadRequest(c, "Either skill_name or text is required", nil)
			return
		}

		ranking, err := rankingSvc.RankBySkill(c.Request.Context(), &req, catalogSvc)
		if err != nil {
			if strings.Contains(err.Error(), "not in catalog") {
				utils.RespondWithNotFound(c, err.Error())
				return
			}
			utils.RespondWithInternalError(c, "Skill search failed", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"count":      len(ranking),
			"candidates": ranking,
		})
	}
}

// HandleRankExport streams the current catalog ranking as an Excel workbook.
func HandleRankExport(rankingSvc *services.RankingService, exportSvc *services.ExportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		ranking, err := rankingSvc.RankByCatalog(c.Request.Context(), limit)
		if err != nil {
			utils.RespondWithInternalError(c, "Ranking failed", nil)
			return
		}

		data, err := exportSvc.BuildRankingWorkbook(ranking)
		if err != nil {
			utils.RespondWithInternalError(c, "Export failed", nil)
			return
		}

		filename := fmt.Sprintf("ranking_%s.xlsx", time.Now().Format("20060102_150405"))
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Header("Content-Length", strconv.Itoa(len(data)))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	}
}
