package routes

import (
	"net/http"
	"strings"

	"cv-screening-platform/internal/config"
	"cv-screening-platform/services"
	"cv-screening-platform/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleResumeUpload accepts a multipart resume upload and starts the
// ingestion pipeline. Responds 202 because processing continues after the
// response; poll the candidate resource for completion.
func HandleResumeUpload(cfg *config.Config, ingestSvc *services.IngestService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseMultipartForm(cfg.MaxFileSize); err != nil {
			utils.RespondWithTooLarge(c, "File size exceeds maximum limit")
			return
		}

		file, header, err := c.Request.FormFile("resume")
		if err != nil {
			utils.RespondWithBadRequest(c, "No resume file provided", nil)
			return
		}
		defer file.Close()

		isAsync := strings.EqualFold(c.Query("async"), "true")

		result, err := ingestSvc.ValidateAndProcessUpload(c.Request.Context(), &services.UploadRequest{
			File:    file,
			Header:  header,
			IsAsync: isAsync,
		})
		if err != nil {
			if strings.Contains(err.Error(), "validation failed") {
				utils.RespondWithBadRequest(c, err.Error(), nil)
				return
			}
			utils.RespondWithInternalError(c, "Failed to process upload", nil)
			return
		}

		if result.Duplicate {
			utils.RespondWithConflict(c, "Resume already uploaded", gin.H{
				"candidate_id": result.Candidate.ID.Hex(),
				"status":       result.Candidate.Status,
			})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"message":      "Resume accepted for processing",
			"candidate_id": result.Candidate.ID.Hex(),
			"task_id":      result.TaskID,
			"status":       result.Candidate.Status,
			"filename":     result.Candidate.OriginalName,
			"uploaded_at":  result.Candidate.UploadedAt,
		})
	}
}

// HandleGetCandidate returns one candidate with its processing status.
func HandleGetCandidate(ingestSvc *services.IngestService) gin.HandlerFunc {
	return func(c *gin.Context) {
		candidate, err := ingestSvc.GetCandidate(c.Request.Context(), c.Param("id"))
		if err != nil {
			if err == mongo.ErrNoDocuments {
				utils.RespondWithNotFound(c, "Candidate not found")
				return
			}
			if strings.Contains(err.Error(), "invalid candidate ID") {
				utils.RespondWithBadRequest(c, "Invalid candidate ID", nil)
				return
			}
			utils.RespondWithInternalError(c, "Failed to retrieve candidate", nil)
			return
		}

		c.JSON(http.StatusOK, candidate)
	}
}
