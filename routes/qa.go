package routes

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoice-qa-platform/internal/ai"
	"invoice-qa-platform/internal/config"
	"invoice-qa-platform/internal/logger"
	"invoice-qa-platform/models"
	"invoice-qa-platform/services"
	"invoice-qa-platform/utils"
)

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

// SetupQARoutes registers document ingestion and question answering.
func SetupQARoutes(router *gin.Engine, cfg *config.Config, sessions *services.SessionService, extractor *services.PDFExtractor) {
	router.POST("/sessions/:id/documents", func(c *gin.Context) {
		session, ok := sessions.GetSession(c.Param("id"))
		if !ok {
			utils.RespondWithNotFound(c, "Session not found")
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid multipart upload", gin.H{"error": err.Error()})
			return
		}
		files := form.File["files"]
		if len(files) == 0 {
			utils.RespondWithBadRequest(c, "No files uploaded: use multipart field 'files'", nil)
			return
		}

		// File count and raw size are checked before any PDF is opened,
		// so an oversized upload costs nothing downstream.
		if len(files) > cfg.MaxFilesPerUpload {
			utils.RespondWithGuardrail(c, services.GuardrailFileCount,
				fmt.Sprintf("Too many files: got %d, maximum %d per upload", len(files), cfg.MaxFilesPerUpload))
			return
		}
		for _, fh := range files {
			if fh.Size > cfg.MaxFileSizeBytes() {
				utils.RespondWithGuardrail(c, services.GuardrailFileSize,
					fmt.Sprintf("%s is too large (%.1fMB): maximum %dMB per file",
						fh.Filename, float64(fh.Size)/(1024*1024), cfg.MaxFileSizeMB))
				return
			}
		}

		documents := make([]models.DocumentInput, 0, len(files))
		for _, fh := range files {
			file, err := fh.Open()
			if err != nil {
				utils.RespondWithBadRequest(c, fmt.Sprintf("Failed to read %s", fh.Filename), gin.H{"error": err.Error()})
				return
			}
			content, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				utils.RespondWithBadRequest(c, fmt.Sprintf("Failed to read %s", fh.Filename), gin.H{"error": err.Error()})
				return
			}

			text := ""
			result, err := extractor.ExtractText(c.Request.Context(), fh.Filename, content)
			if err != nil {
				// Unreadable PDFs behave like empty extractions: the
				// ingestion guardrails skip them with a warning.
				logger.Warn("extraction failed", "document", fh.Filename, "error", err)
			} else {
				text = result.Text
			}
			documents = append(documents, models.DocumentInput{Name: fh.Filename, RawText: text})
		}

		ingestResult, err := sessions.Ingest(c.Request.Context(), session, documents)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, ingestResult)
	})

	router.POST("/sessions/:id/ask", func(c *gin.Context) {
		session, ok := sessions.GetSession(c.Param("id"))
		if !ok {
			utils.RespondWithNotFound(c, "Session not found")
			return
		}

		var req askRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		answer, err := sessions.Ask(c.Request.Context(), session, req.Question)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, answer)
	})
}

// respondServiceError maps pipeline errors onto the response taxonomy:
// guardrails are user-correctable 422s, provider failures are gateway
// errors, anything else is an internal bug logged loudly.
func respondServiceError(c *gin.Context, err error) {
	if gv, ok := services.AsGuardrail(err); ok {
		utils.RespondWithGuardrail(c, gv.Code, gv.Message)
		return
	}

	if ai.IsProviderTimeout(err) {
		utils.RespondWithError(c, http.StatusGatewayTimeout, "provider_timeout",
			"The AI provider did not respond in time. Please try again.", nil)
		return
	}
	if ai.IsEmbeddingError(err) || ai.IsSynthesisError(err) {
		utils.RespondWithProviderError(c, "The AI provider request failed. Committed session state is unchanged.",
			gin.H{"error": err.Error()})
		return
	}

	logger.Error("internal pipeline error", "path", c.FullPath(), "error", err)
	utils.RespondWithInternalError(c, "Internal error while processing the request", nil)
}
