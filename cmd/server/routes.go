package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"twinmem/internal/memory"
	"twinmem/internal/model"
	"twinmem/pkg/errors"
)

func registerRoutes(router *gin.Engine, svc *memory.Service, log *zap.Logger) {
	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// Ingest one chunk into both stores
		api.POST("/memories", func(c *gin.Context) {
			var input model.ChunkInput
			if err := c.ShouldBindJSON(&input); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			chunkID, err := svc.Ingest(c.Request.Context(), input)
			if err != nil {
				switch {
				case errors.IsValidation(err):
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				case errors.IsPartialWrite(err):
					// Retryable: both stores upsert by chunk_id
					pw := err.(*errors.ErrPartialWrite)
					c.JSON(http.StatusBadGateway, gin.H{
						"error":        err.Error(),
						"chunk_id":     pw.ChunkID,
						"failed_store": pw.FailedStore,
						"retryable":    true,
					})
				default:
					log.Error("Ingestion failed", zap.Error(err))
					c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to ingest content"})
				}
				return
			}

			c.JSON(http.StatusOK, gin.H{"chunk_id": chunkID})
		})

		// Query user preferences across both stores
		api.GET("/preferences", func(c *gin.Context) {
			limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
			threshold, _ := strconv.ParseFloat(c.DefaultQuery("score_threshold", "0"), 64)
			includeTwin := c.DefaultQuery("include_twin_interactions", "false") == "true"

			q := model.PreferenceQuery{
				UserID:                  c.Query("user_id"),
				Topic:                   c.Query("topic"),
				ProjectID:               c.Query("project_id"),
				SessionID:               c.Query("session_id"),
				Limit:                   limit,
				ScoreThreshold:          threshold,
				IncludeTwinInteractions: includeTwin,
			}

			result, err := svc.QueryPreference(c.Request.Context(), q)
			if err != nil {
				if errors.IsValidation(err) {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				log.Error("Preference query failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Both retrieval sources failed"})
				return
			}

			c.JSON(http.StatusOK, result)
		})

		// Post-hoc update of an owning document's metadata
		api.PUT("/documents/:id/metadata", func(c *gin.Context) {
			var update model.DocumentMetadataUpdate
			if err := c.ShouldBindJSON(&update); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			found, err := svc.UpdateDocumentMetadata(c.Request.Context(), c.Param("id"), update)
			if err != nil {
				if errors.IsValidation(err) {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				log.Error("Document metadata update failed", zap.Error(err))
				c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to update document metadata"})
				return
			}
			if !found {
				c.JSON(http.StatusNotFound, gin.H{"updated": false})
				return
			}

			c.JSON(http.StatusOK, gin.H{"updated": true})
		})

		// Administrative clear of both stores
		api.DELETE("/admin/memories", func(c *gin.Context) {
			result, err := svc.ClearAll(c.Request.Context())
			if err != nil {
				log.Error("Store clear failed", zap.Error(err))
				c.JSON(http.StatusBadGateway, result)
				return
			}

			c.JSON(http.StatusOK, result)
		})
	}
}
