package apihandlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"helpdesk/internal/app"
	"helpdesk/internal/models"
	"helpdesk/internal/services"
)

type APIHandler struct {
	App *app.App
}

func NewAPIHandler(app *app.App) *APIHandler {
	return &APIHandler{App: app}
}

// RegisterRoutes mounts the prediction API under /api/v1.
func (h *APIHandler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	{
		predictions := v1.Group("/predictions")
		{
			predictions.POST("/predict", h.PredictHandler)
			predictions.POST("/batch-predict", h.BatchPredictHandler)
			predictions.POST("/retrain", h.RetrainHandler)
			predictions.POST("/reload", h.ReloadHandler)
			predictions.GET("/model-status", h.ModelStatusHandler)
			predictions.GET("/insights", h.CategoryInsightsHandler)
			predictions.POST("/categorize", h.BatchCategorizeHandler)
		}
		v1.GET("/tickets/:id/suggested-category", h.SuggestCategoryHandler)
	}
	router.GET("/health", h.HealthHandler)
}

// HealthHandler reports ticket store connectivity and whether models are served.
func (h *APIHandler) HealthHandler(c *gin.Context) {
	body := gin.H{"status": "ok", "models_loaded": h.App.Predictor != nil && h.App.Predictor.Ready()}
	if h.App.TicketStore != nil {
		if err := h.App.TicketStore.Ping(c.Request.Context()); err != nil {
			body["status"] = "degraded"
			body["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}
	c.JSON(http.StatusOK, body)
}

// --- Predictions ---

type PredictRequest struct {
	Description string `json:"description"`
}

type BatchPredictRequest struct {
	Descriptions []string `json:"descriptions"`
}

func (h *APIHandler) PredictHandler(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	insight, err := h.App.PredictionService.Predict(c.Request.Context(), req.Description)
	if err != nil {
		respondServiceError(c, "PredictHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "predictions": insight})
}

func (h *APIHandler) BatchPredictHandler(c *gin.Context) {
	var req BatchPredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	results, err := h.App.PredictionService.BatchPredict(c.Request.Context(), req.Descriptions)
	if err != nil {
		respondServiceError(c, "BatchPredictHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

// RetrainHandler trains in the request unless ?async=true, which queues the
// retrain for the worker and answers 202 with the job id.
func (h *APIHandler) RetrainHandler(c *gin.Context) {
	async := false
	if v := c.Query("async"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			BadRequest(c, fmt.Sprintf("Invalid async value: %s", v))
			return
		}
		async = b
	}

	if async {
		jobID, err := h.App.PredictionService.EnqueueRetrain(c.Request.Context())
		if err != nil {
			respondServiceError(c, "RetrainHandler", err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"success": true, "job_id": jobID, "status": models.JobStatusEnqueued})
		return
	}

	report, err := h.App.PredictionService.Retrain(c.Request.Context())
	if errors.Is(err, models.ErrTrainingFailed) {
		log.WithError(err).Warn("synchronous retrain failed")
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "Failed to retrain models",
			"error":   err.Error(),
		})
		return
	}
	if err != nil {
		respondServiceError(c, "RetrainHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Models retrained successfully",
		"report":  report,
	})
}

func (h *APIHandler) ReloadHandler(c *gin.Context) {
	if err := h.App.PredictionService.ReloadModels(c.Request.Context()); err != nil {
		respondServiceError(c, "ReloadHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Models reloaded"})
}

func (h *APIHandler) ModelStatusHandler(c *gin.Context) {
	status, err := h.App.PredictionService.ModelStatus(c.Request.Context())
	if err != nil {
		respondServiceError(c, "ModelStatusHandler", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *APIHandler) CategoryInsightsHandler(c *gin.Context) {
	stats, err := h.App.PredictionService.CategoryInsights(c.Request.Context())
	if err != nil {
		respondServiceError(c, "CategoryInsightsHandler", err)
		return
	}
	recent, err := h.App.PredictionService.RecentTickets(c.Request.Context())
	if err != nil {
		respondServiceError(c, "CategoryInsightsHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": stats, "recent_tickets": recent})
}

// --- Categorization ---

type BatchCategorizeRequest struct {
	TicketIDs []int64 `json:"ticket_ids"`
}

func (h *APIHandler) BatchCategorizeHandler(c *gin.Context) {
	var req BatchCategorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if len(req.TicketIDs) == 0 {
		BadRequest(c, "ticket_ids list is required")
		return
	}

	results, err := h.App.CategorizationService.BatchCategorize(c.Request.Context(), req.TicketIDs)
	if err != nil {
		respondServiceError(c, "BatchCategorizeHandler", err)
		return
	}

	// keep request order; ids without a result are reported separately
	ordered := make([]*services.TicketCategorization, 0, len(results))
	missing := make([]int64, 0)
	for _, id := range req.TicketIDs {
		if r, ok := results[id]; ok {
			ordered = append(ordered, r)
		} else {
			missing = append(missing, id)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": ordered, "missing": missing})
}

func (h *APIHandler) SuggestCategoryHandler(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, fmt.Sprintf("Invalid ticket ID format: %s", c.Param("id")))
		return
	}

	result, err := h.App.CategorizationService.SuggestForTicket(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "SuggestCategoryHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

// respondServiceError maps service errors onto HTTP responses.
func respondServiceError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrModelsNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, models.ErrConflict):
		Conflict(c, err.Error())
	case errors.Is(err, services.ErrJobQueueUnavailable), errors.Is(err, models.ErrModelUnavailable):
		ServiceUnavailable(c, err.Error())
	default:
		log.WithError(err).WithField("op", op).Error("request failed")
		Internal(c, fmt.Sprintf("%s: %v", op, err))
	}
}
