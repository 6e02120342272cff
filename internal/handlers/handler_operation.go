package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/tokencustody/token_custody_app/internal/core/ports/services"
	"github.com/tokencustody/token_custody_app/internal/dto"
	"github.com/tokencustody/token_custody_app/internal/middleware"
)

// operationHandler handles HTTP requests for the maker-checker operation lifecycle.
type operationHandler struct {
	operationService portssvc.OperationSvcFacade
}

func newOperationHandler(os portssvc.OperationSvcFacade) *operationHandler {
	return &operationHandler{operationService: os}
}

// registerOperationRoutes registers routes related to custody operations.
func registerOperationRoutes(rg *gin.RouterGroup, operationService portssvc.OperationSvcFacade) {
	h := newOperationHandler(operationService)

	operations := rg.Group("/operations")
	{
		operations.POST("", h.initiateOperation)
		operations.GET("", h.listOperations)
		operations.GET("/:operationID", h.getOperation)
		operations.POST("/:operationID/approve", h.approveOperation)
		operations.POST("/:operationID/reject", h.rejectOperation)
	}
}

func (h *operationHandler) initiateOperation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.InitiateOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for InitiateOperation", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	makerID, ok := requireUserID(c)
	if !ok {
		return
	}

	op, err := h.operationService.InitiateOperation(c.Request.Context(), req, makerID)
	if err != nil {
		handleServiceError(c, err, "Failed to initiate operation")
		return
	}

	c.JSON(http.StatusCreated, dto.ToOperationResponse(op))
}

func (h *operationHandler) approveOperation(c *gin.Context) {
	checkerID, ok := requireUserID(c)
	if !ok {
		return
	}

	op, err := h.operationService.ApproveOperation(c.Request.Context(), c.Param("operationID"), checkerID)
	if err != nil {
		handleServiceError(c, err, "Failed to approve operation")
		return
	}

	c.JSON(http.StatusOK, dto.ToOperationResponse(op))
}

func (h *operationHandler) rejectOperation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RejectOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RejectOperation", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	checkerID, ok := requireUserID(c)
	if !ok {
		return
	}

	op, err := h.operationService.RejectOperation(c.Request.Context(), c.Param("operationID"), checkerID, req.Reason)
	if err != nil {
		handleServiceError(c, err, "Failed to reject operation")
		return
	}

	c.JSON(http.StatusOK, dto.ToOperationResponse(op))
}

func (h *operationHandler) getOperation(c *gin.Context) {
	op, audit, err := h.operationService.GetOperation(c.Request.Context(), c.Param("operationID"))
	if err != nil {
		handleServiceError(c, err, "Failed to retrieve operation")
		return
	}

	c.JSON(http.StatusOK, dto.GetOperationResponse{
		Operation: dto.ToOperationResponse(op),
		Audit:     dto.ToAuditEntryResponses(audit),
	})
}

func (h *operationHandler) listOperations(c *gin.Context) {
	assetID := c.Query("assetID")
	if assetID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "assetID query parameter is required"})
		return
	}

	limit, nextToken := parsePagination(c)
	ops, next, err := h.operationService.ListOperations(c.Request.Context(), assetID, limit, nextToken)
	if err != nil {
		handleServiceError(c, err, "Failed to list operations")
		return
	}

	c.JSON(http.StatusOK, dto.ListOperationsResponse{
		Operations: dto.ToOperationResponses(ops),
		NextToken:  next,
	})
}
