package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	portssvc "github.com/tokencustody/token_custody_app/internal/core/ports/services"
	"github.com/tokencustody/token_custody_app/internal/dto"
	"github.com/tokencustody/token_custody_app/internal/middleware"
)

// custodyHandler handles HTTP requests related to custody records.
type custodyHandler struct {
	custodyService portssvc.CustodySvcFacade
}

func newCustodyHandler(cs portssvc.CustodySvcFacade) *custodyHandler {
	return &custodyHandler{custodyService: cs}
}

// registerCustodyRoutes registers routes related to custody records.
func registerCustodyRoutes(rg *gin.RouterGroup, custodyService portssvc.CustodySvcFacade) {
	h := newCustodyHandler(custodyService)

	assets := rg.Group("/assets")
	{
		assets.POST("", h.linkAsset)
		assets.GET("", h.listCustodyRecords)
		assets.GET("/:assetID", h.getCustodyRecord)
		assets.GET("/:assetID/audit", h.listAudit)
	}
}

// parsePagination reads the limit/nextToken query parameters.
func parsePagination(c *gin.Context) (int, *string) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	var nextToken *string
	if raw := c.Query("nextToken"); raw != "" {
		nextToken = &raw
	}
	return limit, nextToken
}

func (h *custodyHandler) linkAsset(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.LinkAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for LinkAsset", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	actorID, ok := requireUserID(c)
	if !ok {
		return
	}

	record, err := h.custodyService.LinkAsset(c.Request.Context(), req, actorID)
	if err != nil {
		handleServiceError(c, err, "Failed to link asset")
		return
	}

	c.JSON(http.StatusCreated, dto.ToCustodyRecordResponse(record))
}

func (h *custodyHandler) getCustodyRecord(c *gin.Context) {
	record, err := h.custodyService.GetCustodyRecord(c.Request.Context(), c.Param("assetID"))
	if err != nil {
		handleServiceError(c, err, "Failed to retrieve custody record")
		return
	}
	c.JSON(http.StatusOK, dto.ToCustodyRecordResponse(record))
}

func (h *custodyHandler) listCustodyRecords(c *gin.Context) {
	limit, nextToken := parsePagination(c)
	records, next, err := h.custodyService.ListCustodyRecords(c.Request.Context(), limit, nextToken)
	if err != nil {
		handleServiceError(c, err, "Failed to list custody records")
		return
	}
	c.JSON(http.StatusOK, dto.ListCustodyRecordsResponse{
		Records:   dto.ToCustodyRecordResponses(records),
		NextToken: next,
	})
}

func (h *custodyHandler) listAudit(c *gin.Context) {
	limit, nextToken := parsePagination(c)
	entries, next, err := h.custodyService.ListAuditByAsset(c.Request.Context(), c.Param("assetID"), limit, nextToken)
	if err != nil {
		handleServiceError(c, err, "Failed to list audit entries")
		return
	}
	c.JSON(http.StatusOK, dto.ListAuditResponse{
		Entries:   dto.ToAuditEntryResponses(entries),
		NextToken: next,
	})
}
