package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/tokencustody/token_custody_app/internal/core/ports/services"
	"github.com/tokencustody/token_custody_app/internal/dto"
	"github.com/tokencustody/token_custody_app/internal/middleware"
)

// marketplaceHandler handles HTTP requests for listings, bids and balances.
type marketplaceHandler struct {
	settlementService portssvc.SettlementSvcFacade
}

func newMarketplaceHandler(ss portssvc.SettlementSvcFacade) *marketplaceHandler {
	return &marketplaceHandler{settlementService: ss}
}

// registerMarketplaceRoutes registers routes related to the marketplace.
func registerMarketplaceRoutes(rg *gin.RouterGroup, settlementService portssvc.SettlementSvcFacade) {
	h := newMarketplaceHandler(settlementService)

	listings := rg.Group("/listings")
	{
		listings.POST("", h.createListing)
		listings.GET("/:listingID", h.getListing)
		listings.POST("/:listingID/cancel", h.cancelListing)
	}

	bids := rg.Group("/bids")
	{
		bids.POST("", h.placeBid)
		bids.POST("/:bidID/accept", h.acceptBid)
		bids.POST("/:bidID/reject", h.rejectBid)
	}

	balances := rg.Group("/balances")
	{
		balances.POST("/deposit", h.deposit)
		balances.GET("/:currency", h.getBalance)
	}
}

func (h *marketplaceHandler) createListing(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateListing", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	sellerID, ok := requireUserID(c)
	if !ok {
		return
	}

	listing, err := h.settlementService.CreateListing(c.Request.Context(), req, sellerID)
	if err != nil {
		handleServiceError(c, err, "Failed to create listing")
		return
	}

	c.JSON(http.StatusCreated, dto.ToListingResponse(listing))
}

func (h *marketplaceHandler) getListing(c *gin.Context) {
	listing, bids, err := h.settlementService.GetListing(c.Request.Context(), c.Param("listingID"))
	if err != nil {
		handleServiceError(c, err, "Failed to retrieve listing")
		return
	}

	c.JSON(http.StatusOK, dto.GetListingResponse{
		Listing: dto.ToListingResponse(listing),
		Bids:    dto.ToBidResponses(bids),
	})
}

func (h *marketplaceHandler) cancelListing(c *gin.Context) {
	sellerID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.settlementService.CancelListing(c.Request.Context(), c.Param("listingID"), sellerID); err != nil {
		handleServiceError(c, err, "Failed to cancel listing")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *marketplaceHandler) placeBid(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PlaceBid", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	buyerID, ok := requireUserID(c)
	if !ok {
		return
	}

	bid, err := h.settlementService.PlaceBid(c.Request.Context(), req, buyerID)
	if err != nil {
		handleServiceError(c, err, "Failed to place bid")
		return
	}

	c.JSON(http.StatusCreated, dto.ToBidResponse(bid))
}

func (h *marketplaceHandler) acceptBid(c *gin.Context) {
	sellerID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.settlementService.AcceptBid(c.Request.Context(), c.Param("bidID"), sellerID); err != nil {
		handleServiceError(c, err, "Failed to accept bid")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *marketplaceHandler) rejectBid(c *gin.Context) {
	sellerID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.settlementService.RejectBid(c.Request.Context(), c.Param("bidID"), sellerID); err != nil {
		handleServiceError(c, err, "Failed to reject bid")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *marketplaceHandler) deposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Deposit", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	ownerID, ok := requireUserID(c)
	if !ok {
		return
	}

	balance, err := h.settlementService.Deposit(c.Request.Context(), ownerID, req.Currency, req.Amount)
	if err != nil {
		handleServiceError(c, err, "Failed to deposit")
		return
	}

	c.JSON(http.StatusOK, dto.ToBalanceResponse(balance))
}

func (h *marketplaceHandler) getBalance(c *gin.Context) {
	ownerID, ok := requireUserID(c)
	if !ok {
		return
	}

	balance, err := h.settlementService.GetBalance(c.Request.Context(), ownerID, c.Param("currency"))
	if err != nil {
		handleServiceError(c, err, "Failed to retrieve balance")
		return
	}

	c.JSON(http.StatusOK, dto.ToBalanceResponse(balance))
}
