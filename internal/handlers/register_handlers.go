package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tokencustody/token_custody_app/internal/apperrors"
	portssvc "github.com/tokencustody/token_custody_app/internal/core/ports/services"
	"github.com/tokencustody/token_custody_app/internal/middleware"
	"github.com/tokencustody/token_custody_app/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Register public authentication routes
	registerAuthRoutes(r, services)

	// Setup API v1 routes with Auth Middleware, passing service interfaces
	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Apply AuthMiddleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	registerUserRoutes(v1, services.User)
	registerCustodyRoutes(v1, services.Custody)
	registerOperationRoutes(v1, services.Operation)
	registerMarketplaceRoutes(v1, services.Settlement)
}

// handleServiceError maps service-layer errors onto HTTP responses. Unknown
// errors are never echoed back to the client.
func handleServiceError(c *gin.Context, err error, defaultMsg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrSegregationViolation):
		c.JSON(http.StatusForbidden, gin.H{"error": "Checker must differ from the operation maker"})
	case errors.Is(err, apperrors.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner may perform this action"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, apperrors.ErrConcurrentOperation):
		c.JSON(http.StatusConflict, gin.H{"error": "A non-terminal operation already exists for this custody record"})
	case errors.Is(err, apperrors.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Resource changed state concurrently, please retry"})
	case errors.Is(err, apperrors.ErrPrecondition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Insufficient funds"})
	case errors.Is(err, apperrors.ErrProvider):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Custody provider request failed"})
	case errors.Is(err, apperrors.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Custody provider timed out"})
	default:
		logger.Error(defaultMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": defaultMsg})
	}
}

// requireUserID fetches the authenticated user from the context or aborts.
func requireUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}
