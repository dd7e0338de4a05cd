package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"CoinPulse/internal/domain/models"
	drepo "CoinPulse/internal/domain/repository"
	"CoinPulse/internal/usecase"
	xhttp "CoinPulse/pkg/http"
	xlogger "CoinPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	msgCoinRequired    = "Coin query parameter is required"
	msgCoinNotFound    = "Coin not found"
	msgNoDeviationData = "No data found for the specified coin"
	msgInvalidLimit    = "Limit must be between 1 and 1000"
)

// MarketHandler serves the /stats and /deviation read endpoints.
type MarketHandler struct {
	logger *xlogger.Logger
	qs     *usecase.QueryService
	store  drepo.ObservationStore
}

func NewMarketHandler(logger *xlogger.Logger, qs *usecase.QueryService, store drepo.ObservationStore) *MarketHandler {
	return &MarketHandler{logger: logger, qs: qs, store: store}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/stats", h.Stats)
	e.GET("/deviation", h.Deviation)
	e.GET("/health", h.Health)
}

// Stats returns the latest price, market cap and 24h change for a coin.
func (h *MarketHandler) Stats(c echo.Context) error {
	req := &models.StatsRequest{}
	if err := xhttp.ReadAndValidateRequest(c, req); err != nil {
		return xhttp.BadRequestResponse(c, msgCoinRequired)
	}

	stats, err := h.qs.GetStats(c.Request().Context(), req.Coin)
	switch {
	case err == nil:
		return xhttp.SuccessResponse(c, stats)
	case errors.Is(err, drepo.ErrNotFound):
		return xhttp.NotFoundResponse(c, msgCoinNotFound)
	case errors.Is(err, drepo.ErrInvalidArgument):
		return xhttp.BadRequestResponse(c, msgCoinRequired)
	default:
		h.logger.Error("stats query failed", xlogger.String("coin", req.Coin), xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
}

// Deviation returns the population standard deviation of the most recent
// prices for a coin.
func (h *MarketHandler) Deviation(c echo.Context) error {
	req := &models.DeviationRequest{}
	if err := xhttp.ReadAndValidateRequest(c, req); err != nil {
		var verr *xhttp.ValidationError
		if errors.As(err, &verr) && verr.Field == "Limit" {
			return xhttp.BadRequestResponse(c, msgInvalidLimit)
		}
		return xhttp.BadRequestResponse(c, msgCoinRequired)
	}

	dev, err := h.qs.GetDeviation(c.Request().Context(), req.Coin, req.Limit)
	switch {
	case err == nil:
		return xhttp.SuccessResponse(c, dev)
	case errors.Is(err, drepo.ErrNotFound):
		return xhttp.NotFoundResponse(c, msgNoDeviationData)
	case errors.Is(err, drepo.ErrInvalidArgument):
		return xhttp.BadRequestResponse(c, msgCoinRequired)
	default:
		h.logger.Error("deviation query failed", xlogger.String("coin", req.Coin), xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
}

// Health reports store connectivity.
func (h *MarketHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Health(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
