package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/flight-search/contentguard/pkg/pipeline"
	"github.com/flight-search/contentguard/pkg/types"
)

type filterHandler struct {
	logger   *logrus.Logger
	pipeline *pipeline.Pipeline
}

func NewFilterHandler(logger *logrus.Logger, p *pipeline.Pipeline) Handler {
	return &filterHandler{logger: logger, pipeline: p}
}

// Handle scores a query plus the results the aggregation layer fetched
// for it, and returns the annotated/filtered response.
func (h *filterHandler) Handle(c *fiber.Ctx) error {
	requestID := uuid.NewString()

	var req types.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).WithField("request_id", requestID).Error("failed to bind filter request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidJsonPayload})
	}

	response, err := h.pipeline.Filter(c.UserContext(), req)
	if err != nil {
		var upstream *pipeline.UpstreamAggregationError
		if errors.As(err, &upstream) {
			h.logger.WithError(err).WithField("request_id", requestID).Error("upstream aggregation failed")
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "search upstream unavailable"})
		}
		if errors.Is(err, c.UserContext().Err()) && c.UserContext().Err() != nil {
			// Caller went away; partial results are discarded.
			return nil
		}
		h.logger.WithError(err).WithField("request_id", requestID).Error("pipeline failure")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"action":     response.QueryDecision.Action,
		"score":      response.QueryDecision.Score,
		"kept":       len(response.Results),
		"dropped":    response.Dropped,
	}).Debug("filter request served")

	return c.Status(fiber.StatusOK).JSON(response)
}
