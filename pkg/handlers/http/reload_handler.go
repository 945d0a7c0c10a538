package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/flight-search/contentguard/pkg/blocklist"
	"github.com/flight-search/contentguard/pkg/infra/prometheus"
)

type reloadHandler struct {
	logger    *logrus.Logger
	store     *blocklist.Store
	rulesFile string
}

func NewReloadHandler(logger *logrus.Logger, store *blocklist.Store, rulesFile string) Handler {
	return &reloadHandler{logger: logger, store: store, rulesFile: rulesFile}
}

// Handle reloads the rule set from its source. A rejected rule set leaves
// the previous snapshot active; in-flight requests are unaffected either
// way.
func (h *reloadHandler) Handle(c *fiber.Ctx) error {
	snapshot, err := h.store.LoadFile(h.rulesFile)
	if err != nil {
		prometheus.BlocklistReloads.WithLabelValues("error").Inc()
		h.logger.WithError(err).Error("blocklist reload rejected, previous snapshot stays active")

		var loadErr *blocklist.LoadError
		if errors.As(err, &loadErr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":          loadErr.Error(),
				"active_version": h.store.Current().Version,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":          err.Error(),
			"active_version": h.store.Current().Version,
		})
	}

	prometheus.BlocklistReloads.WithLabelValues("ok").Inc()
	h.logger.WithFields(logrus.Fields{
		"version": snapshot.Version,
		"rules":   len(snapshot.Rules),
	}).Info("blocklist reloaded")

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"version": snapshot.Version,
		"rules":   len(snapshot.Rules),
	})
}
