package server

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/flight-search/contentguard/pkg/config"
	handlers "github.com/flight-search/contentguard/pkg/handlers/http"
	"github.com/flight-search/contentguard/pkg/infra/prometheus"
)

// Server hosts the pipeline's HTTP boundary for the surrounding
// metasearch system.
type Server struct {
	config *config.Config
	logger *logrus.Logger
	router *fiber.App
}

func New(cfg *config.Config, logger *logrus.Logger, filter, reload handlers.Handler) *Server {
	r := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReduceMemoryUsage:     true,
		Network:               fiber.NetworkTCP,
		BodyLimit:             4 * 1024 * 1024,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
	})
	r.Server().NoDefaultServerHeader = true

	r.Use(recover.New())

	r.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(prometheus.Handler())
	r.Get("/metrics", func(ctx *fiber.Ctx) error {
		metricsHandler(ctx.Context())
		return nil
	})

	v1 := r.Group("/v1")
	v1.Post("/filter", filter.Handle)
	v1.Post("/blocklist/reload", reload.Handle)

	return &Server{config: cfg, logger: logger, router: r}
}

func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.WithField("addr", addr).Info("content safety pipeline listening")
	return s.router.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.router.Shutdown()
}
