package http

import "github.com/gofiber/fiber/v2"

const ErrInvalidJsonPayload = "invalid JSON payload"

// Handler is the common shape of all HTTP handlers.
type Handler interface {
	Handle(ctx *fiber.Ctx) error
}
