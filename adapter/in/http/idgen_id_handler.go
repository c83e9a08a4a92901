package http

import (
	"strconv"

	in "idgen_server/core/port/in"
	"idgen_server/pkg/apperr"
	"idgen_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// IDHandler handles HTTP requests for ID generation
type IDHandler struct {
	service in.IDService
}

// NewIDHandler creates a new IDHandler
func NewIDHandler(service in.IDService) *IDHandler {
	return &IDHandler{service: service}
}

// Register registers ID routes. Static paths are registered before /:id.
func (h *IDHandler) Register(router fiber.Router) {
	ids := router.Group("/ids")

	ids.Post("/", h.Next)
	ids.Post("/batch", h.Batch)
	ids.Get("/info", h.Info)
	ids.Get("/stats", h.Stats)
	ids.Get("/:id", h.Decode)
}

// Next mints a single ID.
// POST /api/v1/ids
func (h *IDHandler) Next(c *fiber.Ctx) error {
	ident, err := h.service.Next(c.UserContext())
	if err != nil {
		return err
	}
	return response.CreatedWithMeta(c, ident, response.MetaFrom(c))
}

// Batch mints count IDs in increasing order.
// POST /api/v1/ids/batch?count=N
func (h *IDHandler) Batch(c *fiber.Ctx) error {
	raw := c.Query("count", "1")
	count, err := strconv.Atoi(raw)
	if err != nil {
		return apperr.InvalidInput("count", "must be an integer")
	}

	batch, err := h.service.Batch(c.UserContext(), count)
	if err != nil {
		return err
	}

	meta := response.MetaFrom(c)
	meta.Total = batch.Count
	meta.WorkerID = &batch.WorkerID
	return response.CreatedWithMeta(c, batch, meta)
}

// Decode splits an ID into timestamp, worker and sequence.
// GET /api/v1/ids/:id
func (h *IDHandler) Decode(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return apperr.InvalidInput("id", "must be a 64-bit integer")
	}

	ident, err := h.service.Decode(id)
	if err != nil {
		return err
	}
	return response.OK(c, ident)
}

// Info describes the generator serving this process.
// GET /api/v1/ids/info
func (h *IDHandler) Info(c *fiber.Ctx) error {
	return response.OK(c, h.service.Info())
}

// Stats returns generation counters and latency percentiles.
// GET /api/v1/ids/stats
func (h *IDHandler) Stats(c *fiber.Ctx) error {
	return response.OK(c, h.service.Stats().ToMap())
}
