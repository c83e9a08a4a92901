// Package response provides the standard API response envelope.
package response

import (
	"github.com/gofiber/fiber/v2"
)

// Response is the standard success envelope. Errors are written by
// middleware.ErrorHandler in the same shape.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta carries request metadata alongside the payload.
type Meta struct {
	Total     int    `json:"total,omitempty"`
	WorkerID  *int64 `json:"worker_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// OK returns a successful response.
func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(Response{
		Success: true,
		Data:    data,
	})
}

// CreatedWithMeta returns a 201 created response with metadata.
func CreatedWithMeta(c *fiber.Ctx, data interface{}, meta *Meta) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// MetaFrom builds Meta with the request ID set by middleware.RequestID.
func MetaFrom(c *fiber.Ctx) *Meta {
	requestID, _ := c.Locals("request_id").(string)
	return &Meta{RequestID: requestID}
}
