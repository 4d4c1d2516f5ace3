package utils

import (
	"github.com/gofiber/fiber/v2"
)

// SuccessResponse is the envelope for successful JSON replies.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Message sends a success reply carrying only a human-readable message plus
// optional extra fields. Access-grant endpoints respond this way.
func Message(c *fiber.Ctx, message string, data ...interface{}) error {
	response := SuccessResponse{
		Success: true,
		Message: message,
	}
	if len(data) > 0 {
		response.Data = data[0]
	}
	return c.JSON(response)
}
