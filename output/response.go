// Package output writes pipeline results back to the HTTP client.
package output

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/mrsingh-rishi/voice-bridge/model"
)

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Error string     `json:"error"`
	Kind  model.Kind `json:"kind"`
}

// Audio sends buf with the content type of its container. A non-empty
// attachment name adds a Content-Disposition header.
func Audio(c *fiber.Ctx, buf model.AudioBuffer, attachment string) error {
	c.Set(fiber.HeaderContentType, buf.Format.Container.ContentType())
	if attachment != "" {
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", attachment))
	}
	return c.Status(fiber.StatusOK).Send(buf.Data)
}

// Error writes err as a JSON body with the status of its kind. Untyped
// errors become internal_error.
func Error(c *fiber.Ctx, err error) error {
	e := model.AsError(err, model.StageRequest)
	return c.Status(e.Status()).JSON(ErrorBody{Error: e.Message(), Kind: e.Kind})
}

// BadRequest reports malformed client input.
func BadRequest(c *fiber.Ctx, format string, args ...any) error {
	return Error(c, model.NewError(model.KindBadRequest, model.StageRequest, fmt.Errorf(format, args...)))
}
