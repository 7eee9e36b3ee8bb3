package appers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrInvalidArgument - некорректные параметры чтения журнала (limit, consumerName)
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrStorageConflict - optimistic concurrency: версия курсора устарела, батч откатывается
	ErrStorageConflict = errors.New("storage conflict: stale progress version")
	// ErrEventNotFound - агрегат из записи журнала уже не резолвится (удалён/отменён)
	ErrEventNotFound = errors.New("event not found")
	// ErrUserNotFound - у получателя нет chat_id, доставка этой строки пропускается
	ErrUserNotFound = errors.New("user not found")
)

type ErrorResp struct {
	StatusCode int    `json:"statusCode,omitempty"`
	StatusDesc string `json:"statusDesc,omitempty"`
}

func (e ErrorResp) Error() string {
	return e.StatusDesc
}

var (
	ErrNotificationNotFound = ErrorResp{
		http.StatusNotFound,
		"уведомление не найдено",
	}
	ErrBadRequest = ErrorResp{
		http.StatusBadRequest,
		"некорректный запрос",
	}
)

func SanitizeError(c *fiber.Ctx, err error) error {
	var errResp ErrorResp

	if ok := errors.As(err, &errResp); ok {
		return c.Status(errResp.StatusCode).JSON(fiber.Map{
			"message": errResp.StatusDesc,
		})
	}
	if errors.Is(err, ErrInvalidArgument) {
		return NewErr(c, http.StatusBadRequest, err)
	}
	return NewErr(c, http.StatusInternalServerError, err)
}

func NewErr(ctx *fiber.Ctx, status int, err error) error {
	return ctx.Status(status).JSON(fiber.Map{
		"message": err.Error(),
	})
}
