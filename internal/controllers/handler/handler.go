package handler

import (
	"context"
	"notifier/internal/appers"
	"notifier/internal/application/common"
	"notifier/internal/application/entity"
	use_cases "notifier/internal/application/use-cases"
	"notifier/pkg/validator"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

type Handler interface {
	GetNotifications(c *fiber.Ctx) error
	MarkNotificationRead(c *fiber.Ctx) error
	HealthCheck(c *fiber.Ctx) error
}

type HandlerImpl struct {
	usecase use_cases.UseCaser
	logger  *zap.SugaredLogger
}

func NewNotificationHandler(usecase use_cases.UseCaser, logger *zap.SugaredLogger) *HandlerImpl {
	return &HandlerImpl{
		usecase: usecase,
		logger:  logger,
	}
}

func (h *HandlerImpl) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	dbHealthy, kafkaHealthy, _ := h.usecase.HealthCheck(ctx)

	health := entity.HealthCheckResponse{
		Status:  dbHealthy && kafkaHealthy,
		Message: "success",
		Version: common.Version,
		Checks: entity.HealthCheckResponseData{
			Database: entity.HealthCheckItem{Status: dbHealthy, Type: "postgresql"},
			Kafka:    entity.HealthCheckItem{Status: kafkaHealthy, Type: "kafka"},
		},
	}

	status := fiber.StatusOK
	if !dbHealthy || !kafkaHealthy {
		status = fiber.StatusServiceUnavailable
		health.Message = "one or more components are unavailable"
	}

	return c.Status(status).JSON(health)
}

type getNotificationsQuery struct {
	UserID string `query:"userId" validate:"required,uuid_gofrs"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

func (h *HandlerImpl) GetNotifications(c *fiber.Ctx) error {
	var q getNotificationsQuery
	if err := c.QueryParser(&q); err != nil {
		h.logger.Warnf("GetNotifications: bad query: %v", err)
		return appers.SanitizeError(c, appers.ErrBadRequest)
	}
	if err := validator.Validate.Struct(&q); err != nil {
		h.logger.Warnf("GetNotifications: validation failed: %v", err)
		return appers.NewErr(c, fiber.StatusBadRequest, err)
	}

	userID, _ := uuid.FromString(q.UserID)

	notifications, err := h.usecase.GetNotifications(c.Context(), userID, q.Limit)
	if err != nil {
		h.logger.Errorf("[user: %s] GetNotifications failed: %v", userID, err)
		return appers.SanitizeError(c, err)
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
	})
}

func (h *HandlerImpl) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return appers.SanitizeError(c, appers.ErrBadRequest)
	}

	userID, err := uuid.FromString(c.Query("userId"))
	if err != nil {
		return appers.SanitizeError(c, appers.ErrBadRequest)
	}

	if err := h.usecase.MarkNotificationRead(c.Context(), int64(id), userID); err != nil {
		h.logger.Warnf("[user: %s] MarkNotificationRead %d failed: %v", userID, id, err)
		return appers.SanitizeError(c, err)
	}

	return c.JSON(fiber.Map{"message": "ok"})
}
