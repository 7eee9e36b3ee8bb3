package cron

import (
	"context"
	"fmt"
	use_cases "notifier/internal/application/use-cases"
	"notifier/pkg/config"

	"go.uber.org/zap"
)

type Controller struct {
	scheduler *Scheduler
	logger    *zap.SugaredLogger
}

func NewController(ctx context.Context, logger *zap.SugaredLogger) *Controller {
	return &Controller{
		scheduler: NewScheduler(ctx, logger),
		logger:    logger,
	}
}

// RegisterPipelineJobs регистрирует четыре периодические задачи пайплайна:
// два консьюмера журнала, delivery-процессор outbox и sweep просроченных строк.
// Расписания в формате cron или "@every 5s" из конфига.
func (c *Controller) RegisterPipelineJobs(usecase use_cases.UseCaser, conf *config.Config) error {
	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{"in-app-consumer", conf.Pipeline.InAppSchedule, usecase.RunInAppConsumer},
		{"telegram-consumer", conf.Pipeline.TelegramSchedule, usecase.RunTelegramConsumer},
		{"outbox-delivery", conf.Outbox.DeliverySchedule, usecase.DeliverOutbox},
		{"outbox-sweep", conf.Outbox.SweepSchedule, usecase.SweepStranded},
	}

	for _, j := range jobs {
		entryID, err := c.scheduler.Add(j.spec, NewPipelineJob(j.name, j.run, c.logger))
		if err != nil {
			return fmt.Errorf("не удалось зарегистрировать задачу %s: %w", j.name, err)
		}
		c.logger.Infof("Задача %s зарегистрирована с ID: %d, расписание: %s", j.name, entryID, j.spec)
	}

	return nil
}

// Start запускает планировщик задач
func (c *Controller) Start() {
	c.logger.Info("Запуск планировщика cron задач")
	c.scheduler.Start()
}

// Stop останавливает планировщик задач
func (c *Controller) Stop() {
	c.logger.Info("Остановка планировщика cron задач")
	c.scheduler.Stop()
	c.logger.Info("Планировщик cron задач остановлен")
}
