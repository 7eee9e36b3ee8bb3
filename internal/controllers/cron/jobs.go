package cron

import (
	"context"

	"go.uber.org/zap"
)

// PipelineJob - периодическая задача пайплайна (консьюмер, доставка, sweep).
// Ошибка запуска только логируется: следующий тик повторит с последнего
// зафиксированного состояния.
type PipelineJob struct {
	name   string
	run    func(ctx context.Context) error
	logger *zap.SugaredLogger
}

func NewPipelineJob(name string, run func(ctx context.Context) error, logger *zap.SugaredLogger) *PipelineJob {
	return &PipelineJob{
		name:   name,
		run:    run,
		logger: logger,
	}
}

func (j *PipelineJob) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			j.logger.Errorf("Паника в задаче %s: %v", j.name, r)
		}
	}()

	if err := j.run(ctx); err != nil {
		j.logger.Errorf("Задача %s завершилась с ошибкой: %v", j.name, err)
	}
}
