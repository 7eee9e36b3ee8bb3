package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Job interface {
	Run(ctx context.Context)
}

type Scheduler struct {
	c   *cron.Cron
	ctx context.Context
}

func NewScheduler(ctx context.Context, logger *zap.SugaredLogger) *Scheduler {
	// Стандартный парсер с поддержкой секунд и @every.
	// SkipIfStillRunning: если предыдущий запуск ещё идёт, очередной тик
	// пропускается - параллельные батчи одного консьюмера недопустимы.
	c := cron.New(
		cron.WithParser(cron.NewParser(
			cron.Second|cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor,
		)),
		cron.WithChain(
			cron.SkipIfStillRunning(&cronZapLogger{logger.Named("cron")}),
		),
	)
	return &Scheduler{c: c, ctx: ctx}
}

func (s *Scheduler) Add(spec string, job Job) (cron.EntryID, error) {
	return s.c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(s.ctx, 55*time.Minute)
		defer cancel()
		job.Run(ctx)
	})
}

func (s *Scheduler) Start() {
	s.c.Start()
}

func (s *Scheduler) Stop() {
	ctx := s.c.Stop()
	<-ctx.Done()
}

// cronZapLogger адаптирует zap к cron.Logger
type cronZapLogger struct {
	l *zap.SugaredLogger
}

func (c *cronZapLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Infow(msg, keysAndValues...)
}

func (c *cronZapLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append([]interface{}{"err", err}, keysAndValues...)...)
}
