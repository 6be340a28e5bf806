package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

type JobHandler interface {
	Handle(ctx context.Context, job Job) Result
}

// Pool читает задачи из очереди и раздает их воркерам
type Pool struct {
	log        *slog.Logger
	consumer   Consumer
	handler    JobHandler
	workers    int
	jobTimeout time.Duration
	errDelay   time.Duration
}

func NewPool(log *slog.Logger, consumer Consumer, handler JobHandler, workers int, jobTimeout time.Duration) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Second
	}
	return &Pool{
		log:        log.With(slog.String("component", "notification.Pool")),
		consumer:   consumer,
		handler:    handler,
		workers:    workers,
		jobTimeout: jobTimeout,
		errDelay:   2 * time.Second,
	}
}

// Run блокирует до отмены ctx. Начатые задачи дорабатываются до своего таймаута
func (p *Pool) Run(ctx context.Context) {
	jobs := make(chan Job)

	var wg sync.WaitGroup
	for i := 1; i <= p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.workerLoop(ctx, id, jobs)
		}(i)
	}

	p.consume(ctx, jobs)
	close(jobs)
	wg.Wait()
	p.log.Info("notification pool stopped")
}

func (p *Pool) consume(ctx context.Context, jobs chan<- Job) {
	for {
		job, err := p.consumer.Next(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if errors.Is(err, ErrNoJob) {
				continue
			}
			// брокер в порядке, битое сообщение просто выбрасываем
			if errors.Is(err, ErrMalformedJob) {
				p.log.Warn("dropping malformed notification job", slog.Any("error", err))
				continue
			}
			p.log.Error("failed to read notification job", slog.Any("error", err))
			select {
			case <-time.After(p.errDelay):
				continue
			case <-ctx.Done():
				return
			}
		}

		select {
		case jobs <- job:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) workerLoop(ctx context.Context, id int, jobs <-chan Job) {
	for job := range jobs {
		// задача не должна обрываться остановкой пула, только своим таймаутом
		jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.jobTimeout)
		res := p.handler.Handle(jobCtx, job)
		cancel()
		p.log.Debug("job processed",
			slog.Int("worker", id),
			slog.String("jobID", job.ID),
			slog.String("result", string(res.Status)),
		)
	}
}
