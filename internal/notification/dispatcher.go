package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrBufferFull = errors.New("notification buffer is full")

// Dispatcher - производитель очереди уведомлений в процессе API.
// Enqueue только кладет задачу в буфер, публикацией в брокер занимается Run в отдельной горутине
type Dispatcher struct {
	log            *slog.Logger
	publisher      Publisher
	jobs           chan Job
	publishTimeout time.Duration
}

func NewDispatcher(log *slog.Logger, publisher Publisher, buffer int, publishTimeout time.Duration) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	if publishTimeout <= 0 {
		publishTimeout = 5 * time.Second
	}
	return &Dispatcher{
		log:            log.With(slog.String("component", "notification.Dispatcher")),
		publisher:      publisher,
		jobs:           make(chan Job, buffer),
		publishTimeout: publishTimeout,
	}
}

// Enqueue никогда не блокирует: при заполненном буфере возвращает ErrBufferFull
func (d *Dispatcher) Enqueue(_ context.Context, orderID int64, recipientEmail string) error {
	job := NewJob(orderID, recipientEmail)
	select {
	case d.jobs <- job:
		return nil
	default:
		return ErrBufferFull
	}
}

// Run публикует задачи до отмены ctx, затем выгружает остаток буфера
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case job := <-d.jobs:
			d.publish(context.WithoutCancel(ctx), job)
		case <-ctx.Done():
			d.drain(context.WithoutCancel(ctx))
			return
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case job := <-d.jobs:
			d.publish(ctx, job)
		default:
			return
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, job Job) {
	ctx, cancel := context.WithTimeout(ctx, d.publishTimeout)
	defer cancel()

	logger := d.log.With(slog.String("jobID", job.ID), slog.Int64("orderID", job.OrderID))
	if err := d.publisher.Publish(ctx, job); err != nil {
		logger.Error("failed to publish notification job", slog.Any("error", err))
		return
	}
	logger.Debug("notification job published")
}
