package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/shop-checkout/internal/domain/models"
	"github.com/linemk/shop-checkout/internal/lib/metrics"
	"github.com/linemk/shop-checkout/internal/storage"
	"github.com/sony/gobreaker/v2"
)

type ResultStatus string

const (
	ResultSent     ResultStatus = "sent"
	ResultNotFound ResultStatus = "not_found"
	ResultFailed   ResultStatus = "failed"
)

// Result - итог обработки задачи. Ошибки не выбрасываются наружу, только отражаются здесь
type Result struct {
	Status   ResultStatus
	Detail   string
	Attempts int
}

type OrderReader interface {
	GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error)
}

type ProcessorOptions struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Processor выполняет задачу: перечитывает заказ, рендерит письмо и доставляет его
type Processor struct {
	log     *slog.Logger
	orders  OrderReader
	sender  Sender
	metrics *metrics.Metrics
	opts    ProcessorOptions
}

func NewProcessor(log *slog.Logger, orders OrderReader, sender Sender, m *metrics.Metrics, opts ProcessorOptions) *Processor {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	return &Processor{
		log:     log,
		orders:  orders,
		sender:  sender,
		metrics: m,
		opts:    opts,
	}
}

func (p *Processor) Handle(ctx context.Context, job Job) Result {
	const op = "notification.Processor.Handle"
	logger := p.log.With(
		slog.String("op", op),
		slog.String("jobID", job.ID),
		slog.Int64("orderID", job.OrderID),
		slog.String("to", job.RecipientEmail),
	)

	res := p.handle(ctx, logger, job)
	p.metrics.NotificationObserved(string(res.Status))

	switch res.Status {
	case ResultSent:
		logger.Info("order confirmation sent", slog.Int("attempts", res.Attempts))
	case ResultNotFound:
		logger.Warn("order not found, notification dropped")
	default:
		logger.Error("order confirmation failed", slog.String("detail", res.Detail), slog.Int("attempts", res.Attempts))
	}
	return res
}

func (p *Processor) handle(ctx context.Context, logger *slog.Logger, job Job) Result {
	order, err := p.orders.GetOrderByID(ctx, job.OrderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return Result{Status: ResultNotFound, Detail: fmt.Sprintf("order %d not found", job.OrderID)}
		}
		return Result{Status: ResultFailed, Detail: fmt.Sprintf("load order: %v", err)}
	}

	msg, err := Render(order, job.RecipientEmail)
	if err != nil {
		return Result{Status: ResultFailed, Detail: err.Error()}
	}

	var sendErr error
	for attempt := 1; attempt <= p.opts.MaxAttempts; attempt++ {
		sendErr = p.sender.Send(ctx, msg)
		if sendErr == nil {
			return Result{Status: ResultSent, Attempts: attempt}
		}
		// разомкнутая цепь не закроется за время ретраев одной задачи
		if errors.Is(sendErr, gobreaker.ErrOpenState) || attempt == p.opts.MaxAttempts {
			return Result{Status: ResultFailed, Detail: sendErr.Error(), Attempts: attempt}
		}

		delay := p.opts.Backoff << (attempt - 1)
		logger.Warn("send failed, retrying", slog.Int("attempt", attempt), slog.Duration("delay", delay), slog.Any("error", sendErr))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Result{Status: ResultFailed, Detail: ctx.Err().Error(), Attempts: attempt}
		}
	}
	return Result{Status: ResultFailed, Detail: sendErr.Error(), Attempts: p.opts.MaxAttempts}
}
