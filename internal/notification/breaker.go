package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerSender размыкает доставку после серии подряд идущих ошибок,
// чтобы воркеры не долбили упавший SMTP. Пока цепь разомкнута, Send сразу возвращает gobreaker.ErrOpenState
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker[struct{}]
}

type BreakerSettings struct {
	// ConsecutiveFailures - после скольких ошибок подряд цепь размыкается
	ConsecutiveFailures uint32
	// OpenTimeout - сколько цепь остается разомкнутой до пробного запроса
	OpenTimeout time.Duration
}

func NewBreakerSender(log *slog.Logger, next Sender, settings BreakerSettings) *BreakerSender {
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = 5
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "notification-sender",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return &BreakerSender{next: next, cb: cb}
}

func (b *BreakerSender) Send(ctx context.Context, msg Message) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Send(ctx, msg)
	})
	return err
}
