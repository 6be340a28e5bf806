package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job - задача уведомления покупателя о заказе. Доставка at-least-once, дубликаты допустимы
type Job struct {
	ID             string    `json:"id"`
	OrderID        int64     `json:"order_id"`
	RecipientEmail string    `json:"recipient_email"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}

func NewJob(orderID int64, recipientEmail string) Job {
	return Job{
		ID:             uuid.NewString(),
		OrderID:        orderID,
		RecipientEmail: recipientEmail,
		EnqueuedAt:     time.Now().UTC(),
	}
}

func (j Job) Encode() ([]byte, error) {
	return json.Marshal(j)
}

// DecodeJob разбирает сообщение очереди. Ошибка всегда оборачивает ErrMalformedJob и несет начало payload
func DecodeJob(data []byte) (Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("decode job %q: %w: %w", payloadPreview(data), ErrMalformedJob, err)
	}
	if job.OrderID <= 0 {
		return Job{}, fmt.Errorf("decode job %q: %w: invalid order id %d", payloadPreview(data), ErrMalformedJob, job.OrderID)
	}
	return job, nil
}

const maxPayloadPreview = 256

func payloadPreview(data []byte) string {
	if len(data) > maxPayloadPreview {
		return string(data[:maxPayloadPreview]) + "..."
	}
	return string(data)
}

var (
	// ErrNoJob - очередь пуста на момент опроса
	ErrNoJob = errors.New("no job available")
	// ErrMalformedJob - сообщение снято с очереди, но это не задача. Повторять чтение бессмысленно
	ErrMalformedJob = errors.New("malformed notification job")
)

// Publisher - сторона производителя очереди (сервер API)
type Publisher interface {
	Publish(ctx context.Context, job Job) error
}

// Consumer - сторона потребителя очереди (воркер)
type Consumer interface {
	Next(ctx context.Context) (Job, error)
}
