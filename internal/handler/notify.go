package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
)

// publishNotify 把通知消息投递到队列，由 notify worker 消费后发邮件。
// 通知只是尽力而为，发布失败不影响排班主流程
func (h *Handler) publishNotify(msg *domain.NotifyMessage) {
	body, err := json.Marshal(msg)
	if err != nil {
		slog.Error("通知消息序列化失败", "type", msg.Type, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	err = h.notifyChannel.PublishWithContext(
		ctx,
		"",
		"schedule_notify_queue",
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		slog.Error("通知消息发布失败", "type", msg.Type, "to", msg.To, "error", err)
	}
}
