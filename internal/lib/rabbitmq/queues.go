package rabbitmq

import "github.com/magabrotheeeer/parking-manager/internal/config"

// QueueConfig очередь и ключ маршрутизации, которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// NotificationQueues возвращает очереди уведомлений: по контрактам и по восстановлению пароля.
func NotificationQueues(cfg config.RabbitMQ) []QueueConfig {
	return []QueueConfig{
		{QueueName: cfg.AlertQueue, RoutingKey: cfg.AlertRoutingKey},
		{QueueName: cfg.ResetQueue, RoutingKey: cfg.ResetRoutingKey},
	}
}
