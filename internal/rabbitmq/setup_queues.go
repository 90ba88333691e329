package rabbitmq

// ExchangeNotifications — direct-обменник уведомлений.
const ExchangeNotifications = "notifications"

// Ключи маршрутизации уведомлений.
const (
	RoutingVerification = "verification"
	RoutingLicense      = "license"
)

// QueueConfig описывает очередь и ключ, которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые слушает отправитель писем.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.verification", RoutingKey: RoutingVerification},
		{QueueName: "notifications.license", RoutingKey: RoutingLicense},
	}
}
