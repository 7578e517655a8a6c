package rabbitmq

// NotificationsExchange — обменник уведомлений приложения.
const NotificationsExchange = "notifications"

// PriceChangedRoutingKey — ключ маршрутизации событий изменения цены.
const PriceChangedRoutingKey = "price.changed"

// QueueConfig описывает очередь и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди уведомлений приложения.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.pricechange", RoutingKey: PriceChangedRoutingKey},
	}
}
