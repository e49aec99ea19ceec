package model

// BrokerOptions параметры сессии с MQTT брокером
type BrokerOptions struct {
	// Адрес брокера: имя хоста, host:port или URL (tcp://, ssl://, ws://)
	Server   string `conform:"trim" validate:"required,broker"`
	Port     uint
	ClientID string `conform:"trim" validate:"required"`
	User     string
	Password string
	// Интервал keepalive в секундах
	Keepalive uint
	Ssl       bool
	Clean     bool
}
