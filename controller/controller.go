package controller

import (
	"github.com/kirsrus/dsmqtt/service"
)

// PollerCtl периодический опрос датчиков
type PollerCtl interface {
	// Бесконечно опрашивает датчики до завершения контекста
	Serve() error
}

// ConnectivityCtl подключение к сети и брокеру
type ConnectivityCtl interface {
	// Ожидает подключения к беспроводной сети
	ConnectNetwork() error
	// Открывает новую сессию с брокером
	ConnectBroker() (service.BrokerSession, error)
	// Идентификатор клиента на брокере
	ClientID() (string, error)
}

// PublisherCtl отправка изменившихся показаний
type PublisherCtl interface {
	// Публикует изменения через session, пока публикация не завершится ошибкой
	Run(session service.BrokerSession) error
}
