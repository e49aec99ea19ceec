package service

import (
	"github.com/kirsrus/dsmqtt/model"
)

// OneWireSvc драйвер шины 1-Wire с датчиками температуры семейства DS18x20
//
//go:generate mockery --dir . --name OneWireSvc --output ./mocks
type OneWireSvc interface {
	// Ищет на шине датчики температуры и возвращает их ROM-коды
	Scan() ([][]byte, error)
	// Широковещательная команда начала преобразования температуры всем датчикам
	Convert() error
	// Читает преобразованное значение датчика с ROM-кодом rom
	Read(rom []byte) (float64, error)
}

// WlanSvc беспроводной сетевой интерфейс в режиме станции
//
//go:generate mockery --dir . --name WlanSvc --output ./mocks
type WlanSvc interface {
	// Включает или выключает интерфейс
	Active(bool) error
	// Запускает попытку подключения к сети. Не дожидается её завершения
	Connect(ssid, password string) error
	// Подключён ли интерфейс к сети
	IsConnected() (bool, error)
	// Код текущего состояния интерфейса
	Status() (model.WlanStatus, error)
	// Текущая конфигурация интерфейса
	Config() (*model.NetworkConfig, error)
}

// BrokerSvc фабрика сессий с MQTT брокером
//
//go:generate mockery --dir . --name BrokerSvc --output ./mocks
type BrokerSvc interface {
	// Открывает новую сессию. Каждый вызов создаёт новое подключение
	Connect(model.BrokerOptions) (BrokerSession, error)
}

// BrokerSession открытая сессия с MQTT брокером
//
//go:generate mockery --dir . --name BrokerSession --output ./mocks
type BrokerSession interface {
	// Публикует payload в topic и дожидается подтверждения отправки
	Publish(topic string, payload string, qos byte, retain bool) error
	// Закрывает сессию
	Close()
}

// TimeSvc синхронизация системных часов
//
//go:generate mockery --dir . --name TimeSvc --output ./mocks
type TimeSvc interface {
	// Устанавливает системные часы по точному времени
	SetTime() error
}

// StatusSource источник состояния для страницы состояния
type StatusSource interface {
	// Текущее состояние цикла подключения
	State() model.ConnectionState
	// Идентификатор клиента на брокере
	ClientID() (string, error)
}

// WebSvc WEB-страница состояния агента
type WebSvc interface {
	// Запускает HTTP-сервер. Блокируется до завершения контекста
	Serve(StatusSource) error
}
