package connectivity

import (
	"context"
	"io/ioutil"
	"time"

	"github.com/kirsrus/dsmqtt/model"
	"github.com/kirsrus/dsmqtt/pkg/tool"
	"github.com/kirsrus/dsmqtt/pkg/validator"
	"github.com/kirsrus/dsmqtt/service"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
)

const (
	// StatusPollInterval период проверки состояния беспроводного интерфейса при подключении
	StatusPollInterval = 500 * time.Millisecond
	// ClientIDPrefix префикс идентификатора клиента на брокере
	ClientIDPrefix = "ESP_"
)

// Connectivity подключение к беспроводной сети и MQTT брокеру. Инициируется через NewConnectivity
type Connectivity struct {
	ctx       context.Context
	log       *logrus.Entry
	validator *validator.Validator

	wlanSvc   service.WlanSvc
	brokerSvc service.BrokerSvc

	ssid     string
	password string
	broker   model.BrokerOptions

	onConnect          func(service.BrokerSession)
	statusPollInterval time.Duration
	sleep              tool.Sleeper
}

// ConfigConnectivity конфигурация Connectivity
type ConfigConnectivity struct {
	Log *logrus.Logger

	Ssid     string
	Password string
	// Параметры брокера. ClientID формируется из MAC адреса
	Broker model.BrokerOptions

	// Вызывается один раз на каждую открытую сессию с брокером
	OnConnect          func(service.BrokerSession)
	StatusPollInterval time.Duration
	Sleep              tool.Sleeper
}

// NewConnectivity конструктор Connectivity
func NewConnectivity(ctx context.Context, wlanSvc service.WlanSvc, brokerSvc service.BrokerSvc, config *ConfigConnectivity) (*Connectivity, error) {
	if config == nil {
		return nil, errors.New("не установлен config")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}
	if wlanSvc == nil {
		return nil, errors.New("не указан сервис wlanSvc")
	}
	if brokerSvc == nil {
		return nil, errors.New("не указан сервис brokerSvc")
	}

	res := Connectivity{
		ctx: ctx,
		log: config.Log.WithFields(map[string]interface{}{
			"module": "connectivity",
			"scope":  "controller",
		}),
		validator:          validator.Get(),
		wlanSvc:            wlanSvc,
		brokerSvc:          brokerSvc,
		ssid:               config.Ssid,
		password:           config.Password,
		broker:             config.Broker,
		statusPollInterval: StatusPollInterval,
		sleep:              tool.Sleep,
	}
	res.onConnect = res.logConnected
	if config.OnConnect != nil {
		res.onConnect = config.OnConnect
	}
	if config.StatusPollInterval != 0 {
		res.statusPollInterval = config.StatusPollInterval
	}
	if config.Sleep != nil {
		res.sleep = config.Sleep
	}
	return &res, nil
}

func (m *Connectivity) logConnected(service.BrokerSession) {
	m.log.Info("подключение к брокеру установлено")
}

// ConnectNetwork дожидается подключения к беспроводной сети. Ограничения по времени нет,
// ожидание прерывает только завершение контекста
func (m *Connectivity) ConnectNetwork() error {
	m.log.Info("проверка подключения к сети")
	if err := m.wlanSvc.Active(true); err != nil {
		return errors.Annotate(err, "ошибка включения беспроводного интерфейса")
	}
	connected, err := m.wlanSvc.IsConnected()
	if err != nil {
		return errors.Trace(err)
	}

	if !connected {
		m.log.Infof("подключение к WIFI %s", m.ssid)
		if err := m.wlanSvc.Connect(m.ssid, m.password); err != nil {
			return errors.Annotatef(err, "ошибка подключения к %s", m.ssid)
		}
		status := model.WlanStatus(-1)
		for {
			connected, err = m.wlanSvc.IsConnected()
			if err != nil {
				m.log.Debugf("состояние подключения недоступно: %v", err)
			} else if connected {
				break
			}
			if current, err := m.wlanSvc.Status(); err != nil {
				m.log.Debugf("состояние интерфейса недоступно: %v", err)
			} else if current != status {
				status = current
				m.log.Infof("состояние: %s", status)
			}
			if err := m.sleep(m.ctx, m.statusPollInterval); err != nil {
				return errors.Trace(err)
			}
		}
	}

	netConfig, err := m.wlanSvc.Config()
	if err != nil {
		m.log.Warnf("подключено к сети, конфигурация недоступна: %v", err)
		return nil
	}
	m.log.Infof("подключено к сети %s", netConfig)
	return nil
}

// ClientID идентификатор клиента: ESP_ и MAC адрес беспроводного интерфейса
func (m *Connectivity) ClientID() (string, error) {
	netConfig, err := m.wlanSvc.Config()
	if err != nil {
		return "", errors.Trace(err)
	}
	if len(netConfig.MAC) == 0 {
		return "", errors.Errorf("у интерфейса %s нет MAC адреса", netConfig.Interface)
	}
	return ClientIDPrefix + tool.BytesToHex(netConfig.MAC, ""), nil
}

// ConnectBroker открывает новую сессию с брокером
func (m *Connectivity) ConnectBroker() (service.BrokerSession, error) {
	clientID, err := m.ClientID()
	if err != nil {
		return nil, errors.Annotate(err, "не удалось получить идентификатор клиента")
	}
	opts := m.broker
	opts.ClientID = clientID
	if err := m.validator.Validate(&opts); err != nil {
		return nil, errors.Annotate(err, "некорректные параметры брокера")
	}

	m.log.Infof("подключение к брокеру %s как %s", opts.Server, opts.ClientID)
	session, err := m.brokerSvc.Connect(opts)
	if err != nil {
		return nil, errors.Annotatef(err, "ошибка подключения к брокеру %s", opts.Server)
	}
	m.onConnect(session)
	return session, nil
}
