package broker

import (
	"crypto/tls"
	"fmt"
	"io/ioutil"
	"strings"
	"time"

	"github.com/kirsrus/dsmqtt/model"
	"github.com/kirsrus/dsmqtt/pkg/validator"
	"github.com/kirsrus/dsmqtt/service"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
)

const (
	portPlain = 1883
	portTLS   = 8883

	connectTimeout    = 30 * time.Second
	writeTimeout      = 20 * time.Second
	disconnectQuiesce = 250 // мс
)

// Mqtt фабрика сессий MQTT на клиенте paho. Инициируется через NewMqtt
type Mqtt struct {
	log            *logrus.Entry
	validator      *validator.Validator
	connectTimeout time.Duration
	writeTimeout   time.Duration

	newClient func(*mqtt.ClientOptions) mqtt.Client
}

// ConfigMqtt конфигурация Mqtt
type ConfigMqtt struct {
	Log            *logrus.Logger
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
}

// NewMqtt конструктор Mqtt
func NewMqtt(config *ConfigMqtt) (service.BrokerSvc, error) {
	if config == nil {
		return nil, errors.New("не задана конфигурация config")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}

	res := &Mqtt{
		log: config.Log.WithFields(map[string]interface{}{
			"module": "mqtt",
			"scope":  "service",
		}),
		validator:      validator.Get(),
		connectTimeout: connectTimeout,
		writeTimeout:   writeTimeout,
		newClient:      mqtt.NewClient,
	}
	if config.ConnectTimeout != 0 {
		res.connectTimeout = config.ConnectTimeout
	}
	if config.WriteTimeout != 0 {
		res.writeTimeout = config.WriteTimeout
	}
	return res, nil
}

// Connect открывает новую сессию с брокером. Автоматическое переподключение отключено:
// потеря сессии проявляется ошибкой публикации и обрабатывается вызывающим
func (m *Mqtt) Connect(opts model.BrokerOptions) (service.BrokerSession, error) {
	if err := m.validator.Validate(&opts); err != nil {
		return nil, errors.Annotate(err, "некорректные параметры брокера")
	}

	client := m.newClient(m.clientOptions(opts))
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, errors.Annotatef(err, "ошибка подключения к %s", BrokerURL(opts))
	}

	return &Session{
		client: client,
		log: m.log.WithFields(map[string]interface{}{
			"client_id": opts.ClientID,
		}),
		writeTimeout: m.writeTimeout,
	}, nil
}

func (m *Mqtt) clientOptions(opts model.BrokerOptions) *mqtt.ClientOptions {
	log := m.log.WithField("client_id", opts.ClientID)

	o := mqtt.NewClientOptions()
	o.AddBroker(BrokerURL(opts))
	o.SetClientID(opts.ClientID)
	if opts.User != "" {
		o.SetUsername(opts.User)
		o.SetPassword(opts.Password)
	}
	o.SetKeepAlive(time.Duration(opts.Keepalive) * time.Second)
	o.SetCleanSession(opts.Clean)
	o.SetAutoReconnect(false)
	o.SetConnectRetry(false)
	o.SetConnectTimeout(m.connectTimeout)
	o.SetWriteTimeout(m.writeTimeout)
	if opts.Ssl {
		o.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	o.SetOnConnectHandler(func(mqtt.Client) {
		log.Debug("сессия MQTT открыта")
	})
	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warnf("соединение с брокером потеряно: %v", err)
	})
	return o
}

// BrokerURL адрес брокера для клиента paho. Имя хоста дополняется схемой и портом
func BrokerURL(opts model.BrokerOptions) string {
	server := strings.TrimSpace(opts.Server)
	if strings.Contains(server, "://") {
		return server
	}
	scheme := "tcp"
	port := opts.Port
	if opts.Ssl {
		scheme = "ssl"
	}
	if port == 0 {
		port = portPlain
		if opts.Ssl {
			port = portTLS
		}
	}
	if strings.Contains(server, ":") {
		return fmt.Sprintf("%s://%s", scheme, server)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, server, port)
}

// Session открытая сессия MQTT
type Session struct {
	client       mqtt.Client
	log          *logrus.Entry
	writeTimeout time.Duration
}

// Publish публикует payload и дожидается завершения отправки
func (m *Session) Publish(topic string, payload string, qos byte, retain bool) error {
	if !m.client.IsConnectionOpen() {
		return errors.Errorf("нет соединения с брокером для публикации в %s", topic)
	}
	token := m.client.Publish(topic, qos, retain, payload)
	if !token.WaitTimeout(m.writeTimeout) {
		return errors.Errorf("таймаут публикации в %s", topic)
	}
	if err := token.Error(); err != nil {
		return errors.Annotatef(err, "ошибка публикации в %s", topic)
	}
	m.log.Debugf("опубликовано %s = %s", topic, payload)
	return nil
}

// Close закрывает сессию
func (m *Session) Close() {
	if m.client.IsConnected() {
		m.client.Disconnect(disconnectQuiesce)
	}
}
