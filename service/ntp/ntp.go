package ntp

import (
	"io/ioutil"
	"time"

	"github.com/kirsrus/dsmqtt/service"

	"github.com/beevik/ntp"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
)

const (
	ntpHost      = "pool.ntp.org"
	queryTimeout = 5 * time.Second
)

// Ntp установка системных часов по NTP серверу. Инициируется через NewNtp
type Ntp struct {
	log     *logrus.Entry
	host    string
	timeout time.Duration

	query    func(host string, opt ntp.QueryOptions) (*ntp.Response, error)
	setClock func(time.Time) error
	now      func() time.Time
}

// ConfigNtp конфигурация Ntp
type ConfigNtp struct {
	Log     *logrus.Logger
	Host    string
	Timeout time.Duration
}

// NewNtp конструктор Ntp
func NewNtp(config *ConfigNtp) (service.TimeSvc, error) {
	if config == nil {
		return nil, errors.New("не задана конфигурация config")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}

	res := &Ntp{
		host:     ntpHost,
		timeout:  queryTimeout,
		query:    ntp.QueryWithOptions,
		setClock: setSystemClock,
		now:      time.Now,
	}
	if config.Host != "" {
		res.host = config.Host
	}
	if config.Timeout != 0 {
		res.timeout = config.Timeout
	}
	res.log = config.Log.WithFields(map[string]interface{}{
		"module": "ntp",
		"scope":  "service",
		"host":   res.host,
	})
	return res, nil
}

// SetTime запрашивает точное время и устанавливает системные часы
func (m *Ntp) SetTime() error {
	resp, err := m.query(m.host, ntp.QueryOptions{Timeout: m.timeout})
	if err != nil {
		return errors.Annotatef(err, "ошибка запроса времени у %s", m.host)
	}
	if err := resp.Validate(); err != nil {
		return errors.Annotatef(err, "некорректный ответ %s", m.host)
	}

	now := m.now().Add(resp.ClockOffset)
	if err := m.setClock(now); err != nil {
		return errors.Annotate(err, "ошибка установки системного времени")
	}
	m.log.Infof("системное время установлено: %s (смещение %s)", now.Format("2006.01.02 15:04:05"), resp.ClockOffset)
	return nil
}
