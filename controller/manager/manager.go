package manager

import (
	"context"
	"io/ioutil"
	"sync/atomic"
	"time"

	"github.com/kirsrus/dsmqtt/controller"
	"github.com/kirsrus/dsmqtt/model"
	"github.com/kirsrus/dsmqtt/pkg/tool"
	"github.com/kirsrus/dsmqtt/service"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// RecoverBackoff пауза после сбоя перед новой попыткой подключения
const RecoverBackoff = 20 * time.Second

// ConfigManager конфигурация Manager
type ConfigManager struct {
	Log *logrus.Logger

	Poller       controller.PollerCtl
	Connectivity controller.ConnectivityCtl
	Publisher    controller.PublisherCtl

	TimeSvc service.TimeSvc
	// Страница состояния. Не обязательна
	WebSvc service.WebSvc

	RecoverBackoff time.Duration
	Sleep          tool.Sleeper
}

// Manager супервизор: запускает опрос датчиков и держит цикл
// сеть -> время -> брокер -> публикация, перезапуская его после любого сбоя.
// Инициируется через NewManager
type Manager struct {
	ctx context.Context
	log *logrus.Entry

	poller       controller.PollerCtl
	connectivity controller.ConnectivityCtl
	publisher    controller.PublisherCtl

	timeSvc service.TimeSvc
	webSvc  service.WebSvc

	recoverBackoff time.Duration
	sleep          tool.Sleeper

	state int32
}

// NewManager конструктор Manager
func NewManager(ctx context.Context, config *ConfigManager) (*Manager, error) {
	if config == nil {
		return nil, errors.New("не передана конфигурация")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}
	if config.Poller == nil {
		return nil, errors.New("не передан контроллер опроса датчиков")
	}
	if config.Connectivity == nil {
		return nil, errors.New("не передан контроллер подключения")
	}
	if config.Publisher == nil {
		return nil, errors.New("не передан контроллер публикации")
	}
	if config.TimeSvc == nil {
		return nil, errors.New("не передан сервис времени")
	}

	manager := Manager{
		ctx: ctx,
		log: config.Log.WithFields(map[string]interface{}{
			"module": "manager",
			"scope":  "controller",
		}),
		poller:         config.Poller,
		connectivity:   config.Connectivity,
		publisher:      config.Publisher,
		timeSvc:        config.TimeSvc,
		webSvc:         config.WebSvc,
		recoverBackoff: RecoverBackoff,
		sleep:          tool.Sleep,
		state:          int32(model.StateDisconnected),
	}
	if config.RecoverBackoff != 0 {
		manager.recoverBackoff = config.RecoverBackoff
	}
	if config.Sleep != nil {
		manager.sleep = config.Sleep
	}

	manager.configToLog()

	return &manager, nil
}

// Вывести значения конфигурациии в лог
func (m *Manager) configToLog() {
	m.log.Debugf("recoverBackoff: %s", m.recoverBackoff)
	m.log.Debugf("webSvc: %t", m.webSvc != nil)
}

// State текущее состояние цикла подключения
func (m *Manager) State() model.ConnectionState {
	return model.ConnectionState(atomic.LoadInt32(&m.state))
}

func (m *Manager) setState(state model.ConnectionState) {
	prev := model.ConnectionState(atomic.SwapInt32(&m.state, int32(state)))
	if prev != state {
		m.log.Debugf("состояние %s -> %s", prev, state)
	}
}

// ClientID идентификатор клиента на брокере
func (m *Manager) ClientID() (string, error) {
	return m.connectivity.ClientID()
}

// Serve запуск опроса датчиков, супервизора и страницы состояния. Возврат только
// при завершении контекста
func (m *Manager) Serve() error {
	g := new(errgroup.Group)

	// Опрос датчиков запускается один раз и не перезапускается при сбоях сети
	g.Go(func() error {
		return errors.Trace(m.poller.Serve())
	})

	g.Go(func() error {
		return m.supervise()
	})

	if m.webSvc != nil {
		g.Go(func() error {
			return errors.Trace(m.webSvc.Serve(m))
		})
	}

	return errors.Trace(g.Wait())
}

// Бесконечный цикл попыток с фиксированной паузой после каждого сбоя
func (m *Manager) supervise() error {
	for attempt := uint64(1); ; attempt++ {
		m.log.Infof("попытка подключения %d", attempt)
		err := m.attempt()
		if m.ctx.Err() != nil {
			m.log.Info("завершение работы модуля")
			return nil
		}
		if err == nil {
			err = errors.New("публикация завершилась без ошибки")
		}

		m.setState(model.StateRecovering)
		m.log.Errorf("попытка %d: %v", attempt, err)
		m.log.Debug(errors.ErrorStack(err))
		m.log.Infof("повтор через %s", m.recoverBackoff)
		if err := m.sleep(m.ctx, m.recoverBackoff); err != nil {
			m.log.Info("завершение работы модуля")
			return nil
		}
	}
}

// Одна попытка от подключения к сети до сбоя публикации. Открытая в попытке
// сессия закрывается при любом выходе
func (m *Manager) attempt() (err error) {
	var session service.BrokerSession
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("сбой: %v", r)
		}
		if session != nil {
			session.Close()
		}
	}()

	m.setState(model.StateDisconnected)
	if err := m.connectivity.ConnectNetwork(); err != nil {
		return errors.Annotate(err, "ошибка подключения к сети")
	}
	m.setState(model.StateNetworkUp)

	if err := m.timeSvc.SetTime(); err != nil {
		return errors.Annotate(err, "ошибка синхронизации времени")
	}
	m.setState(model.StateTimeSynced)

	session, err = m.connectivity.ConnectBroker()
	if err != nil {
		return errors.Annotate(err, "ошибка подключения к брокеру")
	}
	m.setState(model.StateBrokerUp)

	m.setState(model.StatePublishing)
	return errors.Annotate(m.publisher.Run(session), "ошибка публикации")
}
