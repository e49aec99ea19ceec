package poller

import (
	"context"
	"io/ioutil"
	"time"

	"github.com/kirsrus/dsmqtt/model"
	"github.com/kirsrus/dsmqtt/pkg/tool"
	"github.com/kirsrus/dsmqtt/service"
	"github.com/kirsrus/dsmqtt/store"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
)

const (
	// SettleDelay время преобразования температуры датчиком DS18B20 при 12-битном разрешении
	SettleDelay = 750 * time.Millisecond
	// CycleInterval пауза между циклами опроса
	CycleInterval = 15 * time.Second
)

// Poller опрос датчиков 1-Wire с записью показаний в хранилище. Инициируется через NewPoller.
// Набор датчиков определяется один раз при старте Serve
type Poller struct {
	ctx context.Context
	log *logrus.Entry

	oneWire      service.OneWireSvc
	readingStore store.ReadingStore

	cycleInterval time.Duration
	sleep         tool.Sleeper
	now           func() time.Time
}

// ConfigPoller конфигурация Poller
type ConfigPoller struct {
	Log           *logrus.Logger
	CycleInterval time.Duration
	// Функция ожидания. По умолчанию tool.Sleep
	Sleep tool.Sleeper
}

// NewPoller конструктор Poller
func NewPoller(ctx context.Context, oneWire service.OneWireSvc, readingStore store.ReadingStore, config *ConfigPoller) (*Poller, error) {
	if config == nil {
		return nil, errors.New("не установлен config")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}
	if oneWire == nil {
		return nil, errors.New("не указан драйвер oneWire")
	}
	if readingStore == nil {
		return nil, errors.New("не указано хранилище readingStore")
	}

	poller := Poller{
		ctx: ctx,
		log: config.Log.WithFields(map[string]interface{}{
			"module": "poller",
			"scope":  "controller",
		}),
		oneWire:       oneWire,
		readingStore:  readingStore,
		cycleInterval: CycleInterval,
		sleep:         tool.Sleep,
		now:           time.Now,
	}
	if config.CycleInterval != 0 {
		poller.cycleInterval = config.CycleInterval
	}
	if config.Sleep != nil {
		poller.sleep = config.Sleep
	}
	return &poller, nil
}

// Serve бесконечный опрос датчиков. Ошибки чтения не прерывают цикл; возврат только
// при завершении контекста
func (m *Poller) Serve() error {
	m.log.Info("старт опроса датчиков")
	roms := m.scan()

	for {
		if len(roms) > 0 && !m.cycle(roms) {
			break
		}
		if err := m.sleep(m.ctx, m.cycleInterval); err != nil {
			break
		}
	}
	m.log.Info("завершение работы модуля")
	return nil
}

// Поиск датчиков. Повторный поиск не выполняется. Сбой драйвера означает отсутствие датчиков
func (m *Poller) scan() (roms [][]byte) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Errorf("сбой драйвера при поиске датчиков: %v", r)
			roms = nil
		}
	}()

	roms, err := m.oneWire.Scan()
	if err != nil {
		m.log.Errorf("ошибка поиска датчиков: %v", err)
		return nil
	}
	m.log.Infof("найдено датчиков: %d", len(roms))
	for _, rom := range roms {
		m.log.Debugf("датчик %s", model.NewSensorAddress(rom))
	}
	return roms
}

// Один цикл: преобразование, ожидание, чтение всех датчиков. false - контекст завершён
func (m *Poller) cycle(roms [][]byte) bool {
	if err := m.convert(); err != nil {
		m.log.Warnf("ошибка запуска преобразования: %v", err)
		return true
	}
	if err := m.sleep(m.ctx, SettleDelay); err != nil {
		return false
	}
	for _, rom := range roms {
		m.read(rom)
	}
	return true
}

// Запуск преобразования. Паника драйвера возвращается как ошибка
func (m *Poller) convert() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("сбой драйвера: %v", r)
		}
	}()
	return errors.Trace(m.oneWire.Convert())
}

// Чтение одного датчика. Сбой по одному адресу не затрагивает остальные,
// прежнее показание остаётся в хранилище
func (m *Poller) read(rom []byte) {
	address := model.NewSensorAddress(rom)
	defer func() {
		if r := recover(); r != nil {
			m.log.Errorf("сбой драйвера при чтении датчика %s: %v", address, r)
		}
	}()

	value, err := m.oneWire.Read(rom)
	if err != nil {
		m.log.Warnf("ошибка чтения датчика %s: %v", address, err)
		return
	}
	reading := model.Reading{Value: value, MeasuredAt: m.now()}
	if err := m.readingStore.Set(address, reading); err != nil {
		m.log.Warnf("показание датчика %s не сохранено: %v", address, err)
		return
	}
	m.log.Debugf("датчик %s: %s", address, reading.Payload())
}
