package publisher

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

// SampleInterval пауза между снимками хранилища
const SampleInterval = 10 * time.Second

// Publisher отправка на брокер изменившихся за интервал показаний. Инициируется через NewPublisher
type Publisher struct {
	ctx context.Context
	log *logrus.Entry

	readingStore store.ReadingStore

	topic          string
	qos            byte
	retain         bool
	sampleInterval time.Duration
	sleep          tool.Sleeper
}

// ConfigPublisher конфигурация Publisher
type ConfigPublisher struct {
	Log *logrus.Logger

	// Базовый топик. Показание датчика уходит в <Topic>/<адрес>
	Topic          string
	QoS            byte
	Retain         bool
	SampleInterval time.Duration
	Sleep          tool.Sleeper
}

// NewPublisher конструктор Publisher
func NewPublisher(ctx context.Context, readingStore store.ReadingStore, config *ConfigPublisher) (*Publisher, error) {
	if config == nil {
		return nil, errors.New("не установлен config")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}
	if readingStore == nil {
		return nil, errors.New("не указано хранилище readingStore")
	}
	if config.QoS > 2 {
		return nil, errors.Errorf("недопустимый qos %d", config.QoS)
	}

	res := Publisher{
		ctx: ctx,
		log: config.Log.WithFields(map[string]interface{}{
			"module": "publisher",
			"scope":  "controller",
		}),
		readingStore:   readingStore,
		topic:          config.Topic,
		qos:            config.QoS,
		retain:         config.Retain,
		sampleInterval: SampleInterval,
		sleep:          tool.Sleep,
	}
	if config.SampleInterval != 0 {
		res.sampleInterval = config.SampleInterval
	}
	if config.Sleep != nil {
		res.sleep = config.Sleep
	}
	return &res, nil
}

// Topic топик показаний датчика: префикс из конфигурации без изменений, "/" и адрес
func (m *Publisher) Topic(address model.SensorAddress) string {
	return m.topic + "/" + string(address)
}

// Run публикует новые и изменившиеся показания через session. Возвращает ошибку
// при первом сбое публикации или при завершении контекста
func (m *Publisher) Run(session service.BrokerSession) error {
	if session == nil {
		return errors.New("нет сессии с брокером")
	}
	m.log.Info("старт публикации показаний")

	for {
		prev := m.readingStore.Snapshot()
		if err := m.sleep(m.ctx, m.sampleInterval); err != nil {
			return errors.Trace(err)
		}
		current := m.readingStore.Snapshot()
		for address, reading := range current {
			if old, ok := prev[address]; ok && old.Value == reading.Value {
				continue
			}
			topic := m.Topic(address)
			payload := reading.Payload()
			if err := session.Publish(topic, payload, m.qos, m.retain); err != nil {
				return errors.Annotatef(err, "ошибка публикации %s", topic)
			}
			m.log.Debugf("опубликовано %s: %s", topic, payload)
		}
	}
}
