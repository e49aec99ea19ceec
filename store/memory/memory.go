package memory

import (
	"io/ioutil"

	"github.com/kirsrus/dsmqtt/model"
	"github.com/kirsrus/dsmqtt/store"

	"github.com/juju/errors"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Memory хранилище показаний в памяти процесса поверх go-cache без истечения срока записей.
// Инициируется через NewMemory
type Memory struct {
	log   *logrus.Entry
	cache *cache.Cache
}

// ConfigMemory конфигурация Memory
type ConfigMemory struct {
	Log *logrus.Logger
}

// NewMemory конструктор Memory
func NewMemory(config *ConfigMemory) (store.ReadingStore, error) {
	if config == nil {
		return nil, errors.New("не указана конфигурация")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}

	return &Memory{
		log: config.Log.WithFields(map[string]interface{}{
			"module": "memory",
			"scope":  "store",
		}),
		cache: cache.New(cache.NoExpiration, 0),
	}, nil
}

// Set сохраняет показание датчика address, замещая предыдущее
func (m Memory) Set(address model.SensorAddress, reading model.Reading) error {
	if address == "" {
		return errors.New("пустой адрес датчика")
	}
	m.cache.Set(string(address), reading, cache.NoExpiration)
	return nil
}

// Get возвращает последнее показание датчика address
func (m Memory) Get(address model.SensorAddress) (model.Reading, bool) {
	value, found := m.cache.Get(string(address))
	if !found {
		return model.Reading{}, false
	}
	reading, ok := value.(model.Reading)
	return reading, ok
}

// Snapshot возвращает копию хранилища, снятую под одной блокировкой
func (m Memory) Snapshot() map[model.SensorAddress]model.Reading {
	items := m.cache.Items()
	res := make(map[model.SensorAddress]model.Reading, len(items))
	for key, item := range items {
		reading, ok := item.Object.(model.Reading)
		if !ok {
			m.log.Warnf("в хранилище по ключу %s лежит %T", key, item.Object)
			continue
		}
		res[model.SensorAddress(key)] = reading
	}
	return res
}

// Len количество датчиков с показаниями
func (m Memory) Len() int {
	return m.cache.ItemCount()
}
