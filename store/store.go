package store

import (
	"github.com/kirsrus/dsmqtt/model"
)

// ReadingStore общее хранилище последних показаний датчиков. Пишет в него только опрос датчиков,
// читает и снимает копии публикатор. Все операции потокобезопасны
type ReadingStore interface {
	// Сохраняет показание датчика, замещая предыдущее
	Set(model.SensorAddress, model.Reading) error
	// Возвращает последнее показание. false - по датчику ещё не было ни одного успешного чтения
	Get(model.SensorAddress) (model.Reading, bool)
	// Возвращает независимую копию всего хранилища
	Snapshot() map[model.SensorAddress]model.Reading
	// Количество датчиков с показаниями
	Len() int
}
