package model

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kirsrus/dsmqtt/pkg/tool"
)

// SensorAddress адрес датчика на шине 1-Wire (ROM-код) в виде шестнадцатеричной строки в верхнем регистре.
// Используется как ключ хранилища и как последний сегмент топика
type SensorAddress string

// NewSensorAddress формирует адрес из ROM-кода датчика
func NewSensorAddress(rom []byte) SensorAddress {
	return SensorAddress(tool.BytesToHex(rom, ""))
}

// Reading показание датчика
type Reading struct {
	// Температура в градусах Цельсия
	Value float64
	// Время получения показания
	MeasuredAt time.Time
}

// Payload строковое представление значения для отправки брокеру: кратчайшая десятичная запись,
// всегда с дробной частью ("22.0", "21.5")
func (m Reading) Payload() string {
	switch {
	case math.IsNaN(m.Value):
		return "nan"
	case math.IsInf(m.Value, 1):
		return "inf"
	case math.IsInf(m.Value, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(m.Value, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
