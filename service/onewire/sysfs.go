package onewire

import (
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/kirsrus/dsmqtt/pkg/tool"
	"github.com/kirsrus/dsmqtt/service"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
)

const (
	devicesPath = "/sys/bus/w1/devices"
	busMaster   = "w1_bus_master1"

	slavesFile   = "w1_master_slaves"
	bulkReadFile = "therm_bulk_read"
	slaveFile    = "w1_slave"

	romLength = 8
)

// Коды семейств датчиков температуры DS18S20, DS1822, DS18B20, DS1825, DS28EA00
var thermFamilies = map[byte]bool{
	0x10: true,
	0x22: true,
	0x28: true,
	0x3B: true,
	0x42: true,
}

var (
	reCrc         = regexp.MustCompile(`crc=[0-9a-fA-F]{2} YES`)
	reTemperature = regexp.MustCompile(`t=(-?\d+)`)
)

// Sysfs драйвер шины 1-Wire через интерфейс w1 ядра Linux. Инициируется через NewSysfs
type Sysfs struct {
	log    *logrus.Entry
	root   string
	master string
	pin    int
}

// ConfigSysfs конфигурация Sysfs
type ConfigSysfs struct {
	Log *logrus.Logger
	// Каталог устройств шины
	Root string
	// Имя мастера шины
	Master string
	// Номер вывода, на котором поднята шина (overlay w1-gpio)
	Pin int
}

// NewSysfs конструктор Sysfs
func NewSysfs(config *ConfigSysfs) (service.OneWireSvc, error) {
	if config == nil {
		return nil, errors.New("не задана конфигурация config")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}

	res := &Sysfs{
		log: config.Log.WithFields(map[string]interface{}{
			"module": "onewire",
			"scope":  "service",
			"pin":    config.Pin,
		}),
		root:   devicesPath,
		master: busMaster,
		pin:    config.Pin,
	}
	if config.Root != "" {
		res.root = config.Root
	}
	if config.Master != "" {
		res.master = config.Master
	}
	return res, nil
}

// Scan ищет датчики температуры среди устройств мастера шины
func (m Sysfs) Scan() ([][]byte, error) {
	data, err := ioutil.ReadFile(filepath.Join(m.root, m.master, slavesFile))
	if err != nil {
		return nil, errors.Annotatef(err, "шина 1-Wire на выводе %d недоступна", m.pin)
	}

	roms := make([][]byte, 0)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "not found." {
			continue
		}
		rom, err := ParseSlaveID(line)
		if err != nil {
			m.log.Warnf("пропущено устройство %s: %v", line, err)
			continue
		}
		if !thermFamilies[rom[0]] {
			m.log.Debugf("пропущено устройство %s семейства %#02x", line, rom[0])
			continue
		}
		roms = append(roms, rom)
	}
	return roms, nil
}

// Convert запускает преобразование на всех датчиках шины. Если ядро не поддерживает
// групповое преобразование, датчик преобразует значение при чтении
func (m Sysfs) Convert() error {
	path := filepath.Join(m.root, m.master, bulkReadFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := ioutil.WriteFile(path, []byte("trigger\n"), 0644); err != nil {
		return errors.Annotate(err, "ошибка запуска преобразования")
	}
	return nil
}

// Read читает температуру датчика rom
func (m Sysfs) Read(rom []byte) (float64, error) {
	id, err := SlaveID(rom)
	if err != nil {
		return 0, errors.Trace(err)
	}
	data, err := ioutil.ReadFile(filepath.Join(m.root, id, slaveFile))
	if err != nil {
		return 0, errors.Annotatef(err, "ошибка чтения датчика %s", id)
	}
	value, err := ParseSlave(data)
	if err != nil {
		return 0, errors.Annotatef(err, "датчик %s", id)
	}
	return value, nil
}

// ParseSlaveID восстанавливает ROM-код по имени устройства в sysfs ("28-0316a2790aff").
// Ядро выводит 48-битный серийный номер старшим байтом вперёд, в ROM-коде он лежит младшим вперёд
func ParseSlaveID(id string) ([]byte, error) {
	parts := strings.SplitN(id, "-", 2)
	if len(parts) != 2 {
		return nil, errors.Errorf("некорректное имя устройства \"%s\"", id)
	}
	family, err := strconv.ParseUint(parts[0], 16, 8)
	if err != nil {
		return nil, errors.Errorf("некорректное семейство устройства \"%s\"", id)
	}
	serial, err := hex.DecodeString(parts[1])
	if err != nil || len(serial) != romLength-2 {
		return nil, errors.Errorf("некорректный серийный номер устройства \"%s\"", id)
	}

	rom := make([]byte, 0, romLength)
	rom = append(rom, byte(family))
	for i := len(serial) - 1; i >= 0; i-- {
		rom = append(rom, serial[i])
	}
	rom = append(rom, tool.CRC8(rom))
	return rom, nil
}

// SlaveID имя устройства в sysfs для ROM-кода rom
func SlaveID(rom []byte) (string, error) {
	if len(rom) != romLength {
		return "", errors.Errorf("некорректная длина ROM-кода %d", len(rom))
	}
	if tool.CRC8(rom[:romLength-1]) != rom[romLength-1] {
		return "", errors.Errorf("ошибка CRC ROM-кода %s", tool.BytesToHex(rom, ""))
	}
	serial := make([]byte, 0, romLength-2)
	for i := romLength - 2; i >= 1; i-- {
		serial = append(serial, rom[i])
	}
	return fmt.Sprintf("%02x-%s", rom[0], hex.EncodeToString(serial)), nil
}

// ParseSlave разбирает содержимое w1_slave:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
func ParseSlave(data []byte) (float64, error) {
	if !reCrc.Match(data) {
		return 0, errors.New("ошибка CRC данных датчика")
	}
	match := reTemperature.FindSubmatch(data)
	if len(match) == 0 {
		return 0, errors.New("в ответе датчика нет температуры")
	}
	milli, err := strconv.ParseInt(string(match[1]), 10, 64)
	if err != nil {
		return 0, errors.Annotate(err, "некорректное значение температуры")
	}
	return float64(milli) / 1000, nil
}
