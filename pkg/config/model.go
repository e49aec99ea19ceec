package config

type (

	// Config конфигурация программы. Имена ключей верхнего уровня и секции mqtt совпадают с config.json прошивки
	Config struct {

		// Имя беспроводной сети
		Ssid string `json:"ssid" yaml:"ssid"`

		// Пароль беспроводной сети
		Password string `json:"password" yaml:"password"`

		// Номер вывода шины 1-Wire
		DsPin int `json:"ds_pin" yaml:"ds_pin" validate:"min=0"`

		// Подключение к MQTT брокеру
		Mqtt Mqtt `json:"mqtt" yaml:"mqtt"`

		// Описание логирования
		Log struct {

			// Путь к файлу лога
			Path string `json:"path" yaml:"path"`

			// Имя файла логирования. Пустое значение - только консоль
			Filename string `json:"filename" yaml:"filename" default:"dsmqtt.log"`

			// Уровень логирования
			Level string `json:"level" yaml:"level" default:"info"`

			// Выводить лог только на консоль
			Console bool `json:"console" yaml:"console"`
		} `json:"log" yaml:"log"`

		// Беспроводной интерфейс
		Wlan struct {

			// Имя сетевого интерфейса
			Interface string `json:"interface" yaml:"interface" default:"wlan0"`
		} `json:"wlan" yaml:"wlan"`

		// Шина 1-Wire в sysfs
		Onewire struct {

			// Каталог устройств шины
			Path string `json:"path" yaml:"path" default:"/sys/bus/w1/devices"`

			// Имя мастера шины
			Master string `json:"master" yaml:"master" default:"w1_bus_master1"`
		} `json:"onewire" yaml:"onewire"`

		// Синхронизация времени
		Ntp struct {

			// NTP сервер
			Host string `json:"host" yaml:"host" default:"pool.ntp.org"`

			// Таймаут запроса (в секундах)
			Timeout uint `json:"timeout" yaml:"timeout" default:"5"`
		} `json:"ntp" yaml:"ntp"`

		// WEB-страница состояния
		Http struct {

			// Порт WEB-сервера. 0 - сервер не запускается
			Port uint `json:"port" yaml:"port"`
		} `json:"http" yaml:"http"`
	}

	// Mqtt настройки брокера
	Mqtt struct {

		// Префикс топиков
		Topic string `json:"topic" yaml:"topic" conform:"trim" validate:"required"`

		// Уровень QoS публикации
		Qos int `json:"qos" yaml:"qos" validate:"min=0,max=2"`

		// Флаг retain публикации
		Retain bool `json:"retain" yaml:"retain"`

		// Адрес брокера. Значения по умолчанию нет
		Server string `json:"server" yaml:"server" conform:"trim"`

		// Порт брокера. 0 - 1883 или 8883 при ssl
		Port uint `json:"port" yaml:"port"`

		User string `json:"user" yaml:"user"`

		Password string `json:"password" yaml:"password"`

		// Интервал keepalive (в секундах)
		Keepalive uint `json:"keepalive" yaml:"keepalive"`

		Ssl bool `json:"ssl" yaml:"ssl"`

		// Чистая сессия
		Clean bool `json:"clean" yaml:"clean"`
	}
)

// Значения прошивки по умолчанию. Задаются до чтения файла, чтобы явные нули в файле
// (qos 0, clean false) не подменялись значениями тегов default
func defaults() Config {
	cfg := Config{
		Ssid:     "OpenWRT",
		Password: "qwerty",
		DsPin:    12,
		Mqtt: Mqtt{
			Topic:     "esp",
			Qos:       1,
			Retain:    false,
			Keepalive: 60,
			Clean:     true,
		},
	}
	return cfg
}
