package config

import (
	"os"
	"sync"

	"github.com/kirsrus/dsmqtt/pkg/validator"

	"github.com/jinzhu/configor"
	"github.com/juju/errors"
)

var (
	config  Config
	loadErr error
	once    sync.Once
)

const (
	FileName = "config.json"
	// Переменная окружения с альтернативным путём к файлу конфигурации
	EnvFileName = "DSMQTT_CONFIG"
)

// Get единожды читает и возвращает конфигурацию
func Get() *Config {
	filepath := FileName
	if env := os.Getenv(EnvFileName); env != "" {
		filepath = env
	}
	return GetWithPath(filepath)
}

// GetWithPath единожды читает и возвращает конфигурацию. Если файл недоступен или некорректен,
// используются значения по умолчанию, а причина доступна через LoadErr
func GetWithPath(filepath string) *Config {
	once.Do(func() {
		config, loadErr = Load(filepath)
	})
	return &config
}

// LoadErr ошибка чтения файла конфигурации при первом вызове Get. nil - файл прочитан
func LoadErr() error {
	return loadErr
}

// Load читает конфигурацию из filepath. Всегда возвращает пригодную конфигурацию; ошибка
// означает, что вместо содержимого файла взяты значения по умолчанию
func Load(filepath string) (Config, error) {
	if _, err := os.Stat(filepath); err != nil {
		return fallback(), errors.Annotate(err, "файл конфигурации недоступен")
	}
	cfg := defaults()
	if err := configor.Load(&cfg, filepath); err != nil {
		return fallback(), errors.Annotatef(err, "ошибка чтения файла конфигурации %s", filepath)
	}
	if err := validator.Get().Validate(&cfg); err != nil {
		return fallback(), errors.Annotatef(err, "некорректные значения в файле конфигурации %s", filepath)
	}
	return cfg, nil
}

// Конфигурация только из значений по умолчанию
func fallback() Config {
	cfg := defaults()
	_ = configor.Load(&cfg)
	return cfg
}
