package wlan

import (
	"context"
	"io/ioutil"
	"net"
	"os/exec"
	"strconv"
	"strings"

	"github.com/kirsrus/dsmqtt/model"
	"github.com/kirsrus/dsmqtt/service"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
)

const (
	wlanInterface = "wlan0"
	nmcliBinary   = "nmcli"
)

// Runner выполняет внешнюю команду и возвращает её объединённый вывод
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Nmcli беспроводной интерфейс под управлением NetworkManager. Инициируется через NewNmcli
type Nmcli struct {
	ctx   context.Context
	log   *logrus.Entry
	iface string
	run   Runner

	lookup func(string) (net.HardwareAddr, []net.Addr, error)
}

// ConfigNmcli конфигурация Nmcli
type ConfigNmcli struct {
	Log       *logrus.Logger
	Interface string
	// Исполнитель команд. По умолчанию os/exec
	Runner Runner
}

// NewNmcli конструктор Nmcli
func NewNmcli(ctx context.Context, config *ConfigNmcli) (service.WlanSvc, error) {
	if config == nil {
		return nil, errors.New("не задана конфигурация config")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}

	res := &Nmcli{
		ctx:    ctx,
		iface:  wlanInterface,
		run:    execRunner,
		lookup: lookupInterface,
	}
	if config.Interface != "" {
		res.iface = config.Interface
	}
	if config.Runner != nil {
		res.run = config.Runner
	}
	res.log = config.Log.WithFields(map[string]interface{}{
		"module":    "wlan",
		"scope":     "service",
		"interface": res.iface,
	})
	return res, nil
}

// Active включает или выключает радиомодуль wifi
func (m *Nmcli) Active(on bool) error {
	state := "off"
	if on {
		state = "on"
	}
	out, err := m.run(m.ctx, nmcliBinary, "radio", "wifi", state)
	if err != nil {
		return errors.Annotatef(err, "nmcli radio wifi %s: %s", state, strings.TrimSpace(string(out)))
	}
	return nil
}

// Connect запускает подключение к сети ssid в фоне. Результат отслеживается через Status и IsConnected
func (m *Nmcli) Connect(ssid, password string) error {
	if ssid == "" {
		return errors.New("не задано имя сети")
	}
	args := []string{"device", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	args = append(args, "ifname", m.iface)

	go func() {
		out, err := m.run(m.ctx, nmcliBinary, args...)
		if err != nil && m.ctx.Err() == nil {
			m.log.Warnf("попытка подключения к %s не удалась: %v: %s", ssid, err, strings.TrimSpace(string(out)))
			return
		}
		m.log.Debugf("nmcli: %s", strings.TrimSpace(string(out)))
	}()
	return nil
}

// IsConnected интерфейс в состоянии activated
func (m *Nmcli) IsConnected() (bool, error) {
	status, err := m.Status()
	if err != nil {
		return false, errors.Trace(err)
	}
	return status == model.WlanStatusActivated, nil
}

// Status код состояния устройства NetworkManager
func (m *Nmcli) Status() (model.WlanStatus, error) {
	out, err := m.run(m.ctx, nmcliBinary, "-g", "GENERAL.STATE", "device", "show", m.iface)
	if err != nil {
		return model.WlanStatusUnknown, errors.Annotatef(err, "nmcli device show %s: %s", m.iface, strings.TrimSpace(string(out)))
	}
	return ParseState(string(out))
}

// Config аппаратный адрес и адреса интерфейса
func (m *Nmcli) Config() (*model.NetworkConfig, error) {
	mac, addrs, err := m.lookup(m.iface)
	if err != nil {
		return nil, errors.Trace(err)
	}
	res := model.NetworkConfig{
		Interface: m.iface,
		MAC:       []byte(mac),
		Addrs:     make([]string, 0, len(addrs)),
	}
	for _, addr := range addrs {
		res.Addrs = append(res.Addrs, addr.String())
	}
	return &res, nil
}

func lookupInterface(name string) (net.HardwareAddr, []net.Addr, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, nil, errors.Annotatef(err, "интерфейс %s не найден", name)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, nil, errors.Annotatef(err, "ошибка получения адресов %s", name)
	}
	return iface.HardwareAddr, addrs, nil
}

// ParseState разбирает значение GENERAL.STATE вида "100 (connected)"
func ParseState(out string) (model.WlanStatus, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return model.WlanStatusUnknown, errors.New("пустой ответ nmcli")
	}
	code, err := strconv.Atoi(fields[0])
	if err != nil {
		return model.WlanStatusUnknown, errors.Errorf("некорректное состояние устройства \"%s\"", strings.TrimSpace(out))
	}
	return model.WlanStatus(code), nil
}
