package model

import (
	"fmt"
	"strings"

	"github.com/kirsrus/dsmqtt/pkg/tool"
)

// WlanStatus код состояния беспроводного интерфейса (номера состояний устройства NetworkManager)
type WlanStatus int

const (
	WlanStatusUnknown      WlanStatus = 0
	WlanStatusUnmanaged    WlanStatus = 10
	WlanStatusUnavailable  WlanStatus = 20
	WlanStatusDisconnected WlanStatus = 30
	WlanStatusPrepare      WlanStatus = 40
	WlanStatusConfig       WlanStatus = 50
	WlanStatusNeedAuth     WlanStatus = 60
	WlanStatusIPConfig     WlanStatus = 70
	WlanStatusIPCheck      WlanStatus = 80
	WlanStatusSecondaries  WlanStatus = 90
	WlanStatusActivated    WlanStatus = 100
	WlanStatusDeactivating WlanStatus = 110
	WlanStatusFailed       WlanStatus = 120
)

var wlanStatusNames = map[WlanStatus]string{
	WlanStatusUnknown:      "unknown",
	WlanStatusUnmanaged:    "unmanaged",
	WlanStatusUnavailable:  "unavailable",
	WlanStatusDisconnected: "disconnected",
	WlanStatusPrepare:      "prepare",
	WlanStatusConfig:       "config",
	WlanStatusNeedAuth:     "need-auth",
	WlanStatusIPConfig:     "ip-config",
	WlanStatusIPCheck:      "ip-check",
	WlanStatusSecondaries:  "secondaries",
	WlanStatusActivated:    "activated",
	WlanStatusDeactivating: "deactivating",
	WlanStatusFailed:       "failed",
}

func (m WlanStatus) String() string {
	if name, ok := wlanStatusNames[m]; ok {
		return fmt.Sprintf("%d (%s)", int(m), name)
	}
	return fmt.Sprintf("%d", int(m))
}

// NetworkConfig текущая конфигурация беспроводного интерфейса
type NetworkConfig struct {
	Interface string
	// Аппаратный адрес интерфейса
	MAC []byte
	// Адреса в формате CIDR
	Addrs []string
}

func (m NetworkConfig) String() string {
	return fmt.Sprintf("%s mac=%s addrs=[%s]", m.Interface, tool.BytesToHex(m.MAC, ":"), strings.Join(m.Addrs, ", "))
}
