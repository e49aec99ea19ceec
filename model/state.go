package model

// ConnectionState состояние цикла подключения супервизора
type ConnectionState int32

const (
	// StateDisconnected нет подключения к сети
	StateDisconnected ConnectionState = iota
	// StateNetworkUp подключение к беспроводной сети установлено
	StateNetworkUp
	// StateTimeSynced системное время синхронизировано
	StateTimeSynced
	// StateBrokerUp сессия с брокером открыта
	StateBrokerUp
	// StatePublishing идёт отправка изменений
	StatePublishing
	// StateRecovering пауза после сбоя перед повтором
	StateRecovering
)

func (m ConnectionState) String() string {
	switch m {
	case StateDisconnected:
		return "disconnected"
	case StateNetworkUp:
		return "network_up"
	case StateTimeSynced:
		return "time_synced"
	case StateBrokerUp:
		return "broker_up"
	case StatePublishing:
		return "publishing"
	case StateRecovering:
		return "recovering"
	}
	return "unknown"
}
