package validator

import (
	"net"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Схемы адресов, которые понимает MQTT клиент
var brokerSchemes = map[string]bool{
	"tcp":   true,
	"mqtt":  true,
	"ssl":   true,
	"tls":   true,
	"mqtts": true,
	"ws":    true,
	"wss":   true,
}

// Валидатор адреса MQTT брокера: имя хоста, host:port или URL с поддерживаемой схемой
func validatorBroker(fl validator.FieldLevel) bool {
	address, ok := fl.Field().Interface().(string)
	if !ok || address == "" {
		return false
	}
	if strings.Contains(address, "://") {
		addr, err := url.Parse(address)
		if err != nil {
			return false
		}
		return brokerSchemes[addr.Scheme] && addr.Hostname() != ""
	}
	if strings.ContainsAny(address, " /") {
		return false
	}
	if host, _, err := net.SplitHostPort(address); err == nil {
		return host != ""
	}
	return true
}
