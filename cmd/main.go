package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/kirsrus/dsmqtt/controller/connectivity"
	"github.com/kirsrus/dsmqtt/controller/manager"
	"github.com/kirsrus/dsmqtt/controller/poller"
	"github.com/kirsrus/dsmqtt/controller/publisher"
	"github.com/kirsrus/dsmqtt/model"
	"github.com/kirsrus/dsmqtt/pkg/config"
	"github.com/kirsrus/dsmqtt/pkg/logger"
	"github.com/kirsrus/dsmqtt/service"
	brokerSvcMod "github.com/kirsrus/dsmqtt/service/broker"
	ntpSvcMod "github.com/kirsrus/dsmqtt/service/ntp"
	oneWireSvcMod "github.com/kirsrus/dsmqtt/service/onewire"
	webSvcMod "github.com/kirsrus/dsmqtt/service/web"
	wlanSvcMod "github.com/kirsrus/dsmqtt/service/wlan"
	memoryStoreMod "github.com/kirsrus/dsmqtt/store/memory"

	"github.com/juju/errors"
	"github.com/k0kubun/pp"
	"github.com/sirupsen/logrus"
)

var (
	cfg *config.Config
	log *logrus.Logger
)

func init() {
	cfg = config.Get()
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log = logger.GetWithConfig(logger.Config{
		Path:    cfg.Log.Path,
		File:    cfg.Log.Filename,
		Level:   level,
		Console: cfg.Log.Console,
	})
	if err := config.LoadErr(); err != nil {
		log.Warnf("используются настройки по умолчанию: %v", err)
	}
	if log.IsLevelEnabled(logrus.DebugLevel) {
		pp.ColoringEnabled = false
		log.Debugf("конфигурация: %s", pp.Sprint(cfg))
	}
}

func main() {

	err := run()
	if err != nil {
		fmt.Printf("ОШИБКА: в процессе работы произошла ошибка: %v\n", err)
		fmt.Printf("Для подробностей смотри лог: %s/%s\n", cfg.Log.Path, cfg.Log.Filename)
		log.Fatal(errors.ErrorStack(err))
	}
}

func run() error {
	// Отлавливаем сигнал завершения работы программы
	chanInterrupt := make(chan os.Signal, 1)
	signal.Notify(chanInterrupt, os.Interrupt)

	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// region Хранилище показаний

	readingStore, err := memoryStoreMod.NewMemory(&memoryStoreMod.ConfigMemory{
		Log: log,
	})
	if err != nil {
		return errors.Trace(err)
	}

	// endregion
	// region Сервисы

	oneWireSvc, err := oneWireSvcMod.NewSysfs(&oneWireSvcMod.ConfigSysfs{
		Log:    log,
		Root:   cfg.Onewire.Path,
		Master: cfg.Onewire.Master,
		Pin:    cfg.DsPin,
	})
	if err != nil {
		return errors.Trace(err)
	}

	wlanSvc, err := wlanSvcMod.NewNmcli(ctx, &wlanSvcMod.ConfigNmcli{
		Log:       log,
		Interface: cfg.Wlan.Interface,
	})
	if err != nil {
		return errors.Trace(err)
	}

	brokerSvc, err := brokerSvcMod.NewMqtt(&brokerSvcMod.ConfigMqtt{
		Log: log,
	})
	if err != nil {
		return errors.Trace(err)
	}

	timeSvc, err := ntpSvcMod.NewNtp(&ntpSvcMod.ConfigNtp{
		Log:     log,
		Host:    cfg.Ntp.Host,
		Timeout: time.Duration(cfg.Ntp.Timeout) * time.Second,
	})
	if err != nil {
		return errors.Trace(err)
	}

	var webSvc service.WebSvc
	if cfg.Http.Port != 0 {
		webSvc, err = webSvcMod.NewWeb(ctx, readingStore, &webSvcMod.ConfigWeb{
			Log:     log,
			WebPort: cfg.Http.Port,
		})
		if err != nil {
			return errors.Trace(err)
		}
	}

	// endregion
	// region Контроллеры

	pollerCtl, err := poller.NewPoller(ctx, oneWireSvc, readingStore, &poller.ConfigPoller{
		Log: log,
	})
	if err != nil {
		return errors.Trace(err)
	}

	connectivityCtl, err := connectivity.NewConnectivity(ctx, wlanSvc, brokerSvc, &connectivity.ConfigConnectivity{
		Log:      log,
		Ssid:     cfg.Ssid,
		Password: cfg.Password,
		Broker: model.BrokerOptions{
			Server:    cfg.Mqtt.Server,
			Port:      cfg.Mqtt.Port,
			User:      cfg.Mqtt.User,
			Password:  cfg.Mqtt.Password,
			Keepalive: cfg.Mqtt.Keepalive,
			Ssl:       cfg.Mqtt.Ssl,
			Clean:     cfg.Mqtt.Clean,
		},
	})
	if err != nil {
		return errors.Trace(err)
	}

	publisherCtl, err := publisher.NewPublisher(ctx, readingStore, &publisher.ConfigPublisher{
		Log:    log,
		Topic:  cfg.Mqtt.Topic,
		QoS:    byte(cfg.Mqtt.Qos),
		Retain: cfg.Mqtt.Retain,
	})
	if err != nil {
		return errors.Trace(err)
	}

	// endregion
	// region Супервизор

	managerCtl, err := manager.NewManager(ctx, &manager.ConfigManager{
		Log:          log,
		Poller:       pollerCtl,
		Connectivity: connectivityCtl,
		Publisher:    publisherCtl,
		TimeSvc:      timeSvc,
		WebSvc:       webSvc,
	})
	if err != nil {
		return errors.Trace(err)
	}

	go func() {
		done <- errors.Trace(managerCtl.Serve())
	}()

	// endregion

	// Процесс завершения работы
	select {
	case err := <-done:
		return errors.Trace(err)
	case <-chanInterrupt:
		log.Info("получена по каналу interrupt команда на завершение работы программы")
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		return nil
	}
}
