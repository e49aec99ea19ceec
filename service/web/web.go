package web

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"sort"
	"time"

	"github.com/kirsrus/dsmqtt/model"
	"github.com/kirsrus/dsmqtt/pkg/tool"
	"github.com/kirsrus/dsmqtt/service"
	"github.com/kirsrus/dsmqtt/store"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/sirupsen/logrus"
)

const (
	waitRestartStartServer = 10 * time.Second
	shutdownTimeout        = 3 * time.Second
	// Период проверки хранилища для ленты /feed
	feedInterval = time.Second
)

// ConfigWeb конфигурация структуры Web
type ConfigWeb struct {
	Log *logrus.Logger

	WebPort      uint
	FeedInterval time.Duration
}

// Web страница состояния агента. Только чтение. Инициализируется через NewWeb
type Web struct {
	ctx      context.Context
	log      *logrus.Entry
	e        *echo.Echo
	upgrader websocket.Upgrader

	readingStore store.ReadingStore
	status       service.StatusSource

	webPort      uint
	feedInterval time.Duration
}

// ReadingJSON показание датчика в ответах сервера
type ReadingJSON struct {
	Address    model.SensorAddress `json:"address"`
	Value      string              `json:"value"`
	MeasuredAt time.Time           `json:"measured_at"`
}

// StatusJSON состояние агента
type StatusJSON struct {
	State    string `json:"state"`
	ClientID string `json:"client_id,omitempty"`
	Sensors  int    `json:"sensors"`
}

// NewWeb конструктор структуры Web
func NewWeb(ctx context.Context, readingStore store.ReadingStore, config *ConfigWeb) (*Web, error) {
	if config == nil {
		return nil, errors.New("не установлена конфигурация")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}
	if readingStore == nil {
		return nil, errors.New("не передано хранилище показаний")
	}
	if config.WebPort == 0 {
		return nil, errors.New("не задан порт WEB-сервера")
	}

	web := Web{
		ctx: ctx,
		log: config.Log.WithFields(map[string]interface{}{
			"module": "web",
			"scope":  "service",
		}),
		e: echo.New(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		readingStore: readingStore,
		webPort:      config.WebPort,
		feedInterval: feedInterval,
	}
	if config.FeedInterval != 0 {
		web.feedInterval = config.FeedInterval
	}

	web.e.HideBanner = true
	web.e.HidePort = true
	web.e.Use(middleware.Recover())
	web.e.GET("/status", web.handleStatus)
	web.e.GET("/readings", web.handleReadings)
	web.e.GET("/feed", web.handleFeed)

	return &web, nil
}

// Serve запускает HTTP-сервер и перезапускает его при сбоях до завершения контекста
func (m *Web) Serve(status service.StatusSource) error {
	m.status = status

	go func() {
		<-m.ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = m.e.Shutdown(ctx)
	}()

	for {
		m.log.Infof("старт HTTP-сервера на порту :%d", m.webPort)
		err := m.e.Start(fmt.Sprintf(":%d", m.webPort))
		if m.ctx.Err() != nil {
			m.log.Info("завершение работы модуля")
			return nil
		}
		m.log.Errorf("сервер неожиданно завершил работу: %v", err)
		if err := tool.Sleep(m.ctx, waitRestartStartServer); err != nil {
			return nil
		}
	}
}

func (m *Web) handleStatus(c echo.Context) error {
	res := StatusJSON{
		State:   model.StateDisconnected.String(),
		Sensors: m.readingStore.Len(),
	}
	if m.status != nil {
		res.State = m.status.State().String()
		if clientID, err := m.status.ClientID(); err == nil {
			res.ClientID = clientID
		}
	}
	return c.JSON(http.StatusOK, res)
}

func (m *Web) handleReadings(c echo.Context) error {
	return c.JSON(http.StatusOK, readingsJSON(m.readingStore.Snapshot()))
}

// Лента показаний по WebSocket: при подключении и после каждого изменения хранилища отсылается весь список
func (m *Web) handleFeed(c echo.Context) error {
	conn, err := m.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		m.log.Warnf("ошибка открытия WebSocket: %v", err)
		return nil
	}
	defer func() { _ = conn.Close() }()

	// Клиент ничего не присылает, чтение нужно только чтобы заметить закрытие
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(m.feedInterval)
	defer ticker.Stop()

	var sent map[model.SensorAddress]model.Reading
	for {
		snapshot := m.readingStore.Snapshot()
		if sent == nil || changed(sent, snapshot) {
			if err := conn.WriteJSON(readingsJSON(snapshot)); err != nil {
				m.log.Debugf("ошибка записи в WebSocket: %v", err)
				return nil
			}
			sent = snapshot
		}

		select {
		case <-m.ctx.Done():
			return nil
		case <-closed:
			return nil
		case <-ticker.C:
		}
	}
}

func changed(prev, current map[model.SensorAddress]model.Reading) bool {
	if len(prev) != len(current) {
		return true
	}
	for address, reading := range current {
		old, ok := prev[address]
		if !ok || old.Value != reading.Value {
			return true
		}
	}
	return false
}

func readingsJSON(snapshot map[model.SensorAddress]model.Reading) []ReadingJSON {
	res := make([]ReadingJSON, 0, len(snapshot))
	for address, reading := range snapshot {
		res = append(res, ReadingJSON{
			Address:    address,
			Value:      reading.Payload(),
			MeasuredAt: reading.MeasuredAt,
		})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Address < res[j].Address
	})
	return res
}
