package manager

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirsrus/dsmqtt/model"
	"github.com/kirsrus/dsmqtt/service"
	"github.com/kirsrus/dsmqtt/service/mocks"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Журнал вызовов вида "стадия@состояние"
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(format string, args ...interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, fmt.Sprintf(format, args...))
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

type fakePoller struct {
	ctx   context.Context
	calls int32
}

func (f *fakePoller) Serve() error {
	atomic.AddInt32(&f.calls, 1)
	<-f.ctx.Done()
	return nil
}

// Подключение: результат каждой попытки задаётся очередью ошибок
type fakeConnectivity struct {
	m          *Manager
	j          *journal
	networkErr []error
	brokerErr  []error
	panicOn    int
	networks   int
	session    service.BrokerSession
}

func (f *fakeConnectivity) ConnectNetwork() error {
	f.networks++
	f.j.add("network@%s", f.m.State())
	if f.panicOn == f.networks {
		panic("wlan driver")
	}
	return pop(&f.networkErr)
}

func (f *fakeConnectivity) ConnectBroker() (service.BrokerSession, error) {
	f.j.add("broker@%s", f.m.State())
	if err := pop(&f.brokerErr); err != nil {
		return nil, err
	}
	return f.session, nil
}

func (f *fakeConnectivity) ClientID() (string, error) {
	return "ESP_240AC40001FF", nil
}

type fakePublisher struct {
	m      *Manager
	j      *journal
	runErr []error
}

func (f *fakePublisher) Run(session service.BrokerSession) error {
	f.j.add("run@%s", f.m.State())
	if session == nil {
		return errors.New("нет сессии")
	}
	return pop(&f.runErr)
}

func pop(queue *[]error) error {
	if len(*queue) == 0 {
		return nil
	}
	err := (*queue)[0]
	*queue = (*queue)[1:]
	return err
}

type fakeClock struct {
	j      *journal
	m      *Manager
	limit  int
	sleeps int
	cancel context.CancelFunc
}

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	c.sleeps++
	c.j.add("sleep %s@%s", d, c.m.State())
	if c.sleeps >= c.limit {
		c.cancel()
	}
	return ctx.Err()
}

type fixture struct {
	manager      *Manager
	journal      *journal
	connectivity *fakeConnectivity
	publisher    *fakePublisher
	poller       *fakePoller
	timeSvc      *mocks.TimeSvc
	session      *mocks.BrokerSession
	clock        *fakeClock
}

func newFixture(t *testing.T, sleepLimit int) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	j := &journal{}
	session := &mocks.BrokerSession{}
	session.On("Close").Run(func(mock.Arguments) { j.add("close") }).Return()

	f := &fixture{
		journal:      j,
		connectivity: &fakeConnectivity{j: j, session: session},
		publisher:    &fakePublisher{j: j},
		poller:       &fakePoller{ctx: ctx},
		timeSvc:      &mocks.TimeSvc{},
		session:      session,
		clock:        &fakeClock{j: j, limit: sleepLimit, cancel: cancel},
	}

	manager, err := NewManager(ctx, &ConfigManager{
		Poller:       f.poller,
		Connectivity: f.connectivity,
		Publisher:    f.publisher,
		TimeSvc:      f.timeSvc,
		Sleep:        f.clock.sleep,
	})
	require.NoError(t, err)

	f.manager = manager
	f.connectivity.m = manager
	f.publisher.m = manager
	f.clock.m = manager
	return f
}

func TestNewManager(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		config  *ConfigManager
		wantErr bool
	}{
		{
			name: "корректный",
			config: &ConfigManager{
				Poller:       &fakePoller{ctx: ctx},
				Connectivity: &fakeConnectivity{},
				Publisher:    &fakePublisher{},
				TimeSvc:      &mocks.TimeSvc{},
			},
		},
		{name: "без конфигурации", config: nil, wantErr: true},
		{
			name: "без опроса датчиков",
			config: &ConfigManager{
				Connectivity: &fakeConnectivity{},
				Publisher:    &fakePublisher{},
				TimeSvc:      &mocks.TimeSvc{},
			},
			wantErr: true,
		},
		{
			name: "без сервиса времени",
			config: &ConfigManager{
				Poller:       &fakePoller{ctx: ctx},
				Connectivity: &fakeConnectivity{},
				Publisher:    &fakePublisher{},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewManager(ctx, tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewManager() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err == nil {
				assert.Equal(t, model.StateDisconnected, got.State())
				assert.Equal(t, RecoverBackoff, got.recoverBackoff)
			}
		})
	}
}

// Сбой публикации: восстановление, пауза 20 секунд, новая попытка с подключения к сети
func TestSuperviseRecoverAfterPublishFault(t *testing.T) {
	f := newFixture(t, 2)
	f.timeSvc.On("SetTime").Return(nil)
	f.publisher.runErr = []error{errors.New("connection lost")}
	f.connectivity.networkErr = []error{nil, errors.New("no ap")}

	require.NoError(t, f.manager.supervise())

	assert.Equal(t, []string{
		"network@disconnected",
		"broker@time_synced",
		"run@publishing",
		"close",
		"sleep 20s@recovering",
		"network@disconnected",
		"sleep 20s@recovering",
	}, f.journal.list())
	f.timeSvc.AssertNumberOfCalls(t, "SetTime", 1)
	f.session.AssertNumberOfCalls(t, "Close", 1)
}

func TestSuperviseTimeSyncFault(t *testing.T) {
	f := newFixture(t, 1)
	f.timeSvc.On("SetTime").Return(errors.New("i/o timeout")).Once()

	require.NoError(t, f.manager.supervise())

	assert.Equal(t, []string{
		"network@disconnected",
		"sleep 20s@recovering",
	}, f.journal.list())
	f.session.AssertNotCalled(t, "Close")
}

func TestSuperviseBrokerFault(t *testing.T) {
	f := newFixture(t, 1)
	f.timeSvc.On("SetTime").Return(nil)
	f.connectivity.brokerErr = []error{errors.New("connection refused")}

	require.NoError(t, f.manager.supervise())

	assert.Equal(t, []string{
		"network@disconnected",
		"broker@time_synced",
		"sleep 20s@recovering",
	}, f.journal.list())
	f.session.AssertNotCalled(t, "Close")
}

// Паника в драйвере перехватывается как обычный сбой
func TestSupervisePanic(t *testing.T) {
	f := newFixture(t, 2)
	f.timeSvc.On("SetTime").Return(nil)
	f.connectivity.panicOn = 1
	f.connectivity.networkErr = []error{errors.New("no ap")}

	require.NoError(t, f.manager.supervise())

	assert.Equal(t, []string{
		"network@disconnected",
		"sleep 20s@recovering",
		"network@disconnected",
		"sleep 20s@recovering",
	}, f.journal.list())
}

// Каждая попытка открывает новую сессию, предыдущая закрыта
func TestSuperviseFreshSession(t *testing.T) {
	f := newFixture(t, 3)
	f.timeSvc.On("SetTime").Return(nil)
	f.publisher.runErr = []error{errors.New("lost"), errors.New("lost"), errors.New("lost")}

	require.NoError(t, f.manager.supervise())

	events := f.journal.list()
	brokers, closes := 0, 0
	for _, e := range events {
		switch e {
		case "broker@time_synced":
			brokers++
		case "close":
			closes++
		}
	}
	assert.Equal(t, 3, brokers)
	assert.Equal(t, 3, closes)
	assert.Equal(t, 3, f.clock.sleeps)
}

func TestSuperviseCustomBackoff(t *testing.T) {
	f := newFixture(t, 1)
	f.manager.recoverBackoff = 5 * time.Second
	f.connectivity.networkErr = []error{errors.New("no ap")}

	require.NoError(t, f.manager.supervise())
	assert.Equal(t, []string{"network@disconnected", "sleep 5s@recovering"}, f.journal.list())
}

// Опрос датчиков запускается один раз независимо от перезапусков подключения
func TestServe(t *testing.T) {
	f := newFixture(t, 3)
	f.timeSvc.On("SetTime").Return(nil)
	f.connectivity.networkErr = []error{errors.New("no ap"), errors.New("no ap"), errors.New("no ap")}

	require.NoError(t, f.manager.Serve())
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.poller.calls))
	assert.Equal(t, 3, f.connectivity.networks)
}

type fakeWeb struct {
	ctx    context.Context
	status service.StatusSource
}

func (f *fakeWeb) Serve(status service.StatusSource) error {
	f.status = status
	<-f.ctx.Done()
	return nil
}

func TestServeWithWeb(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	web := &fakeWeb{ctx: ctx}
	clock := &fakeClock{j: &journal{}, limit: 1, cancel: cancel}
	connectivity := &fakeConnectivity{j: clock.j, networkErr: []error{errors.New("no ap")}}
	manager, err := NewManager(ctx, &ConfigManager{
		Poller:       &fakePoller{ctx: ctx},
		Connectivity: connectivity,
		Publisher:    &fakePublisher{},
		TimeSvc:      &mocks.TimeSvc{},
		WebSvc:       web,
		Sleep:        clock.sleep,
	})
	require.NoError(t, err)
	connectivity.m = manager
	clock.m = manager

	require.NoError(t, manager.Serve())
	require.NotNil(t, web.status)
	assert.Equal(t, model.StateRecovering, web.status.State())
	id, err := web.status.ClientID()
	require.NoError(t, err)
	assert.Equal(t, "ESP_240AC40001FF", id)
}
