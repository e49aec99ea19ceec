package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kirsrus/dsmqtt/model"
	"github.com/kirsrus/dsmqtt/service/mocks"
	"github.com/kirsrus/dsmqtt/store"
	"github.com/kirsrus/dsmqtt/store/memory"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	romA = []byte{0x28, 0xFF, 0x11, 0x22, 0x00, 0x00, 0x00, 0x01}
	romB = []byte{0x28, 0xFF, 0x33, 0xAA, 0x00, 0x00, 0x00, 0x02}
	romC = []byte{0x28, 0xFF, 0x44, 0xBB, 0x00, 0x00, 0x00, 0x03}
)

// Имитация часов: запоминает паузы и завершает контекст на limit-й паузе
type fakeClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
	limit  int
	cancel context.CancelFunc
}

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	n := len(c.sleeps)
	c.mu.Unlock()
	if n >= c.limit {
		c.cancel()
	}
	return ctx.Err()
}

func newTestPoller(t *testing.T, oneWire *mocks.OneWireSvc, limit int) (*Poller, store.ReadingStore, *fakeClock) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	clock := &fakeClock{limit: limit, cancel: cancel}
	readingStore, err := memory.NewMemory(&memory.ConfigMemory{})
	require.NoError(t, err)
	poller, err := NewPoller(ctx, oneWire, readingStore, &ConfigPoller{Sleep: clock.sleep})
	require.NoError(t, err)
	return poller, readingStore, clock
}

func TestNewPoller(t *testing.T) {
	readingStore, err := memory.NewMemory(&memory.ConfigMemory{})
	require.NoError(t, err)

	tests := []struct {
		name    string
		oneWire *mocks.OneWireSvc
		store   store.ReadingStore
		config  *ConfigPoller
		wantErr bool
	}{
		{name: "корректный", oneWire: &mocks.OneWireSvc{}, store: readingStore, config: &ConfigPoller{}},
		{name: "без конфигурации", oneWire: &mocks.OneWireSvc{}, store: readingStore, config: nil, wantErr: true},
		{name: "без драйвера", oneWire: nil, store: readingStore, config: &ConfigPoller{}, wantErr: true},
		{name: "без хранилища", oneWire: &mocks.OneWireSvc{}, store: nil, config: &ConfigPoller{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.oneWire == nil {
				_, err = NewPoller(context.Background(), nil, tt.store, tt.config)
			} else {
				_, err = NewPoller(context.Background(), tt.oneWire, tt.store, tt.config)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPoller() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPollerNoSensors(t *testing.T) {
	oneWire := &mocks.OneWireSvc{}
	oneWire.On("Scan").Return([][]byte{}, nil).Once()

	poller, readingStore, clock := newTestPoller(t, oneWire, 3)
	require.NoError(t, poller.Serve())

	oneWire.AssertExpectations(t)
	oneWire.AssertNotCalled(t, "Convert")
	assert.Equal(t, []time.Duration{CycleInterval, CycleInterval, CycleInterval}, clock.sleeps)
	assert.Equal(t, 0, readingStore.Len())
}

func TestPollerScanError(t *testing.T) {
	oneWire := &mocks.OneWireSvc{}
	oneWire.On("Scan").Return(nil, errors.New("шина недоступна")).Once()

	poller, readingStore, clock := newTestPoller(t, oneWire, 2)
	require.NoError(t, poller.Serve())

	oneWire.AssertNotCalled(t, "Convert")
	assert.Equal(t, []time.Duration{CycleInterval, CycleInterval}, clock.sleeps)
	assert.Equal(t, 0, readingStore.Len())
}

func TestPollerCycle(t *testing.T) {
	oneWire := &mocks.OneWireSvc{}
	oneWire.On("Scan").Return([][]byte{romA, romB, romC}, nil).Once()
	oneWire.On("Convert").Return(nil)
	oneWire.On("Read", romA).Return(21.5, nil)
	oneWire.On("Read", romB).Return(0.0, errors.New("ошибка CRC"))
	oneWire.On("Read", romC).Return(19.0, nil)

	poller, readingStore, clock := newTestPoller(t, oneWire, 2)
	require.NoError(t, readingStore.Set("28FF33AA00000002", model.Reading{Value: 10}))

	require.NoError(t, poller.Serve())

	assert.Equal(t, []time.Duration{SettleDelay, CycleInterval}, clock.sleeps)
	oneWire.AssertNumberOfCalls(t, "Convert", 1)

	a, found := readingStore.Get("28FF112200000001")
	require.True(t, found)
	assert.Equal(t, 21.5, a.Value)

	b, _ := readingStore.Get("28FF33AA00000002")
	assert.Equal(t, 10.0, b.Value, "при ошибке чтения прежнее значение остаётся")

	c, found := readingStore.Get("28FF44BB00000003")
	require.True(t, found, "ошибка одного датчика не мешает остальным")
	assert.Equal(t, 19.0, c.Value)
}

func TestPollerDriverPanic(t *testing.T) {
	oneWire := &mocks.OneWireSvc{}
	oneWire.On("Scan").Return([][]byte{romA, romB}, nil).Once()
	oneWire.On("Convert").Return(nil)
	oneWire.On("Read", romA).Run(func(mock.Arguments) { panic("bus fault") }).Return(0.0, nil)
	oneWire.On("Read", romB).Return(23.0, nil)

	poller, readingStore, _ := newTestPoller(t, oneWire, 2)
	require.NoError(t, poller.Serve())

	_, found := readingStore.Get("28FF112200000001")
	assert.False(t, found)
	b, found := readingStore.Get("28FF33AA00000002")
	require.True(t, found)
	assert.Equal(t, 23.0, b.Value)
}

func TestPollerConvertPanic(t *testing.T) {
	oneWire := &mocks.OneWireSvc{}
	oneWire.On("Scan").Return([][]byte{romA}, nil).Once()
	oneWire.On("Convert").Run(func(mock.Arguments) { panic("bus fault") }).Return(nil).Once()
	oneWire.On("Convert").Return(nil)
	oneWire.On("Read", romA).Return(24.5, nil)

	poller, readingStore, clock := newTestPoller(t, oneWire, 3)
	require.NoError(t, poller.Serve())

	// первый цикл пропущен без чтения, второй прочитал датчик
	assert.Equal(t, []time.Duration{CycleInterval, SettleDelay, CycleInterval}, clock.sleeps)
	oneWire.AssertNumberOfCalls(t, "Read", 1)
	a, found := readingStore.Get("28FF112200000001")
	require.True(t, found)
	assert.Equal(t, 24.5, a.Value)
}

func TestPollerScanPanic(t *testing.T) {
	oneWire := &mocks.OneWireSvc{}
	oneWire.On("Scan").Run(func(mock.Arguments) { panic("bus fault") }).Return(nil, nil).Once()

	poller, readingStore, clock := newTestPoller(t, oneWire, 2)
	require.NoError(t, poller.Serve())

	oneWire.AssertNotCalled(t, "Convert")
	assert.Equal(t, []time.Duration{CycleInterval, CycleInterval}, clock.sleeps)
	assert.Equal(t, 0, readingStore.Len())
}

func TestPollerLastWriteWins(t *testing.T) {
	oneWire := &mocks.OneWireSvc{}
	oneWire.On("Scan").Return([][]byte{romA}, nil).Once()
	oneWire.On("Convert").Return(nil)
	oneWire.On("Read", romA).Return(20.0, nil).Once()
	oneWire.On("Read", romA).Return(21.0, nil).Once()

	poller, readingStore, clock := newTestPoller(t, oneWire, 4)
	require.NoError(t, poller.Serve())

	assert.Equal(t, []time.Duration{SettleDelay, CycleInterval, SettleDelay, CycleInterval}, clock.sleeps)
	oneWire.AssertExpectations(t)
	a, _ := readingStore.Get("28FF112200000001")
	assert.Equal(t, 21.0, a.Value)
}

func TestPollerConvertError(t *testing.T) {
	oneWire := &mocks.OneWireSvc{}
	oneWire.On("Scan").Return([][]byte{romA}, nil).Once()
	oneWire.On("Convert").Return(errors.New("шина занята"))

	poller, readingStore, clock := newTestPoller(t, oneWire, 1)
	require.NoError(t, poller.Serve())

	oneWire.AssertNotCalled(t, "Read", romA)
	assert.Equal(t, []time.Duration{CycleInterval}, clock.sleeps)
	assert.Equal(t, 0, readingStore.Len())
}
