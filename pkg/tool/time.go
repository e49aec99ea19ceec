package tool

import (
	"context"
	"time"
)

// Sleeper приостанавливает выполнение на d. Возвращает ошибку контекста, если ctx был отменён раньше
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep реализация Sleeper на системном таймере
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
