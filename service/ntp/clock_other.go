//go:build !linux
// +build !linux

package ntp

import (
	"runtime"
	"time"

	"github.com/juju/errors"
)

func setSystemClock(time.Time) error {
	return errors.Errorf("установка системного времени не поддерживается на %s", runtime.GOOS)
}
