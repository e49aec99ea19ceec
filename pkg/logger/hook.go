package logger

import (
	"fmt"
	"path"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogrusContextHook добавляет в запись поле source с местом вызова логгера
type LogrusContextHook struct{}

// Levels уровни, для которых срабатывает хук
func (hook LogrusContextHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire вызывается на каждую запись
func (hook LogrusContextHook) Fire(entry *logrus.Entry) error {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(4, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "github.com/sirupsen/logrus") && !strings.HasSuffix(frame.File, "logger/hook.go") {
			entry.Data["source"] = fmt.Sprintf("%s:%d", path.Base(frame.File), frame.Line)
			break
		}
		if !more {
			break
		}
	}
	return nil
}
