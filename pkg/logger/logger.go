package logger

import (
	"fmt"
	"log/slog"
)

// Printf adapts a slog.Logger to the printf-style logger interfaces expected by
// embedded libraries such as badger.
type Printf struct {
	log *slog.Logger
}

// New returns a printf adapter tagged with component.
func New(base *slog.Logger, component string) *Printf {
	if base == nil {
		base = slog.Default()
	}
	return &Printf{log: base.With("component", component)}
}

func (p *Printf) Errorf(format string, args ...interface{}) {
	p.log.Error(trim(fmt.Sprintf(format, args...)))
}

func (p *Printf) Warningf(format string, args ...interface{}) {
	p.log.Warn(trim(fmt.Sprintf(format, args...)))
}

func (p *Printf) Infof(format string, args ...interface{}) {
	p.log.Info(trim(fmt.Sprintf(format, args...)))
}

func (p *Printf) Debugf(format string, args ...interface{}) {
	p.log.Debug(trim(fmt.Sprintf(format, args...)))
}

// badger terminates most of its messages with a newline.
func trim(msg string) string {
	for len(msg) > 0 && (msg[len(msg)-1] == '\n' || msg[len(msg)-1] == ' ') {
		msg = msg[:len(msg)-1]
	}
	return msg
}
