package medium

import (
	"context"

	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
	"github.com/JacMa99/appless-workout-mvp/utilities"
)

// LogMessenger prints messages instead of sending them. Used in mode: local.
type LogMessenger struct{}

func NewLogMessenger() *LogMessenger {
	return &LogMessenger{}
}

func (l *LogMessenger) Name() string {
	return consts.TransportLog
}

func (l *LogMessenger) Send(_ context.Context, to, from, body string) error {
	utilities.NewLoggerWithFields("LogMessenger.Send", map[string]interface{}{
		"to":   to,
		"from": from,
	}).Info(body)

	return nil
}
