package client

import log "github.com/sirupsen/logrus"

// Notifier shows transient messages to the user.
type Notifier interface {
	Warn(msg string)
	Success(msg string)
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) logger() *log.Logger {
	if n.Logger == nil {
		return log.StandardLogger()
	}
	return n.Logger
}

func (n LogNotifier) Warn(msg string) { n.logger().Warn(msg) }

func (n LogNotifier) Success(msg string) { n.logger().Info(msg) }
