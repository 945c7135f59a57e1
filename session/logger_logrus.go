package session

import "github.com/sirupsen/logrus"

// LogrusLogger adapts a *logrus.Logger to the Logger interface, pairing up
// keysAndValues into logrus fields.
//
// Example:
//
//	s, err := session.Open(ctx, t, session.WithLogger(session.NewLogrusLogger(logrus.StandardLogger())))
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger wraps l for use as a session.Logger.
func NewLogrusLogger(l *logrus.Logger) *LogrusLogger {
	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

func fieldsOf(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[k] = kv[i+1]
	}
	return f
}

func (l *LogrusLogger) Debug(msg string, kv ...interface{}) {
	l.entry.WithFields(fieldsOf(kv)).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, kv ...interface{}) {
	l.entry.WithFields(fieldsOf(kv)).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, kv ...interface{}) {
	l.entry.WithFields(fieldsOf(kv)).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, kv ...interface{}) {
	l.entry.WithFields(fieldsOf(kv)).Error(msg)
}
