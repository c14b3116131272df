package logsvc

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

type ZapLogger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
	min   zapcore.Level
}

var _ core.Logger = (*ZapLogger)(nil)

func NewZapLogger(conf *core.Config) (*ZapLogger, error) {
	var zcfg zap.Config
	if conf.Debug {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.InitialFields = map[string]interface{}{
		"app":   conf.AppName,
		"env":   conf.Env,
		"build": conf.Build,
	}

	zl, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &ZapLogger{
		sugar: zl.Sugar(),
		level: zcfg.Level,
		min:   zcfg.Level.Level(),
	}, nil
}

func (l *ZapLogger) Enable(enabled bool) {
	if enabled {
		l.level.SetLevel(l.min)
	} else {
		l.level.SetLevel(zapcore.FatalLevel)
	}
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l *ZapLogger) keysAndValues(args []interface{}) []interface{} {
	kvs := make([]interface{}, 0, 2*len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case error:
			kvs = append(kvs, "error", v)
		case user.User:
			kvs = append(kvs, "user", v.Email)
		case map[string]interface{}:
			for key, val := range v {
				kvs = append(kvs, key, val)
			}
		default:
			kvs = append(kvs, fmt.Sprintf("arg%d", i), v)
		}
	}
	return kvs
}

func (l *ZapLogger) Debug(msg string, args ...interface{}) {
	l.sugar.Debugw(msg, l.keysAndValues(args)...)
}

func (l *ZapLogger) Info(msg string, args ...interface{}) {
	l.sugar.Infow(msg, l.keysAndValues(args)...)
}

func (l *ZapLogger) Warn(msg string, args ...interface{}) {
	l.sugar.Warnw(msg, l.keysAndValues(args)...)
}

func (l *ZapLogger) Error(msg string, args ...interface{}) {
	l.sugar.Errorw(msg, l.keysAndValues(args)...)
}

func (l *ZapLogger) Fatal(msg string, args ...interface{}) {
	l.sugar.Fatalw(msg, l.keysAndValues(args)...)
}
