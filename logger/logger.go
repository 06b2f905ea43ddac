package logger

import (
	"go.uber.org/zap"
)

var Log *zap.SugaredLogger

func Init() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}

func init() {
	// Packages log during tests without calling Init; default to a no-op
	// logger so they never hit a nil sugar.
	Log = zap.NewNop().Sugar()
}
