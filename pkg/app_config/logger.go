package app_config

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the JSON stdout logger used by all of the tooling.  An
// unparseable level falls back to INFO and is reported through the returned
// logger.
func NewLogger(level string) (zap.AtomicLevel, *zap.Logger) {
	logLevel := zap.NewAtomicLevel()
	logConfig := zap.NewProductionEncoderConfig()
	logConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	jsonEncoder := zapcore.NewJSONEncoder(logConfig)
	core := zapcore.NewTee(
		zapcore.NewCore(jsonEncoder, zapcore.AddSync(os.Stderr), logLevel),
	)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	parsedLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		logger.Warn("invalid log level specified, using INFO instead", zap.String("level", level))
		parsedLevel = zapcore.InfoLevel
	}
	logLevel.SetLevel(parsedLevel)

	return logLevel, logger
}
