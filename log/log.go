package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/babylonchain/btc-staking-signer/util"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
	FormatAuto    = "auto"
	FormatLogfmt  = "logfmt"

	timeLayout = "2006-01-02T15:04:05.000000Z07:00"
)

// NewRootLogger builds the logger shared by the signer, the wallet backends
// and the indexer client. Timestamps are UTC with microseconds.
func NewRootLogger(format string, level string, w io.Writer) (*zap.Logger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encodeTime := zapcore.TimeEncoderOfLayout(timeLayout)
	encCfg.EncodeTime = func(ts time.Time, e zapcore.PrimitiveArrayEncoder) {
		encodeTime(ts.UTC(), e)
	}
	encCfg.LevelKey = "lvl"

	enc, err := newEncoder(format, encCfg)
	if err != nil {
		return nil, err
	}
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

func newEncoder(format string, encCfg zapcore.EncoderConfig) (zapcore.Encoder, error) {
	switch format {
	case FormatJSON:
		return zapcore.NewJSONEncoder(encCfg), nil
	case FormatAuto, FormatConsole:
		return zapcore.NewConsoleEncoder(encCfg), nil
	case FormatLogfmt:
		return zaplogfmt.NewEncoder(encCfg), nil
	default:
		return nil, fmt.Errorf("unrecognized log format %q", format)
	}
}

// parseLevel accepts the zap level names plus "warning".
func parseLevel(level string) (zapcore.Level, error) {
	level = strings.ToLower(level)
	if level == "warning" {
		level = "warn"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil || lvl == zapcore.DPanicLevel {
		return lvl, fmt.Errorf("unsupported log level: %s", level)
	}
	return lvl, nil
}

// NewRootLoggerWithFile writes console formatted logs to both stdout and the
// log file, which is created if missing.
func NewRootLoggerWithFile(logFile string, level string) (*zap.Logger, error) {
	if err := util.MakeDirectory(filepath.Dir(logFile)); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, f)

	return NewRootLogger(FormatConsole, level, mw)
}
