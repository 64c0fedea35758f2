package main

import (
	"strconv"

	"github.com/gravitational/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	kzap "sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// ZapCLI describes CLI options of a zap logger, built on controller-runtime's
// own zap adapter.
type ZapCLI struct {
	ZapDevel           bool            `kong:"help='Development Mode defaults(encoder=consoleEncoder,logLevel=Debug,stackTraceLevel=Warn). Production Mode defaults(encoder=jsonEncoder,logLevel=Info,stackTraceLevel=Error).'"`
	LogLevel           *ZapCLILogLevel `kong:"name='log-level',env='LOG_FILTER',help='Log level: debug, info, error, or a positive integer for increasing verbosity.',placeholder='info'"`
	ZapStacktraceLevel *ZapCLIStacktraceLevel `kong:"help='Level at and above which stacktraces are captured (one of info, error, panic).',placeholder='error'"`
}

// ZapCLILogLevel serves the --log-level / LOG_FILTER option.
type ZapCLILogLevel zap.AtomicLevel

// ZapCLIStacktraceLevel serves the --zap-stacktrace-level option.
type ZapCLIStacktraceLevel zap.AtomicLevel

// ZapOptions converts CLI options to controller-runtime's zap Options.
func (cli ZapCLI) ZapOptions() *kzap.Options {
	opts := &kzap.Options{Development: cli.ZapDevel}

	if cli.LogLevel != nil {
		opts.Level = (*zap.AtomicLevel)(cli.LogLevel)
	}
	if cli.ZapStacktraceLevel != nil {
		opts.StacktraceLevel = (*zap.AtomicLevel)(cli.ZapStacktraceLevel)
	}

	return opts
}

// UnmarshalText returns a log level by its string identifier.
func (l *ZapCLILogLevel) UnmarshalText(text []byte) error {
	str := string(text)
	switch str {
	case "debug":
		*l = ZapCLILogLevel(zap.NewAtomicLevelAt(zapcore.DebugLevel))
	case "info":
		*l = ZapCLILogLevel(zap.NewAtomicLevelAt(zapcore.InfoLevel))
	case "error":
		*l = ZapCLILogLevel(zap.NewAtomicLevelAt(zapcore.ErrorLevel))
	default:
		logLevel, err := strconv.Atoi(str)
		if err != nil {
			return trace.Wrap(err)
		}
		if logLevel <= 0 {
			return trace.BadParameter("invalid log level %s", str)
		}
		*l = ZapCLILogLevel(zap.NewAtomicLevelAt(zapcore.Level(int8(-1 * logLevel))))
	}
	return nil
}

// UnmarshalText returns a stacktrace level by its string identifier.
func (l *ZapCLIStacktraceLevel) UnmarshalText(text []byte) error {
	str := string(text)
	switch str {
	case "info":
		*l = ZapCLIStacktraceLevel(zap.NewAtomicLevelAt(zapcore.InfoLevel))
	case "error":
		*l = ZapCLIStacktraceLevel(zap.NewAtomicLevelAt(zapcore.ErrorLevel))
	case "panic":
		*l = ZapCLIStacktraceLevel(zap.NewAtomicLevelAt(zapcore.PanicLevel))
	default:
		return trace.BadParameter("invalid stacktrace level %s", str)
	}
	return nil
}
