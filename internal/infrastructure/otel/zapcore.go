package otel

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

// ZapCore forwards zap entries to an OTEL logger
type ZapCore struct {
	zapcore.LevelEnabler
	provider *Provider
	attrs    []log.KeyValue
}

var _ zapcore.Core = (*ZapCore)(nil)

// NewZapCore creates a core exporting entries at or above level
func NewZapCore(provider *Provider, level zapcore.LevelEnabler) *ZapCore {
	return &ZapCore{LevelEnabler: level, provider: provider}
}

// Tee combines a local core with the OTEL exporter
func Tee(local zapcore.Core, provider *Provider, level zapcore.LevelEnabler) zapcore.Core {
	return zapcore.NewTee(local, NewZapCore(provider, level))
}

// With implements zapcore.Core. Fields are converted once, here.
func (c *ZapCore) With(fields []zapcore.Field) zapcore.Core {
	attrs := make([]log.KeyValue, 0, len(c.attrs)+len(fields))
	attrs = append(attrs, c.attrs...)
	attrs = appendFields(attrs, fields)
	return &ZapCore{LevelEnabler: c.LevelEnabler, provider: c.provider, attrs: attrs}
}

// Check implements zapcore.Core
func (c *ZapCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

// Write implements zapcore.Core
func (c *ZapCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	var rec log.Record
	rec.SetTimestamp(entry.Time)
	rec.SetObservedTimestamp(time.Now())
	rec.SetSeverity(severity(entry.Level))
	rec.SetSeverityText(entry.Level.CapitalString())
	rec.SetBody(log.StringValue(entry.Message))

	attrs := make([]log.KeyValue, 0, len(c.attrs)+len(fields)+3)
	attrs = append(attrs, c.attrs...)
	if entry.LoggerName != "" {
		attrs = append(attrs, log.String("logger", entry.LoggerName))
	}
	if entry.Caller.Defined {
		attrs = append(attrs, log.String("code.filepath", entry.Caller.TrimmedPath()))
	}
	if entry.Stack != "" {
		attrs = append(attrs, log.String("exception.stacktrace", entry.Stack))
	}
	rec.AddAttributes(appendFields(attrs, fields)...)

	c.provider.Logger().Emit(context.Background(), rec)
	return nil
}

// Sync implements zapcore.Core
func (c *ZapCore) Sync() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return c.provider.ForceFlush(ctx)
}

func severity(level zapcore.Level) log.Severity {
	switch level {
	case zapcore.DebugLevel:
		return log.SeverityDebug
	case zapcore.InfoLevel:
		return log.SeverityInfo
	case zapcore.WarnLevel:
		return log.SeverityWarn
	case zapcore.ErrorLevel, zapcore.DPanicLevel:
		return log.SeverityError
	case zapcore.PanicLevel, zapcore.FatalLevel:
		return log.SeverityFatal
	default:
		return log.SeverityInfo
	}
}

// appendFields converts zap fields. A namespace field prefixes the keys of
// every field after it.
func appendFields(attrs []log.KeyValue, fields []zapcore.Field) []log.KeyValue {
	prefix := ""
	for _, f := range fields {
		if f.Type == zapcore.NamespaceType {
			prefix += f.Key + "."
			continue
		}
		kv, ok := convertField(f)
		if !ok {
			continue
		}
		kv.Key = prefix + kv.Key
		attrs = append(attrs, kv)
	}
	return attrs
}

func convertField(f zapcore.Field) (log.KeyValue, bool) {
	switch f.Type {
	case zapcore.SkipType:
		return log.KeyValue{}, false
	case zapcore.BoolType:
		return log.Bool(f.Key, f.Integer == 1), true
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return log.Int64(f.Key, f.Integer), true
	case zapcore.Uint64Type, zapcore.UintptrType:
		return log.String(f.Key, fmt.Sprintf("%d", uint64(f.Integer))), true
	case zapcore.Float64Type:
		return log.Float64(f.Key, math.Float64frombits(uint64(f.Integer))), true
	case zapcore.Float32Type:
		return log.Float64(f.Key, float64(math.Float32frombits(uint32(f.Integer)))), true
	case zapcore.StringType:
		return log.String(f.Key, f.String), true
	case zapcore.DurationType:
		return log.String(f.Key, time.Duration(f.Integer).String()), true
	case zapcore.TimeType:
		t := time.Unix(0, f.Integer)
		if loc, ok := f.Interface.(*time.Location); ok {
			t = t.In(loc)
		}
		return log.String(f.Key, t.Format(time.RFC3339Nano)), true
	case zapcore.TimeFullType:
		if t, ok := f.Interface.(time.Time); ok {
			return log.String(f.Key, t.Format(time.RFC3339Nano)), true
		}
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok && err != nil {
			return log.String(f.Key, err.Error()), true
		}
	case zapcore.StringerType:
		if s, ok := f.Interface.(fmt.Stringer); ok {
			return log.String(f.Key, s.String()), true
		}
	case zapcore.BinaryType:
		if b, ok := f.Interface.([]byte); ok {
			return log.Bytes(f.Key, b), true
		}
	case zapcore.ByteStringType:
		if b, ok := f.Interface.([]byte); ok {
			return log.String(f.Key, string(b)), true
		}
	}

	if f.Interface != nil {
		return log.String(f.Key, fmt.Sprintf("%v", f.Interface)), true
	}
	return log.KeyValue{}, false
}
