package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field type alias for convenience
type Field = zap.Field

// String constructs a field with the given key and value
func String(key string, val string) Field {
	return zap.String(key, val)
}

// Strings constructs a field with the given key and slice of strings
func Strings(key string, val []string) Field {
	return zap.Strings(key, val)
}

// Int constructs a field with the given key and value
func Int(key string, val int) Field {
	return zap.Int(key, val)
}

// Int64 constructs a field with the given key and value
func Int64(key string, val int64) Field {
	return zap.Int64(key, val)
}

// Bool constructs a field with the given key and value
func Bool(key string, val bool) Field {
	return zap.Bool(key, val)
}

// Time constructs a field with the given key and value
func Time(key string, val time.Time) Field {
	return zap.Time(key, val)
}

// Duration constructs a field with the given key and value
func Duration(key string, val time.Duration) Field {
	return zap.Duration(key, val)
}

// Error stores err under the key "error"
func Error(err error) Field {
	return zap.Error(err)
}

// Any picks the best representation for an arbitrary value
func Any(key string, val interface{}) Field {
	return zap.Any(key, val)
}

// HTTP request fields

func RequestID(id string) Field {
	return String("request_id", id)
}

func TraceID(id string) Field {
	return String("trace_id", id)
}

func SpanID(id string) Field {
	return String("span_id", id)
}

func Method(method string) Field {
	return String("method", method)
}

func Path(path string) Field {
	return String("path", path)
}

func Query(q string) Field {
	return String("query", q)
}

func StatusCode(code int) Field {
	return Int("status_code", code)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func ClientIP(ip string) Field {
	return String("client_ip", ip)
}

func UserAgent(ua string) Field {
	return String("user_agent", ua)
}

func BodySize(size int) Field {
	return Int("body_size", size)
}

// Service fields

func Component(name string) Field {
	return String("component", name)
}

func Operation(name string) Field {
	return String("operation", name)
}

func Service(name string) Field {
	return String("service", name)
}

func Version(version string) Field {
	return String("version", version)
}

func Environment(env string) Field {
	return String("environment", env)
}

// Domain fields

func UserID(id string) Field {
	return String("user_id", id)
}

func Username(name string) Field {
	return String("username", name)
}

func SetupID(id string) Field {
	return String("setup_id", id)
}

func EditorName(name string) Field {
	return String("editor_name", name)
}

func TokenID(id string) Field {
	return String("token_id", id)
}

func SessionID(id string) Field {
	return String("session_id", id)
}

// AuthMethod records whether a request authenticated with a PAT or a session cookie
func AuthMethod(method string) Field {
	return String("auth_method", method)
}
