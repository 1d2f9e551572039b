package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/setuphub/setuphub/pkg/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger routes GORM's own logging into zap. Record-not-found is not logged.
type gormLogger struct {
	log   *logger.Logger
	level gormlogger.LogLevel
}

// NewGormLogger adapts a Logger to GORM's logger interface
func NewGormLogger(log *logger.Logger) gormlogger.Interface {
	return &gormLogger{log: log.WithComponent("gorm"), level: gormlogger.Warn}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.log.WithContext(ctx).Info(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.log.WithContext(ctx).Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.log.WithContext(ctx).Error(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.log.WithContext(ctx).Debug("Query failed",
			logger.Error(err),
			logger.String("sql", sql),
			logger.Int64("rows", rows),
			logger.Latency(elapsed),
		)
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.log.WithContext(ctx).Warn("Slow query",
			logger.String("sql", sql),
			logger.Int64("rows", rows),
			logger.Latency(elapsed),
		)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.log.WithContext(ctx).Debug("Query",
			logger.String("sql", sql),
			logger.Int64("rows", rows),
			logger.Latency(elapsed),
		)
	}
}
