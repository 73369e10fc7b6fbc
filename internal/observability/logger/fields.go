package logger

import (
	"time"

	"go.uber.org/zap"
)

// Standard field constructors so log keys stay consistent across layers.

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Addr(v string) zap.Field { return zap.String("addr", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

func Provider(v string) zap.Field { return zap.String("provider", v) }

func UserID(v int64) zap.Field { return zap.Int64("user_id", v) }

func Component(v string) zap.Field { return zap.String("component", v) }

func Op(v string) zap.Field { return zap.String("op", v) }

func Err(err error) zap.Field { return zap.Error(err) }
