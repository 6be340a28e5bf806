package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/linemk/shop-checkout/internal/lib/logger/handlers/slogpretty"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// SetupLogger пишет в stdout. Каждая запись помечена процессом (api, notifier),
// у сервера и воркера один конфиг и общий поток логов
func SetupLogger(env, process string) *slog.Logger {
	return New(os.Stdout, env, process)
}

// New собирает логгер для окружения: local - цветной pretty, dev/prod и неизвестные - JSON
func New(out io.Writer, env, process string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: Level(env)}

	var handler slog.Handler
	if env == EnvLocal {
		color.NoColor = false
		handler = slogpretty.PrettyHandlerOptions{SlogOpts: opts}.NewPrettyHandler(out)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(handler).With(slog.String("process", process))
}

// Level - debug для local и dev, иначе info
func Level(env string) slog.Level {
	switch env {
	case EnvLocal, EnvDev:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
