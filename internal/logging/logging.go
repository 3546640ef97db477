package logging

import (
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the process-wide logger. An unknown or empty level falls
// back to info. When filePath is set the stream is mirrored to an
// append-only file so container restarts do not truncate history.
func Setup(level, filePath string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var w io.Writer = os.Stdout
	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
		if err != nil {
			return errors.Annotate(err, "opening log file")
		}
		w = zerolog.MultiLevelWriter(os.Stdout, zerolog.SyncWriter(f))
	}

	log.Logger = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return nil
}
