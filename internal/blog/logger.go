// Package blog is the broker's structured logging seam: a narrow
// interface the rest of the module logs through, backed by zerolog,
// replacing the teacher's scattered fmt.Printf calls with leveled,
// structured output.
package blog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the subset of zerolog's API the broker actually needs:
// leveled logging with structured key/value fields attached via With.
type Logger interface {
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	With(key string, value any) Logger
}

type logger struct {
	z zerolog.Logger
}

// New returns a Logger writing to w (os.Stderr in production, a
// bytes.Buffer in tests) at the given level.
func New(w io.Writer, level zerolog.Level) Logger {
	z := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return logger{z: z}
}

// NewDefault returns the broker's production logger: console-formatted,
// info level, writing to stderr.
func NewDefault() Logger {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	z := zerolog.New(console).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	return logger{z: z}
}

func (l logger) Debug() *zerolog.Event { return l.z.Debug() }
func (l logger) Info() *zerolog.Event  { return l.z.Info() }
func (l logger) Warn() *zerolog.Event  { return l.z.Warn() }
func (l logger) Error() *zerolog.Event { return l.z.Error() }

func (l logger) With(key string, value any) Logger {
	return logger{z: l.z.With().Interface(key, value).Logger()}
}
