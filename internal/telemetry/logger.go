// Package telemetry builds the observability handles of a run: a logr.Logger
// writing to the console and to attached log files, Prometheus metrics that
// are flushed to a textfile, and an OpenTelemetry tracer for step spans.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level names as they appear in log lines.
const (
	levelDebug = "DEBUG"
	levelInfo  = "INFO"
	levelWarn  = "WARN"
	levelError = "ERROR"
)

const (
	timeLayout    = "2006-01-02 15:04:05.000"
	warningPrefix = "Warning: "
)

var (
	debugStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	infoStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3b82f6"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#eab308"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ef4444"))
)

// Output is the destination of a run's log lines: a console writer plus any
// number of attached writers. Only the console receives colors.
type Output struct {
	console  zapcore.WriteSyncer
	colored  bool
	attached *fanout
	now      func() time.Time
}

// NewOutput creates an Output for console. Colors are used only when colored is true.
func NewOutput(console io.Writer, colored bool) *Output {
	return &Output{
		console:  zapcore.Lock(zapcore.AddSync(console)),
		colored:  colored,
		attached: &fanout{writers: make(map[int]io.Writer)},
		now:      time.Now,
	}
}

// NewConsoleOutput writes to stdout and colors lines when stdout is a terminal.
func NewConsoleOutput() *Output {
	return NewOutput(os.Stdout, IsInteractiveTTY())
}

// IsInteractiveTTY reports whether stdout is a terminal.
func IsInteractiveTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// Colored reports whether console lines are colored.
func (o *Output) Colored() bool {
	return o.colored
}

// Attach adds w as an additional destination and returns a function that removes it.
func (o *Output) Attach(w io.Writer) (detach func()) {
	return o.attached.add(w)
}

// NewLogger returns a logr.Logger writing to out, backed by zap.
// V(0) lines are INFO, V(1) and above are DEBUG; verbosity caps the V-level that is emitted.
func NewLogger(out *Output, verbosity int) logr.Logger {
	level := zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	enc := zapcore.NewConsoleEncoder(encoderConfig())

	core := zapcore.NewTee(
		&consoleCore{LevelEnabler: level, enc: enc.Clone(), out: out.console, colored: out.colored},
		zapcore.NewCore(enc, out.attached, level),
	)
	return zapr.NewLogger(zap.New(core, zap.WithClock(clock{now: out.now})))
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeLevel:      encodeLevel,
		EncodeName:       zapcore.FullNameEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " | ",
	}
}

// encodeLevel right-aligns the level name; every level below info is DEBUG.
func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(fmt.Sprintf("%8s", levelName(l)))
}

func levelName(l zapcore.Level) string {
	switch {
	case l < zapcore.InfoLevel:
		return levelDebug
	case l == zapcore.InfoLevel:
		return levelInfo
	case l == zapcore.WarnLevel:
		return levelWarn
	default:
		return levelError
	}
}

// consoleCore is an io core that colors each encoded entry before writing it.
type consoleCore struct {
	zapcore.LevelEnabler
	enc     zapcore.Encoder
	out     zapcore.WriteSyncer
	colored bool
}

func (c *consoleCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.enc = c.enc.Clone()
	for i := range fields {
		fields[i].AddTo(clone.enc)
	}
	return &clone
}

func (c *consoleCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *consoleCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	defer buf.Free()

	line := buf.String()
	if c.colored {
		line = colorize(ent, line)
	}
	_, err = io.WriteString(c.out, line)
	return err
}

func (c *consoleCore) Sync() error {
	return c.out.Sync()
}

func colorize(ent zapcore.Entry, line string) string {
	style := infoStyle
	switch {
	case ent.Level < zapcore.InfoLevel:
		style = debugStyle
	case ent.Level >= zapcore.ErrorLevel:
		style = errorStyle
	case ent.Level == zapcore.WarnLevel, strings.HasPrefix(ent.Message, warningPrefix):
		style = warnStyle
	}
	// Render line by line so multi-line messages are not padded to a block.
	lines := strings.Split(strings.TrimSuffix(line, zapcore.DefaultLineEnding), "\n")
	for i, l := range lines {
		lines[i] = style.Render(l)
	}
	return strings.Join(lines, "\n") + zapcore.DefaultLineEnding
}

// fanout is a WriteSyncer whose set of writers changes while the logger is in use.
type fanout struct {
	mu      sync.Mutex
	writers map[int]io.Writer
	nextID  int
}

func (f *fanout) add(w io.Writer) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.writers[id] = w
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.writers, id)
	}
}

func (f *fanout) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int, 0, len(f.writers))
	for id := range f.writers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		_, _ = f.writers[id].Write(p)
	}
	return len(p), nil
}

func (f *fanout) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.writers {
		if s, ok := w.(zapcore.WriteSyncer); ok {
			_ = s.Sync()
		}
	}
	return nil
}

// clock lets tests pin the timestamps of log lines.
type clock struct {
	now func() time.Time
}

func (c clock) Now() time.Time {
	return c.now()
}

func (c clock) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}
