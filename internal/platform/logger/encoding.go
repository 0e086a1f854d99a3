package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"github.com/poolchaos/personalfit-api/internal/cli"
)

const prettyEncodingName = "console-pretty"

var (
	registerOnce sync.Once
	bufferPool   = buffer.NewPool()
)

// registerPrettyEncoding exposes the highlighting encoder to zap's
// config builder. zap keeps encoder names in a process-global registry,
// so the registration must only ever run once.
func registerPrettyEncoding() {
	registerOnce.Do(func() {
		_ = zap.RegisterEncoder(prettyEncodingName, func(cfg zapcore.EncoderConfig) (zapcore.Encoder, error) {
			return &prettyConsoleEncoder{Encoder: zapcore.NewConsoleEncoder(cfg)}, nil
		})
	})
}

// prettyConsoleEncoder defers to zap's console encoder for layout and
// recolors only the structured-field blob at the end of each line.
type prettyConsoleEncoder struct {
	zapcore.Encoder
}

func (c *prettyConsoleEncoder) Clone() zapcore.Encoder {
	return &prettyConsoleEncoder{Encoder: c.Encoder.Clone()}
}

func (c *prettyConsoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf, err := c.Encoder.EncodeEntry(ent, fields)
	if err != nil {
		return nil, err
	}

	line := buf.String()

	// The console encoder emits "header\t{fields}\n". Everything before
	// the first tab-brace pair is header and stays untouched.
	idx := strings.Index(line, "\t{")
	if idx == -1 {
		return buf, nil
	}

	out := bufferPool.Get()
	out.AppendString(line[:idx+1])
	out.AppendString(cli.HighlightJSON(line[idx+1:]))
	buf.Free()

	return out, nil
}
