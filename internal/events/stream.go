package events

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// maxEventBytes bounds a single line of an event stream
const maxEventBytes = 1024 * 1024

// Publisher accepts messages for delivery
type Publisher interface {
	Publish(Message)
}

// Pump reads newline-delimited JSON events from r and publishes each one.
// Malformed lines are logged and skipped. Pump returns when r is exhausted
// or ctx is done between lines.
func Pump(ctx context.Context, r io.Reader, pub Publisher, logger zerolog.Logger) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventBytes)

	lineNum := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNum++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		msg, err := DecodeBytes(line)
		if err != nil {
			logger.Warn().Err(err).Int("line", lineNum).Msg("skipping malformed event")
			continue
		}

		logger.Debug().Str("event_type", msg.Type).Int("line", lineNum).Msg("event received from stream")
		pub.Publish(msg)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read event stream; %w", err)
	}

	return nil
}
