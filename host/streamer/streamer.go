package streamer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"penarm/protocol"
)

// Streaming errors
var (
	ErrIdleTimeout = errors.New("streamer: controller went quiet")
	ErrLinkClosed  = errors.New("streamer: link closed")
)

// Link is a line-oriented connection to the controller. *mcu.MCU satisfies
// it.
type Link interface {
	SendLine(line string) error
	Replies() <-chan string
}

// Options configures a Streamer
type Options struct {
	Window      int           // lines sent per REQUEST
	IdleTimeout time.Duration // give up when no reply arrives for this long
	Logger      *slog.Logger
}

// Streamer feeds a command list to a Link
type Streamer struct {
	link   Link
	opts   Options
	logger *slog.Logger
}

// New creates a streamer
func New(link Link, opts Options) *Streamer {
	if opts.Window < 1 {
		opts.Window = 4
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Streamer{link: link, opts: opts, logger: logger}
}

// Run sends lines as the controller requests them and returns once every
// line is written
func (s *Streamer) Run(ctx context.Context, lines []string) (Result, error) {
	feeder := NewFeeder(lines, s.opts.Window)
	if feeder.Done() {
		return feeder.Result(), nil
	}

	idle := time.NewTimer(s.opts.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return feeder.Result(), ctx.Err()

		case <-idle.C:
			return feeder.Result(), fmt.Errorf("%w after %s with %d lines left",
				ErrIdleTimeout, s.opts.IdleTimeout, feeder.Remaining())

		case reply, ok := <-s.link.Replies():
			if !ok {
				return feeder.Result(), ErrLinkClosed
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(s.opts.IdleTimeout)

			s.logReply(reply)
			for _, line := range feeder.Handle(reply) {
				if err := s.link.SendLine(line); err != nil {
					return feeder.Result(), err
				}
			}
			if feeder.Done() {
				res := feeder.Result()
				s.logger.Info("stream complete", "sent", res.Sent, "requests", res.Requests)
				return res, nil
			}
		}
	}
}

func (s *Streamer) logReply(reply string) {
	switch reply {
	case protocol.SignalBufferFull:
		s.logger.Warn("controller dropped a command", "reply", reply)
	case protocol.SignalInvalidFormat, protocol.SignalInvalidNumbers:
		s.logger.Warn("controller rejected a command", "reply", reply)
	case protocol.SignalRequest:
		s.logger.Debug("request")
	default:
		s.logger.Info("controller", "reply", reply)
	}
}
