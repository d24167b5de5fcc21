package teleop

import (
	"context"
	"sync"
	"time"

	customlog "github.com/open-teleop/keypad/pkg/log"
)

// DefaultInterval is the publish cadence used by the keypad.
const DefaultInterval = 80 * time.Millisecond

// Sink delivers a command to the robot control channel.
type Sink interface {
	Transmit(cmd Command) error
	// Ready reports whether the transport is connected and able to send.
	Ready() bool
	Topic() string
}

// TransmitKind distinguishes timer sends from release flushes.
type TransmitKind string

const (
	KindTick  TransmitKind = "tick"
	KindFlush TransmitKind = "flush"
)

// Observer is notified of publisher activity. Calls happen on the goroutine
// that performed the work and must not block.
type Observer interface {
	Tick(armed bool)
	Transmitted(kind TransmitKind, cmd Command)
	TransmitFailed(kind TransmitKind, err error)
	ArmedChanged(armed bool)
}

type nopObserver struct{}

func (nopObserver) Tick(bool)                          {}
func (nopObserver) Transmitted(TransmitKind, Command)  {}
func (nopObserver) TransmitFailed(TransmitKind, error) {}
func (nopObserver) ArmedChanged(bool)                  {}

type ticker interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

func newTimeTicker(d time.Duration) ticker {
	return timeTicker{time.NewTicker(d)}
}

// RateLimitedCommandPublisher sends the most recently set command at a fixed
// cadence while armed. Commands set between two ticks are coalesced; only the
// value present at tick time goes out.
//
// Lock order: lifeMu before mu, sendMu before mu.
type RateLimitedCommandPublisher struct {
	logger   customlog.Logger
	observer Observer

	// mu guards the shared state read by the timer goroutine.
	mu           sync.Mutex
	armed        bool
	current      Command
	flushPending bool
	running      bool
	sink         Sink

	// sendMu serializes tick and flush transmissions so a flush is always
	// the last value sent for a hold.
	sendMu sync.Mutex

	lifeMu    sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	kick      chan struct{}
	newTicker func(time.Duration) ticker
}

// NewRateLimitedCommandPublisher creates a stopped, disarmed publisher. A nil
// observer is allowed.
func NewRateLimitedCommandPublisher(logger customlog.Logger, observer Observer) *RateLimitedCommandPublisher {
	if observer == nil {
		observer = nopObserver{}
	}
	return &RateLimitedCommandPublisher{
		logger:       logger,
		observer:     observer,
		flushPending: true,
		kick:         make(chan struct{}, 1),
		newTicker:    newTimeTicker,
	}
}

// Start begins ticking every interval, transmitting to sink while armed. The
// first tick fires immediately.
func (p *RateLimitedCommandPublisher) Start(interval time.Duration, sink Sink) error {
	p.lifeMu.Lock()
	defer p.lifeMu.Unlock()

	if p.cancel != nil {
		return ErrAlreadyRunning
	}
	if interval <= 0 {
		return ErrInvalidInterval
	}
	if sink == nil || !sink.Ready() {
		return ErrSinkUnavailable
	}

	// A kick left over from an Arm before the previous Stop is stale.
	select {
	case <-p.kick:
	default:
	}

	p.mu.Lock()
	p.running = true
	p.sink = sink
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.run(ctx, interval, sink, p.newTicker(interval), done)

	p.logger.Infof("Command publisher started on %s every %v", sink.Topic(), interval)
	return nil
}

// Stop cancels the timer and waits for an in-flight tick to finish. Safe to
// call repeatedly or before Start.
func (p *RateLimitedCommandPublisher) Stop() {
	p.lifeMu.Lock()
	defer p.lifeMu.Unlock()

	if p.stopLocked() != nil {
		p.logger.Infof("Command publisher stopped")
	}
}

// StopWithFinal stops the publisher like Stop, then sends final once. No
// tick or flush can follow it, so final is the last value on the wire even
// if input keeps arriving. Nothing is sent when the publisher is not running.
func (p *RateLimitedCommandPublisher) StopWithFinal(final Command) error {
	p.lifeMu.Lock()
	defer p.lifeMu.Unlock()

	sink := p.stopLocked()
	if sink == nil {
		return nil
	}

	// A Disarm that read the sink before it was cleared holds sendMu until
	// its flush is out.
	p.sendMu.Lock()
	p.mu.Lock()
	wasArmed := p.armed
	p.armed = false
	p.current = final
	p.flushPending = false
	p.mu.Unlock()
	if wasArmed {
		p.observer.ArmedChanged(false)
	}
	err := p.transmit(KindFlush, sink, final)
	p.sendMu.Unlock()

	p.logger.Infof("Command publisher stopped after sending %s", final)
	return err
}

// stopLocked requires lifeMu. It returns the sink that was in use, or nil
// when the publisher was not running.
func (p *RateLimitedCommandPublisher) stopLocked() Sink {
	if p.cancel == nil {
		return nil
	}

	p.mu.Lock()
	sink := p.sink
	p.running = false
	p.sink = nil
	p.mu.Unlock()

	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil
	return sink
}

// SetCommand replaces the current command. It never transmits.
func (p *RateLimitedCommandPublisher) SetCommand(cmd Command) {
	p.mu.Lock()
	p.current = cmd
	p.flushPending = true
	p.mu.Unlock()
}

// Arm enables transmission on ticks. On the disarmed to armed edge the timer
// is kicked so the first held command is sent without waiting an interval.
func (p *RateLimitedCommandPublisher) Arm() {
	p.mu.Lock()
	edge := !p.armed
	p.armed = true
	p.flushPending = true
	running := p.running
	p.mu.Unlock()

	if !edge {
		return
	}
	p.observer.ArmedChanged(true)
	if running {
		select {
		case p.kick <- struct{}{}:
		default:
		}
	}
}

// Disarm suppresses further tick transmissions. The current command is kept.
// When flush is non-nil it is sent once, immediately, unless nothing was set
// or armed since the previous flush. Nothing is sent while stopped.
func (p *RateLimitedCommandPublisher) Disarm(flush *Command) error {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	p.mu.Lock()
	wasArmed := p.armed
	p.armed = false
	sink := p.sink
	doFlush := flush != nil && p.flushPending && sink != nil
	if doFlush {
		p.flushPending = false
	}
	p.mu.Unlock()

	if wasArmed {
		p.observer.ArmedChanged(false)
	}
	if !doFlush {
		return nil
	}
	return p.transmit(KindFlush, sink, *flush)
}

// State returns a consistent snapshot.
func (p *RateLimitedCommandPublisher) State() PublisherState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PublisherState{
		Armed:   p.armed,
		Current: p.current,
		Running: p.running,
	}
}

func (p *RateLimitedCommandPublisher) run(ctx context.Context, interval time.Duration, sink Sink, t ticker, done chan struct{}) {
	defer close(done)
	defer t.Stop()

	p.tick(sink)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			p.tick(sink)
		case <-p.kick:
			p.tick(sink)
			t.Reset(interval)
		}
	}
}

func (p *RateLimitedCommandPublisher) tick(sink Sink) {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	p.mu.Lock()
	armed := p.armed
	cmd := p.current
	p.mu.Unlock()

	if armed {
		// Failures are reported through the observer and the log; the
		// next tick tries again.
		_ = p.transmit(KindTick, sink, cmd)
	}
	p.observer.Tick(armed)
}

func (p *RateLimitedCommandPublisher) transmit(kind TransmitKind, sink Sink, cmd Command) error {
	if err := sink.Transmit(cmd); err != nil {
		terr := &TransportError{Topic: sink.Topic(), Err: err}
		p.observer.TransmitFailed(kind, terr)
		p.logger.Warnf("Failed %s transmit of %s: %v", kind, cmd, err)
		return terr
	}
	p.observer.Transmitted(kind, cmd)
	p.logger.Debugf("Sent %s %s on %s", kind, cmd, sink.Topic())
	return nil
}
