package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/buger/jsonparser"
	"github.com/open-teleop/keypad/pkg/config"
	customlog "github.com/open-teleop/keypad/pkg/log"
	"github.com/pebbe/zmq4"
)

// Common errors
var (
	ErrServiceClosed      = errors.New("zeromq service is closed")
	ErrInvalidMessage     = errors.New("invalid message format")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// Message types
const (
	MsgTypeKeypadEvent    = "KEYPAD_EVENT"
	MsgTypeKeypadAck      = "KEYPAD_ACK"
	MsgTypeConfigRequest  = "CONFIG_REQUEST"
	MsgTypeConfigResponse = "CONFIG_RESPONSE"
	MsgTypeConfigUpdated  = "CONFIG_UPDATED"
	MsgTypeError          = "ERROR"
)

const (
	socketTimeout = 1 * time.Second
	pollInterval  = 500 * time.Millisecond
)

// ZeroMQMessage represents a generic message structure for ZeroMQ communication
type ZeroMQMessage struct {
	Type      string      `json:"type"`
	Timestamp float64     `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// ErrorResponse represents an error response message
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// MessageHandler processes the raw bytes of one message type and returns the
// reply.
type MessageHandler interface {
	HandleMessage(data []byte) ([]byte, error)
}

// HandlerFunc is a function type that implements MessageHandler
type HandlerFunc func(data []byte) ([]byte, error)

// HandleMessage calls the function
func (f HandlerFunc) HandleMessage(data []byte) ([]byte, error) {
	return f(data)
}

func newMessage(msgType string, data interface{}) ZeroMQMessage {
	return ZeroMQMessage{
		Type:      msgType,
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
		Data:      data,
	}
}

// errorReply builds the ERROR reply sent back on the REP socket.
func errorReply(err error) []byte {
	code := 500
	switch {
	case errors.Is(err, ErrInvalidMessage):
		code = 400
	case errors.Is(err, ErrUnknownMessageType):
		code = 404
	}
	data, _ := json.Marshal(newMessage(MsgTypeError, ErrorResponse{Message: err.Error(), Code: code}))
	return data
}

// MessageReceiver answers requests on a REP socket
type MessageReceiver struct {
	socket     *zmq4.Socket
	dispatcher *MessageDispatcher
	poller     *zmq4.Poller
	logger     customlog.Logger
	running    atomic.Bool
	wg         *sync.WaitGroup
}

func newMessageReceiver(ctx *zmq4.Context, address string, dispatcher *MessageDispatcher, logger customlog.Logger, wg *sync.WaitGroup) (*MessageReceiver, error) {
	socket, err := ctx.NewSocket(zmq4.REP)
	if err != nil {
		return nil, fmt.Errorf("failed to create REP socket: %w", err)
	}

	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	// Timeouts keep shutdown from blocking on a half-finished exchange.
	if err := socket.SetRcvtimeo(socketTimeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set receive timeout: %w", err)
	}
	if err := socket.SetSndtimeo(socketTimeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set send timeout: %w", err)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	logger.Infof("MessageReceiver initialized on %s", address)

	return &MessageReceiver{
		socket:     socket,
		dispatcher: dispatcher,
		poller:     poller,
		logger:     logger,
		wg:         wg,
	}, nil
}

// Start begins the message receiving loop
func (r *MessageReceiver) Start() {
	if !r.running.CompareAndSwap(false, true) {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.socket.Close()
		r.logger.Debugf("MessageReceiver started")

		for r.running.Load() {
			sockets, err := r.poller.Poll(pollInterval)
			if err != nil {
				if r.running.Load() {
					r.logger.Errorf("Error polling socket: %v", err)
				}
				continue
			}
			if len(sockets) == 0 {
				continue
			}

			msg, err := r.socket.RecvBytes(0)
			if err != nil {
				if r.running.Load() {
					r.logger.Errorf("Error receiving message: %v", err)
				}
				continue
			}

			r.logger.Debugf("Received request (%d bytes)", len(msg))

			response, err := r.dispatcher.Dispatch(msg)
			if err != nil {
				r.logger.Warnf("Error dispatching message: %v", err)
				response = errorReply(err)
			}

			// REP requires a reply for every request.
			if _, err := r.socket.SendBytes(response, 0); err != nil && r.running.Load() {
				r.logger.Errorf("Error sending response: %v", err)
			}
		}
	}()
}

// Stop halts the receiving loop. The loop closes the socket on exit.
func (r *MessageReceiver) Stop() {
	r.running.Store(false)
}

// MessageSender publishes topic-framed messages on a PUB socket
type MessageSender struct {
	socket  *zmq4.Socket
	logger  customlog.Logger
	running bool
	mu      sync.Mutex
}

func newMessageSender(ctx *zmq4.Context, address string, logger customlog.Logger) (*MessageSender, error) {
	socket, err := ctx.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}

	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	logger.Infof("MessageSender initialized on %s", address)

	return &MessageSender{
		socket:  socket,
		logger:  logger,
		running: true,
	}, nil
}

// PublishMessage sends a two-frame message: topic, then payload.
func (s *MessageSender) PublishMessage(topic string, message []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrServiceClosed
	}

	if _, err := s.socket.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := s.socket.SendBytes(message, 0); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Close cleans up resources
func (s *MessageSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	if s.socket != nil {
		s.socket.Close()
		s.socket = nil
	}
}

// MessageDispatcher routes JSON requests to handlers by their "type" field
type MessageDispatcher struct {
	handlers map[string]MessageHandler
	logger   customlog.Logger
	mu       sync.RWMutex
}

// NewMessageDispatcher creates a new message dispatcher
func NewMessageDispatcher(logger customlog.Logger) *MessageDispatcher {
	return &MessageDispatcher{
		handlers: make(map[string]MessageHandler),
		logger:   logger,
	}
}

// RegisterHandler adds a handler for a specific message type
func (d *MessageDispatcher) RegisterHandler(messageType string, handler MessageHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[messageType] = handler
	d.logger.Debugf("Registered handler for message type: %s", messageType)
}

// Dispatch reads only the type field and hands the untouched bytes to the
// registered handler.
func (d *MessageDispatcher) Dispatch(data []byte) ([]byte, error) {
	msgType, err := jsonparser.GetString(data, "type")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	d.mu.RLock()
	handler, exists := d.handlers[msgType]
	d.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, msgType)
	}

	d.logger.Debugf("Dispatching message of type: %s", msgType)
	return handler.HandleMessage(data)
}

// ZeroMQService owns the ZeroMQ context and the keypad's bound sockets
type ZeroMQService struct {
	config     config.ZeroMQBootstrap
	ctx        *zmq4.Context
	receiver   *MessageReceiver
	sender     *MessageSender
	dispatcher *MessageDispatcher
	logger     customlog.Logger
	running    atomic.Bool
	wg         sync.WaitGroup
}

// NewZeroMQService creates the context and binds the request and publish
// sockets.
func NewZeroMQService(cfg config.ZeroMQBootstrap, logger customlog.Logger) (*ZeroMQService, error) {
	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	s := &ZeroMQService{
		config:     cfg,
		ctx:        ctx,
		dispatcher: NewMessageDispatcher(logger),
		logger:     logger,
	}

	s.receiver, err = newMessageReceiver(ctx, cfg.RequestBindAddress, s.dispatcher, logger, &s.wg)
	if err != nil {
		ctx.Term()
		return nil, err
	}

	s.sender, err = newMessageSender(ctx, cfg.PublishBindAddress, logger)
	if err != nil {
		s.receiver.socket.Close()
		ctx.Term()
		return nil, err
	}

	return s, nil
}

// Context returns the ZeroMQ context shared by additional sockets.
func (s *ZeroMQService) Context() *zmq4.Context {
	return s.ctx
}

// RegisterHandler adds a handler for a specific message type
func (s *ZeroMQService) RegisterHandler(messageType string, handler MessageHandler) {
	s.dispatcher.RegisterHandler(messageType, handler)
}

// Start begins serving requests
func (s *ZeroMQService) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	s.logger.Infof("Starting ZeroMQ service")
	s.receiver.Start()
	return nil
}

// Ready reports whether the publish socket can accept messages.
func (s *ZeroMQService) Ready() bool {
	return s.running.Load()
}

// Stop closes the sockets and terminates the context. Sockets created from
// Context must be closed before calling Stop.
func (s *ZeroMQService) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}

	s.logger.Infof("Stopping ZeroMQ service")
	s.receiver.Stop()
	s.sender.Close()
	s.wg.Wait()

	if err := s.ctx.Term(); err != nil {
		s.logger.Warnf("Error terminating ZMQ context: %v", err)
	}
	s.logger.Infof("ZeroMQ service stopped")
}

// PublishMessage sends a message with the given topic
func (s *ZeroMQService) PublishMessage(topic string, message []byte) error {
	if !s.running.Load() {
		return ErrServiceClosed
	}
	return s.sender.PublishMessage(topic, message)
}

// PublishJSON publishes a JSON-serializable message with the given topic
func (s *ZeroMQService) PublishJSON(topic string, messageType string, data interface{}) error {
	msgData, err := json.Marshal(newMessage(messageType, data))
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return s.PublishMessage(topic, msgData)
}
