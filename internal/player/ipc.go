package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

var errIPCClosed = errors.New("ipc connection closed")

// ipcRequest is one mpv JSON IPC command.
type ipcRequest struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// ipcMessage is a decoded line from the socket: either a command reply
// (request_id set) or an asynchronous event.
type ipcMessage struct {
	RequestID int64           `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	Event     string          `json:"event"`
	Reason    string          `json:"reason"`
}

// ipcClient multiplexes requests and events over mpv's line-delimited JSON
// IPC socket.
type ipcClient struct {
	log  *slog.Logger
	conn net.Conn

	mu      sync.Mutex
	pending map[int64]chan ipcMessage
	nextID  int64
	closed  bool

	events chan ipcMessage
}

func newIPCClient(conn net.Conn) *ipcClient {
	c := &ipcClient{
		log:     slog.Default().With("component", "mpv-ipc"),
		conn:    conn,
		pending: make(map[int64]chan ipcMessage),
		events:  make(chan ipcMessage, 16),
	}
	go c.readLoop()
	return c
}

func (c *ipcClient) readLoop() {
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			c.log.Debug("skipping malformed ipc line", "err", err)
			continue
		}

		if msg.Event != "" {
			select {
			case c.events <- msg:
			default:
				// Event consumers that fall behind lose events, not requests.
			}
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[msg.RequestID]
		if ok {
			delete(c.pending, msg.RequestID)
		}
		c.mu.Unlock()
		if ok {
			ch <- msg
		}
	}
	c.close()
	// Only this goroutine sends on events, so only it may close the channel.
	close(c.events)
}

// request sends a command and waits for its reply.
func (c *ipcClient) request(timeout time.Duration, command ...any) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errIPCClosed
	}
	c.nextID++
	id := c.nextID
	ch := make(chan ipcMessage, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	data, err := json.Marshal(ipcRequest{Command: command, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("marshal ipc request: %w", err)
	}
	if _, err := c.conn.Write(append(data, '\n')); err != nil {
		c.drop(id)
		return nil, fmt.Errorf("write ipc request: %w", err)
	}

	select {
	case msg, ok := <-ch:
		if !ok {
			return nil, errIPCClosed
		}
		if msg.Error != "" && msg.Error != "success" {
			return nil, fmt.Errorf("mpv: %s", msg.Error)
		}
		return msg.Data, nil
	case <-time.After(timeout):
		c.drop(id)
		return nil, errors.New("ipc request timed out")
	}
}

func (c *ipcClient) drop(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// getFloat reads a float property.
func (c *ipcClient) getFloat(timeout time.Duration, property string) (float64, error) {
	data, err := c.request(timeout, "get_property", property)
	if err != nil {
		return 0, err
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, fmt.Errorf("parse %s: %w", property, err)
	}
	return v, nil
}

// getBool reads a boolean property.
func (c *ipcClient) getBool(timeout time.Duration, property string) (bool, error) {
	data, err := c.request(timeout, "get_property", property)
	if err != nil {
		return false, err
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return false, fmt.Errorf("parse %s: %w", property, err)
	}
	return v, nil
}

// Events delivers asynchronous mpv events.
func (c *ipcClient) Events() <-chan ipcMessage {
	return c.events
}

func (c *ipcClient) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	pending := c.pending
	c.pending = make(map[int64]chan ipcMessage)
	c.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}
	// Closing the conn stops readLoop, which then closes the events channel.
	c.conn.Close()
}
