package player

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"finview/services/playback"
)

const (
	propertyTimeout = time.Second
	connectTimeout  = 5 * time.Second
)

// MPV drives a local mpv process over its JSON IPC socket. It satisfies
// playback.Player; each instance owns one mpv process for one session.
type MPV struct {
	log    *slog.Logger
	binary string

	mu       sync.Mutex
	cmd      *exec.Cmd
	ipc      *ipcClient
	callback func(playback.Event)
	position time.Duration
	paused   bool
	released bool
}

// NewMPV creates an mpv-backed player. binary is the mpv executable name or
// path; empty means "mpv" on PATH.
func NewMPV(binary string) *MPV {
	if binary == "" {
		binary = "mpv"
	}
	return &MPV{
		log:    slog.Default().With("component", "mpv"),
		binary: binary,
	}
}

// Load starts an mpv process playing the stream and connects to its IPC socket.
func (p *MPV) Load(opts playback.LoadOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil {
		return errors.New("player already loaded")
	}

	socket := filepath.Join(os.TempDir(), "finview-mpv-"+uuid.NewString()+".sock")

	args := []string{
		"--no-terminal",
		"--force-window=yes",
		"--input-ipc-server=" + socket,
		fmt.Sprintf("--start=%.3f", opts.StartPosition.Seconds()),
	}
	if opts.AudioStreamIndex >= 0 {
		args = append(args, fmt.Sprintf("--aid=%d", opts.AudioStreamIndex))
	}
	if opts.SubtitleIndex >= 0 {
		args = append(args, fmt.Sprintf("--sid=%d", opts.SubtitleIndex))
	}
	if opts.TunneledDecoding {
		args = append(args, "--hwdec=auto")
	}
	args = append(args, opts.StreamURL)

	cmd := exec.Command(p.binary, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	conn, err := dialWithRetry(socket, connectTimeout)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return fmt.Errorf("connect mpv ipc: %w", err)
	}

	p.cmd = cmd
	p.ipc = newIPCClient(conn)
	p.position = opts.StartPosition

	go p.watchEvents(p.ipc)

	p.log.Info("mpv started", "url", opts.StreamURL, "start", opts.StartPosition)
	return nil
}

// dialWithRetry waits for mpv to create its IPC socket.
func dialWithRetry(socket string, timeout time.Duration) (net.Conn, error) {
	deadline := time.Now().Add(timeout)
	for {
		conn, err := net.Dial("unix", socket)
		if err == nil {
			return conn, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func (p *MPV) watchEvents(ipc *ipcClient) {
	for msg := range ipc.Events() {
		switch msg.Event {
		case "end-file":
			p.mu.Lock()
			cb := p.callback
			released := p.released
			p.mu.Unlock()

			if released || cb == nil {
				continue
			}
			if msg.Reason == "error" {
				cb(playback.Event{Type: playback.EventError, Err: errors.New("mpv playback error")})
			} else {
				cb(playback.Event{Type: playback.EventEnded})
			}
		}
	}
}

// Position returns the current playback position. IPC failures fall back to
// the last observed position so the heartbeat always has a value to report.
func (p *MPV) Position() time.Duration {
	p.mu.Lock()
	ipc := p.ipc
	last := p.position
	p.mu.Unlock()
	if ipc == nil {
		return last
	}

	seconds, err := ipc.getFloat(propertyTimeout, "time-pos")
	if err != nil {
		return last
	}
	pos := time.Duration(seconds * float64(time.Second))

	p.mu.Lock()
	p.position = pos
	p.mu.Unlock()
	return pos
}

// Paused reports whether playback is suspended.
func (p *MPV) Paused() bool {
	p.mu.Lock()
	ipc := p.ipc
	last := p.paused
	p.mu.Unlock()
	if ipc == nil {
		return last
	}

	paused, err := ipc.getBool(propertyTimeout, "pause")
	if err != nil {
		return last
	}

	p.mu.Lock()
	p.paused = paused
	p.mu.Unlock()
	return paused
}

// OnEvent installs the lifecycle callback; nil detaches it.
func (p *MPV) OnEvent(fn func(playback.Event)) {
	p.mu.Lock()
	p.callback = fn
	p.mu.Unlock()
}

// Release quits mpv and reaps the process.
func (p *MPV) Release() error {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return nil
	}
	p.released = true
	ipc := p.ipc
	cmd := p.cmd
	p.mu.Unlock()

	if ipc != nil {
		// Best effort: ask mpv to quit before killing it.
		ipc.request(propertyTimeout, "quit")
		ipc.close()
	}
	if cmd != nil {
		done := make(chan error, 1)
		go func() { done <- cmd.Wait() }()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			cmd.Process.Kill()
			<-done
		}
	}
	p.log.Info("mpv released")
	return nil
}
