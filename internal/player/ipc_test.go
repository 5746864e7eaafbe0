package player

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"
)

// fakeMPV answers get_property requests over one end of a pipe.
func fakeMPV(t *testing.T, conn net.Conn, properties map[string]any) {
	t.Helper()
	go func() {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			var req ipcRequest
			if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
				continue
			}
			reply := map[string]any{"request_id": req.RequestID, "error": "success"}
			if len(req.Command) == 2 && req.Command[0] == "get_property" {
				name, _ := req.Command[1].(string)
				value, ok := properties[name]
				if !ok {
					reply["error"] = "property unavailable"
				} else {
					reply["data"] = value
				}
			}
			data, _ := json.Marshal(reply)
			conn.Write(append(data, '\n'))
		}
	}()
}

func TestIPCClient_GetProperties(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	fakeMPV(t, server, map[string]any{
		"time-pos": 12.5,
		"pause":    true,
	})

	c := newIPCClient(client)
	defer c.close()

	pos, err := c.getFloat(time.Second, "time-pos")
	if err != nil {
		t.Fatalf("getFloat failed: %v", err)
	}
	if pos != 12.5 {
		t.Errorf("unexpected position: %v", pos)
	}

	paused, err := c.getBool(time.Second, "pause")
	if err != nil {
		t.Fatalf("getBool failed: %v", err)
	}
	if !paused {
		t.Error("expected paused")
	}
}

func TestIPCClient_PropertyError(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	fakeMPV(t, server, map[string]any{})

	c := newIPCClient(client)
	defer c.close()

	if _, err := c.getFloat(time.Second, "time-pos"); err == nil {
		t.Fatal("expected error for unavailable property")
	}
}

func TestIPCClient_Events(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	c := newIPCClient(client)
	defer c.close()

	go server.Write([]byte(`{"event":"end-file","reason":"eof"}` + "\n"))

	select {
	case msg := <-c.Events():
		if msg.Event != "end-file" || msg.Reason != "eof" {
			t.Errorf("unexpected event: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestIPCClient_CloseDuringEventBurst(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	c := newIPCClient(client)

	// Keep events flowing while the client tears down, as mpv does when a
	// session is released mid-playback.
	line := []byte(`{"event":"playback-restart"}` + "\n")
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for i := 0; i < 1000; i++ {
			if _, err := server.Write(line); err != nil {
				return
			}
		}
	}()

	time.Sleep(10 * time.Millisecond)
	c.close()
	<-writerDone

	// The read loop alone closes the events channel once it stops sending;
	// drain until closure to prove teardown completes cleanly.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-c.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for events channel to close")
		}
	}
}

func TestIPCClient_CloseFailsPendingRequests(t *testing.T) {
	server, client := net.Pipe()

	c := newIPCClient(client)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.request(5*time.Second, "get_property", "time-pos")
		errCh <- err
	}()

	// Give the request time to register, then tear the connection down.
	time.Sleep(50 * time.Millisecond)
	server.Close()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected error after connection close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for request failure")
	}
}
