package grpc

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/emmett/dictate/internal/app"
	"github.com/emmett/dictate/internal/audio"
	"github.com/emmett/dictate/internal/session"
)

type fakeController struct {
	state   session.State
	err     error
	toggles int
}

func (f *fakeController) Toggle() (session.State, error) {
	f.toggles++
	if f.err != nil {
		return session.Idle, f.err
	}
	if f.state == session.Idle {
		f.state = session.Recording
	} else {
		f.state = session.Transcribing
	}
	return f.state, nil
}

func (f *fakeController) Status() app.Status {
	return app.Status{State: f.state, Message: "Recording..."}
}

func startBufconn(t *testing.T, controller Controller) *ControlClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer("bufnet", controller)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewControlClient(conn)
}

func TestControlToggleAndStatus(t *testing.T) {
	controller := &fakeController{}
	client := startBufconn(t, controller)
	ctx := context.Background()

	state, err := client.Toggle(ctx)
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if state != "recording" {
		t.Fatalf("expected recording, got %q", state)
	}

	line, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if line != "recording: Recording..." {
		t.Fatalf("unexpected status %q", line)
	}
}

func TestControlToggleDeviceError(t *testing.T) {
	controller := &fakeController{err: audio.ErrDeviceUnavailable}
	client := startBufconn(t, controller)

	_, err := client.Toggle(context.Background())
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("expected Unavailable, got %v", err)
	}
	if controller.toggles != 1 {
		t.Fatalf("expected one toggle, got %d", controller.toggles)
	}
}
