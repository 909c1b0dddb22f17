package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestHealthURL(t *testing.T) {
	if got := healthURL("http://127.0.0.1:8091/mcp"); got != "http://127.0.0.1:8091/mcp/health" {
		t.Fatalf("healthURL = %q", got)
	}
}

func TestWaitHealthyRetriesUntilOK(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := waitHealthy(ctx, server.Client(), server.URL); err != nil {
		t.Fatalf("waitHealthy: %v", err)
	}
	if hits.Load() < 3 {
		t.Fatalf("hits = %d, want at least 3", hits.Load())
	}
}

func TestWaitHealthyHonorsDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err := waitHealthy(ctx, server.Client(), server.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestExitCode(t *testing.T) {
	if got := exitCode(nil); got != 0 {
		t.Fatalf("exitCode(nil) = %d", got)
	}
	if got := exitCode(errors.New("boom")); got != 1 {
		t.Fatalf("exitCode(plain) = %d", got)
	}
	err := exec.Command("sh", "-c", "exit 3").Run()
	if got := exitCode(err); got != 3 {
		t.Fatalf("exitCode(exit 3) = %d", got)
	}
}

// trapChild starts sh with onTerm as its TERM handler. The script touches
// ready once the trap is installed.
func trapChild(t *testing.T, sup *supervisor, name, onTerm, logPath string) *childProcess {
	t.Helper()
	ready := filepath.Join(t.TempDir(), name+".ready")
	script := "trap '" + onTerm + "' TERM; : > \"$1\"; while :; do sleep 0.05; done"
	child, err := startChild(name, exec.Command("sh", "-c", script, logPath, ready))
	if err != nil {
		t.Fatalf("start %s: %v", name, err)
	}
	sup.start(child)
	t.Cleanup(func() { _ = child.cmd.Process.Kill() })

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(ready); err == nil {
			return child
		}
		if time.Now().After(deadline) {
			t.Fatalf("%s never became ready", name)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSupervisorStopsChildrenInOrder(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "order.log")
	sup := newSupervisor()
	// The agent takes a moment to exit; the feed must not be signalled first.
	agent := trapChild(t, sup, "agent", `sleep 0.3; echo agent >> "$0"; exit 0`, logPath)
	feed := trapChild(t, sup, "chatfeed", `echo chatfeed >> "$0"; exit 0`, logPath)

	sup.stop([]*childProcess{agent, feed}, 5*time.Second)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if got := string(data); got != "agent\nchatfeed\n" {
		t.Fatalf("stop order = %q, want agent then chatfeed", got)
	}
	for _, name := range []string{"agent", "chatfeed"} {
		if _, ok := sup.exited[name]; !ok {
			t.Fatalf("%s exit not recorded", name)
		}
	}
}

func TestSupervisorKillsChildIgnoringTerm(t *testing.T) {
	sup := newSupervisor()
	stubborn := trapChild(t, sup, "agent", "", filepath.Join(t.TempDir(), "unused.log"))

	start := time.Now()
	sup.stop([]*childProcess{stubborn}, 200*time.Millisecond)
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("stop took %s", elapsed)
	}
	err, ok := sup.exited["agent"]
	if !ok {
		t.Fatal("killed child exit not recorded")
	}
	if err == nil {
		t.Fatal("killed child exit error = nil, want signal exit")
	}
}

func TestSupervisorSkipsExitedChild(t *testing.T) {
	sup := newSupervisor()
	child, err := startChild("chatfeed", exec.Command("sh", "-c", "exit 2"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	sup.start(child)
	exit := <-sup.exits
	sup.record(exit)
	if exitCode(exit.err) != 2 {
		t.Fatalf("exit = %v, want code 2", exit.err)
	}

	sup.stop([]*childProcess{child, nil}, time.Second)
	if got := exitCode(sup.exited["chatfeed"]); got != 2 {
		t.Fatalf("recorded exit code = %d, want 2", got)
	}
}
