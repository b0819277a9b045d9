package ytdlp

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "fake-ytdlp")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

type recorder struct {
	mu     sync.Mutex
	stdout []string
	stderr strings.Builder
	exit   chan ExitStatus
}

func newRecorder() *recorder {
	return &recorder{exit: make(chan ExitStatus, 1)}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnStdout: func(b []byte) {
			r.mu.Lock()
			r.stdout = append(r.stdout, string(b))
			r.mu.Unlock()
		},
		OnStderr: func(b []byte) {
			r.mu.Lock()
			r.stderr.Write(b)
			r.mu.Unlock()
		},
		OnExit: func(s ExitStatus) { r.exit <- s },
	}
}

func (r *recorder) wait(t *testing.T) ExitStatus {
	t.Helper()
	select {
	case s := <-r.exit:
		return s
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for exit")
		return ExitStatus{}
	}
}

func TestExecStarter_SplitLines(t *testing.T) {
	script := writeScript(t, "echo '{\"id\":1}'\necho ''\necho '{\"id\":2}'\necho oops >&2\nexit 3\n")

	rec := newRecorder()
	if _, err := (ExecStarter{}).Start(Invocation{Program: script, SplitLines: true}, rec.callbacks()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	status := rec.wait(t)

	if !status.Normal || status.Code != 3 || status.Success() {
		t.Errorf("unexpected exit status %+v", status)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.stdout) != 2 || rec.stdout[0] != `{"id":1}` || rec.stdout[1] != `{"id":2}` {
		t.Errorf("unexpected stdout lines %q", rec.stdout)
	}
	if rec.stderr.String() != "oops\n" {
		t.Errorf("unexpected stderr %q", rec.stderr.String())
	}
}

func TestReadLines_OversizedLine(t *testing.T) {
	long := `{"id":"big","formats":[` + strings.Repeat(`{"format_id":"f","vcodec":"avc1"},`, 10) + `]}`
	input := `{"id":"a"}` + "\n" + long + "\r\n\n" + `{"id":"b"}`

	var lines []string
	readLines(strings.NewReader(input), 32, func(b []byte) { lines = append(lines, string(b)) })

	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", lines)
	}
	if lines[0] != `{"id":"a"}` || lines[2] != `{"id":"b"}` {
		t.Errorf("lines around the oversized one were lost: %q", lines)
	}
	if lines[1] != long[:32] {
		t.Errorf("expected the oversized line truncated to 32 bytes, got %q", lines[1])
	}
	if _, ok := ParseRawInfo([]byte(lines[1])); ok {
		t.Error("truncated record must not parse")
	}
}

func TestExecStarter_WorkingDir(t *testing.T) {
	script := writeScript(t, "pwd\n")
	dir := t.TempDir()

	rec := newRecorder()
	if _, err := (ExecStarter{}).Start(Invocation{Program: script, Dir: dir}, rec.callbacks()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if status := rec.wait(t); !status.Success() {
		t.Fatalf("unexpected exit status %+v", status)
	}

	rec.mu.Lock()
	out := strings.TrimSpace(strings.Join(rec.stdout, ""))
	rec.mu.Unlock()
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(out)
	if got != want {
		t.Errorf("expected working dir %q, got %q", want, got)
	}
}

func TestExecStarter_Kill(t *testing.T) {
	script := writeScript(t, "exec sleep 30\n")

	rec := newRecorder()
	proc, err := (ExecStarter{}).Start(Invocation{Program: script}, rec.callbacks())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	proc.Kill()
	proc.Kill()

	status := rec.wait(t)
	if status.Success() || status.Normal {
		t.Errorf("expected abnormal exit after kill, got %+v", status)
	}

	// Después de salir sigue siendo seguro
	proc.Kill()
}

func TestExecStarter_LaunchFailure(t *testing.T) {
	rec := newRecorder()
	_, err := (ExecStarter{}).Start(Invocation{Program: filepath.Join(t.TempDir(), "missing")}, rec.callbacks())
	if err == nil {
		t.Fatal("expected launch error")
	}
	select {
	case s := <-rec.exit:
		t.Errorf("exit callback must not fire on launch failure, got %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestResolve(t *testing.T) {
	script := writeScript(t, "exit 0\n")
	if _, err := Resolve(script); err != nil {
		t.Errorf("Resolve(existing) error = %v", err)
	}
	if _, err := Resolve("clearly-not-present-binary"); err == nil {
		t.Error("expected error for missing binary")
	}
	if _, err := Resolve("  "); err == nil {
		t.Error("expected error for empty program")
	}
}
