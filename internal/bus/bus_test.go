package bus

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestPidManagerBasics(t *testing.T) {
	tempDir := t.TempDir()

	testPidManager := &pidManager{
		path: filepath.Join(tempDir, PidName),
	}

	t.Run("create and remove PID file", func(t *testing.T) {
		if err := testPidManager.create(); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		pidData, err := os.ReadFile(testPidManager.path)
		if err != nil {
			t.Fatalf("failed to read PID file: %v", err)
		}
		if string(pidData) != strconv.Itoa(os.Getpid()) {
			t.Errorf("PID file contains %q, expected %d", pidData, os.Getpid())
		}

		if err := testPidManager.remove(); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		if _, err := os.Stat(testPidManager.path); !os.IsNotExist(err) {
			t.Error("PID file should not exist after removal")
		}
	})

	t.Run("checkExisting with no PID file", func(t *testing.T) {
		if err := testPidManager.checkExisting(); err != nil {
			t.Errorf("checkExisting should not error when no PID file exists: %v", err)
		}
	})

	t.Run("checkExisting with current process", func(t *testing.T) {
		if err := testPidManager.create(); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		defer testPidManager.remove()

		if err := testPidManager.checkExisting(); err == nil {
			t.Error("checkExisting should fail when process is running")
		}
	})

	for _, content := range []string{"99999999", "invalid"} {
		t.Run("checkExisting removes "+content, func(t *testing.T) {
			if err := os.WriteFile(testPidManager.path, []byte(content), 0o600); err != nil {
				t.Fatalf("failed to write PID file: %v", err)
			}
			if err := testPidManager.checkExisting(); err != nil {
				t.Errorf("checkExisting should succeed: %v", err)
			}
			if _, err := os.Stat(testPidManager.path); !os.IsNotExist(err) {
				t.Error("stale PID file should be removed")
			}
		})
	}
}

func TestIsProcessAlive(t *testing.T) {
	pm := &pidManager{}

	if !pm.isProcessAlive(os.Getpid()) {
		t.Error("current process should be alive")
	}
	if pm.isProcessAlive(99999999) {
		t.Error("non-existent process should not be alive")
	}
	if pm.isProcessAlive(0) {
		t.Error("pid 0 should not be treated as alive")
	}
}

func TestSocketRoundTrip(t *testing.T) {
	// unix socket paths are length limited; keep it short
	dir, err := os.MkdirTemp("", "mi")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	sm := &socketManager{path: filepath.Join(dir, SockName)}
	ln, err := sm.listen()
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer ln.Close()

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			line, _ := bufio.NewReader(c).ReadString('\n')
			if len(line) > 0 {
				fmt.Fprintf(c, "STATUS echo=%c\n", line[0])
			}
			c.Close()
		}
	}()

	for _, cmd := range []byte{CmdToggle, CmdStatus, CmdVersion, CmdQuit} {
		resp, err := sm.sendCommand(cmd)
		if err != nil {
			t.Fatalf("sendCommand(%c): %v", cmd, err)
		}
		if want := fmt.Sprintf("STATUS echo=%c\n", cmd); resp != want {
			t.Errorf("got %q, want %q", resp, want)
		}
	}
}

func TestSendCommandWithoutListener(t *testing.T) {
	sm := &socketManager{path: filepath.Join(t.TempDir(), "none.sock")}
	if _, err := sm.sendCommand(CmdStatus); err == nil {
		t.Error("expected dial error")
	}
}

func TestPathFunctions(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/cache")

	sock, err := SockPath()
	if err != nil {
		t.Fatalf("SockPath failed: %v", err)
	}
	if sock != "/cache/medintake/control.sock" {
		t.Errorf("unexpected socket path %s", sock)
	}

	pid, err := PidPath()
	if err != nil {
		t.Fatalf("PidPath failed: %v", err)
	}
	if pid != "/cache/medintake/medintake.pid" {
		t.Errorf("unexpected pid path %s", pid)
	}
}

func TestPublicPidAPI(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	if err := CheckExistingDaemon(); err != nil {
		t.Errorf("CheckExistingDaemon with no session: %v", err)
	}
	if err := CreatePidFile(); err != nil {
		t.Fatalf("CreatePidFile failed: %v", err)
	}
	if err := CheckExistingDaemon(); err == nil {
		t.Error("expected running session to be detected")
	}
	if err := RemovePidFile(); err != nil {
		t.Fatalf("RemovePidFile failed: %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		resp    string
		want    map[string]string
		wantErr bool
	}{
		{resp: "STATUS mode=scripted capture=active\n", want: map[string]string{"mode": "scripted", "capture": "active"}},
		{resp: "STATUS proto=0.2\n", want: map[string]string{"proto": "0.2"}},
		{resp: "OK toggled\n", wantErr: true},
		{resp: "", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseStatus(tc.resp)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseStatus(%q): expected error", tc.resp)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", tc.resp, err)
		}
		if len(got) != len(tc.want) {
			t.Errorf("ParseStatus(%q) = %v, want %v", tc.resp, got, tc.want)
		}
		for k, v := range tc.want {
			if got[k] != v {
				t.Errorf("ParseStatus(%q)[%s] = %q, want %q", tc.resp, k, got[k], v)
			}
		}
	}
}
