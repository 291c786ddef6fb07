package daemon

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/leonardotrapani/medintake/internal/bus"
	"github.com/leonardotrapani/medintake/internal/conversation"
	"github.com/leonardotrapani/medintake/internal/notify"
	"github.com/leonardotrapani/medintake/internal/store"
	"github.com/leonardotrapani/medintake/internal/testutil"
)

// fakeFrontend records surface callbacks and hands the session to the test.
type fakeFrontend struct {
	*testutil.MockSurface
	sessions chan Session
}

func newFakeFrontend() *fakeFrontend {
	return &fakeFrontend{
		MockSurface: testutil.NewMockSurface(),
		sessions:    make(chan Session, 1),
	}
}

func (f *fakeFrontend) Run(ctx context.Context, s Session) error {
	f.sessions <- s
	<-ctx.Done()
	return ctx.Err()
}

type harness struct {
	daemon   *Daemon
	frontend *fakeFrontend
	store    *store.Store
	capturer *testutil.MockCapturer
	gen      *testutil.MockGenerator
	errCh    chan error
}

func setupRuntimeDir(t *testing.T) {
	t.Helper()
	// unix socket paths are length limited
	dir, err := os.MkdirTemp("", "mid")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	t.Setenv("XDG_CACHE_HOME", dir)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	setupRuntimeDir(t)

	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	cfg := testutil.TestConfig()
	cfg.Script.Greeting = "hello"
	cfg.Script.Questions = []string{"any more?"}

	h := &harness{
		frontend: newFakeFrontend(),
		store:    st,
		capturer: testutil.NewMockCapturer([]byte{1, 2, 3, 4}),
		gen:      testutil.NewMockGenerator("# record"),
		errCh:    make(chan error, 1),
	}
	h.daemon = New(Options{
		Config:   cfg,
		Frontend: h.frontend,
		Notifier: notify.Nop{},
		Services: &Services{
			Capturer: h.capturer,
			Recognizer: &testutil.MockRecognizer{TranscribeFunc: func(ctx context.Context, pcm []byte) (string, error) {
				return "张三", nil
			}},
			Generator: h.gen,
			Store:     st,
		},
	})
	return h
}

func (h *harness) start(t *testing.T) Session {
	t.Helper()
	go func() { h.errCh <- h.daemon.Run() }()

	select {
	case s := <-h.frontend.sessions:
		waitForSocket(t)
		return s
	case err := <-h.errCh:
		t.Fatalf("daemon exited early: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("daemon failed to start within timeout")
	}
	return nil
}

func waitForSocket(t *testing.T) {
	t.Helper()
	testutil.WaitForCondition(t, func() bool {
		_, err := bus.SendCommand(bus.CmdVersion)
		return err == nil
	}, 2*time.Second)
}

func (h *harness) waitExit(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.errCh:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("daemon did not exit within timeout")
		return nil
	}
}

func TestToggleAndStatus(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	out, err := bus.SendCommand(bus.CmdStatus)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	status, err := bus.ParseStatus(out)
	if err != nil {
		t.Fatalf("bad status reply %q: %v", out, err)
	}
	if status["mode"] != string(conversation.ScriptedQuestioning) || status["turns"] != "1" || status["capture"] != "idle" {
		t.Errorf("unexpected initial status %v", status)
	}

	if out, err := bus.SendCommand(bus.CmdToggle); err != nil || out != "STATUS capture=active\n" {
		t.Fatalf("first toggle: %q, %v", out, err)
	}
	if out, err := bus.SendCommand(bus.CmdToggle); err != nil || out != "STATUS capture=stopped\n" {
		t.Fatalf("second toggle: %q, %v", out, err)
	}

	testutil.WaitForCondition(t, func() bool {
		echoes := h.frontend.Echoes()
		return len(echoes) == 1 && echoes[0] == "张三"
	}, 2*time.Second)

	if out, err := bus.SendCommand(bus.CmdVersion); err != nil || out != "STATUS proto="+bus.ProtoVer+"\n" {
		t.Errorf("version: %q, %v", out, err)
	}
	if out, _ := bus.SendCommand('x'); !strings.HasPrefix(out, "ERR unknown") {
		t.Errorf("unknown command reply %q", out)
	}

	if out, err := bus.SendCommand(bus.CmdQuit); err != nil || out != "OK quitting\n" {
		t.Fatalf("quit: %q, %v", out, err)
	}
	if err := h.waitExit(t); err != nil {
		t.Errorf("Run returned %v", err)
	}

	if _, err := os.Stat(h.store.ScratchDir()); !os.IsNotExist(err) {
		t.Error("scratch directory survived shutdown")
	}
	pidPath, _ := bus.PidPath()
	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Error("pid file survived shutdown")
	}
}

func TestConfirmEndsSession(t *testing.T) {
	h := newHarness(t)
	s := h.start(t)

	if err := s.SubmitUserText("张三, 45岁"); err != nil {
		t.Fatal(err)
	}
	if err := s.SubmitUserText("没有了"); err != nil {
		t.Fatal(err)
	}

	testutil.WaitForCondition(t, func() bool {
		return len(h.frontend.Records()) == 1
	}, 2*time.Second)

	if err := s.ConfirmRecord(); err != nil {
		t.Fatalf("ConfirmRecord: %v", err)
	}
	if err := h.waitExit(t); err != nil {
		t.Errorf("Run returned %v", err)
	}

	if len(h.frontend.Ended()) != 1 {
		t.Error("frontend was not told the session ended")
	}

	records, err := h.store.ListRecords()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 saved record, got %d", len(records))
	}
	if doc, _ := h.store.ReadRecord(records[0].Name); doc != "# record" {
		t.Errorf("unexpected saved record %q", doc)
	}

	msgs := h.frontend.AssistantMessages()
	if last := msgs[len(msgs)-1]; !strings.Contains(last, records[0].Path) {
		t.Errorf("result message does not name the saved file: %q", last)
	}
}

func TestToggleReportsDeviceFailure(t *testing.T) {
	h := newHarness(t)
	h.capturer.CaptureError = os.ErrNotExist
	h.start(t)

	out, err := bus.SendCommand(bus.CmdToggle)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "ERR ") {
		t.Errorf("expected error reply, got %q", out)
	}

	errs := h.frontend.Errors()
	if len(errs) != 1 || errs[0].Kind != conversation.DeviceUnavailable {
		t.Errorf("unexpected surface errors %+v", errs)
	}

	bus.SendCommand(bus.CmdQuit)
	h.waitExit(t)
}

func TestRunRefusesSecondSession(t *testing.T) {
	h := newHarness(t)
	if err := bus.CreatePidFile(); err != nil {
		t.Fatal(err)
	}
	defer bus.RemovePidFile()

	err := h.daemon.Run()
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected already running error, got %v", err)
	}
	if _, err := os.Stat(h.store.ScratchDir()); !os.IsNotExist(err) {
		t.Error("services not released on early exit")
	}
}

func TestFormatStatus(t *testing.T) {
	snap := conversation.Snapshot{
		Turns:      make([]conversation.Turn, 3),
		Cursor:     2,
		Mode:       conversation.SupplementCollection,
		Capture:    &conversation.VoiceTurn{Kind: conversation.CaptureTurn, Status: conversation.Active},
		Generating: true,
	}
	want := "mode=supplement_collection cursor=2 turns=3 capture=active playback=idle generating=true record_ready=false"
	if got := formatStatus(snap); got != want {
		t.Errorf("formatStatus =\n %s\nwant\n %s", got, want)
	}
}
