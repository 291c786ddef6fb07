package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/medintake/internal/conversation"
	"github.com/leonardotrapani/medintake/internal/daemon"
	"github.com/muesli/termenv"
)

// Input commands understood by the terminal.
const (
	CmdVoice  = "/v"
	CmdStatus = "/s"
	CmdQuit   = "/q"
	CmdHelp   = "/h"
)

// ConfirmFunc asks whether the displayed record is accepted. Answers are read
// from in, one per line.
type ConfirmFunc func(in io.Reader, out io.Writer) (bool, error)

type TerminalOption func(*Terminal)

// WithConfirm replaces the huh confirmation dialog.
func WithConfirm(fn ConfirmFunc) TerminalOption {
	return func(t *Terminal) { t.confirm = fn }
}

// WithClearScreen clears the terminal before the banner is drawn.
func WithClearScreen(clear bool) TerminalOption {
	return func(t *Terminal) { t.clear = clear }
}

// Terminal is a line-oriented chat surface. Patient text is read from in;
// everything the coordinator emits is written to out.
type Terminal struct {
	in      io.Reader
	out     io.Writer
	term    *termenv.Output
	confirm ConfirmFunc
	clear   bool

	mu sync.Mutex // serializes writes to out

	records chan struct{}
	ended   chan struct{}
	endOnce sync.Once
}

func NewTerminal(in io.Reader, out io.Writer, opts ...TerminalOption) *Terminal {
	t := &Terminal{
		in:      in,
		out:     out,
		term:    termenv.NewOutput(out),
		confirm: confirmRecord,
		records: make(chan struct{}, 1),
		ended:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var _ daemon.Frontend = (*Terminal)(nil)

func (t *Terminal) OnAssistantMessage(text string) {
	t.println(StyleAssistant.Render("医生助手") + "  " + text)
}

func (t *Terminal) OnUserMessageEcho(text string) {
	t.println(StylePatient.Render("患者") + "  " + text)
}

func (t *Terminal) OnRecordReady(document string) {
	t.println(StyleBox.Render(document))
	select {
	case t.records <- struct{}{}:
	default:
	}
}

func (t *Terminal) OnError(kind conversation.ErrorKind, message string) {
	style := StyleError
	if kind == conversation.AlreadyRecording {
		style = StyleMuted
	}
	t.println(style.Render(message))
}

func (t *Terminal) OnCaptureStateChanged(recording bool) {
	if recording {
		t.println(StyleRecording.Render("● 正在录音，输入 " + CmdVoice + " 结束"))
	} else {
		t.println(StyleSubtle.Render("录音已结束"))
	}
}

func (t *Terminal) OnSessionEnded(message string) {
	t.println(StyleSuccess.Render(message))
	t.endOnce.Do(func() { close(t.ended) })
}

// Run reads patient input until the session ends, ctx is cancelled, the
// patient quits, or in reaches EOF.
func (t *Terminal) Run(ctx context.Context, session daemon.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if t.clear {
		t.term.ClearScreen()
	}
	t.term.SetWindowTitle("medintake")
	t.println(Logo())
	t.printHelp()

	lines := make(chan string)
	go t.readLines(ctx, lines)
	answers := &lineReader{ctx: ctx, lines: lines}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.ended:
			return nil
		case <-t.records:
			if err := t.reviewRecord(session, answers); err != nil {
				return err
			}
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := t.handleLine(session, line); quit {
				return nil
			}
		}
	}
}

func (t *Terminal) handleLine(session daemon.Session, line string) bool {
	text := strings.TrimSpace(line)
	switch text {
	case "":
	case CmdQuit:
		return true
	case CmdHelp:
		t.printHelp()
	case CmdStatus:
		snap, err := session.Snapshot()
		if err != nil {
			t.println(StyleError.Render(err.Error()))
			break
		}
		t.println(StyleMuted.Render(formatSnapshot(snap)))
	case CmdVoice:
		if _, err := session.ToggleVoiceCapture(); err != nil {
			// device errors are already reported through OnError
			log.Printf("Terminal: toggle capture: %v", err)
		}
	default:
		if err := session.SubmitUserText(text); err != nil {
			t.println(StyleError.Render(err.Error()))
		}
	}
	return false
}

func (t *Terminal) reviewRecord(session daemon.Session, answers io.Reader) error {
	if snap, err := session.Snapshot(); err != nil || !snap.RecordReady {
		return nil
	}

	ok, err := t.confirm(answers, t.out)
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			ok = false
		} else {
			t.println(StyleError.Render(fmt.Sprintf("确认失败: %v", err)))
			return nil
		}
	}

	if ok {
		err = session.ConfirmRecord()
	} else {
		err = session.ReturnToConversation()
	}
	if err != nil && !errors.Is(err, conversation.ErrSessionClosed) {
		t.println(StyleError.Render(err.Error()))
	}
	return nil
}

func (t *Terminal) readLines(ctx context.Context, lines chan<- string) {
	defer close(lines)

	scanner := bufio.NewScanner(t.in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("Terminal: read input: %v", err)
	}
}

func (t *Terminal) printHelp() {
	t.println(StyleSubtle.Render(fmt.Sprintf("直接输入文字回答；%s 开始/结束录音，%s 查看状态，%s 退出", CmdVoice, CmdStatus, CmdQuit)))
}

func (t *Terminal) println(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, s)
}

func formatSnapshot(s conversation.Snapshot) string {
	capture := "idle"
	if s.Capture != nil {
		capture = s.Capture.Status.String()
	}
	playback := "idle"
	if s.Playback != nil {
		playback = s.Playback.Status.String()
	}
	return fmt.Sprintf("mode=%s question=%d turns=%d capture=%s playback=%s generating=%t",
		s.Mode, s.Cursor, len(s.Turns), capture, playback, s.Generating)
}

// lineReader feeds lines already read by the terminal to a huh form, so the
// form and the chat loop never compete for stdin.
type lineReader struct {
	ctx   context.Context
	lines <-chan string
	buf   []byte
}

func (r *lineReader) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		select {
		case line, ok := <-r.lines:
			if !ok {
				return 0, io.EOF
			}
			r.buf = []byte(line + "\n")
		case <-r.ctx.Done():
			return 0, io.EOF
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func confirmRecord(in io.Reader, out io.Writer) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("病历内容是否正确？").
				Description("确认后保存病历并结束问诊，否则返回对话继续补充").
				Affirmative("确认").
				Negative("返回对话").
				Value(&ok),
		),
	).WithTheme(getTheme()).
		WithAccessible(true).
		WithInput(in).
		WithOutput(out)

	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}
