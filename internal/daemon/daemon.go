package daemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/leonardotrapani/medintake/internal/bus"
	"github.com/leonardotrapani/medintake/internal/config"
	"github.com/leonardotrapani/medintake/internal/conversation"
	"github.com/leonardotrapani/medintake/internal/notify"
)

// Session is what a frontend may ask of the running session.
type Session interface {
	SubmitUserText(text string) error
	ToggleVoiceCapture() (bool, error)
	ConfirmRecord() error
	ReturnToConversation() error
	Snapshot() (conversation.Snapshot, error)
}

// Frontend renders the conversation and collects patient input. Run must
// return once ctx is cancelled.
type Frontend interface {
	conversation.Surface
	Run(ctx context.Context, session Session) error
}

type Options struct {
	Config   *config.Config
	Manager  *config.Manager // optional; enables hot reload of speech parameters
	Frontend Frontend
	Notifier notify.Notifier
	Services *Services
}

// Daemon hosts one intake session: it owns the coordinator, the frontend
// and the control socket, and releases all of them on every exit path.
type Daemon struct {
	opts  Options
	coord *conversation.Coordinator

	toggleMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

func New(opts Options) *Daemon {
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Daemon{
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}

	cfg := opts.Config
	svc := opts.Services
	var records conversation.RecordSink
	if svc.Store != nil {
		records = notifyingSink{sink: svc.Store, notifier: opts.Notifier}
	}
	d.coord = conversation.New(conversation.Options{
		Script:             cfg.ToScript(),
		Messages:           cfg.ToMessages(),
		SystemPrompt:       cfg.SystemPrompt(),
		Surface:            notifyingSurface{Surface: opts.Frontend, notifier: opts.Notifier},
		Capturer:           svc.Capturer,
		Recognizer:         svc.Recognizer,
		Voice:              svc.Voice,
		Generator:          svc.Generator,
		Records:            records,
		RecognitionTimeout: cfg.Recognition.Timeout,
		GenerationTimeout:  cfg.LLM.Timeout,
	})
	return d
}

// Run blocks until the record is confirmed, the frontend exits, a quit
// command arrives or the process is signalled.
func (d *Daemon) Run() error {
	defer d.cancel()
	// LIFO: the coordinator closes before the services it uses
	defer d.opts.Services.Close()

	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal %v, shutting down gracefully", sig)
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	if err := d.coord.Start(d.ctx); err != nil {
		return err
	}
	defer d.coord.Close()

	if m := d.opts.Manager; m != nil {
		m.OnReload(func(c *config.Config) {
			d.opts.Services.ApplySpeechParams(c.SpeechParams())
		})
		if err := m.StartWatching(d.ctx); err != nil {
			log.Printf("Daemon: config watch disabled: %v", err)
		} else {
			defer m.Stop()
		}
	}

	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()
	go d.serve(ln)

	frontendDone := make(chan error, 1)
	go func() {
		frontendDone <- d.opts.Frontend.Run(d.ctx, d)
	}()

	log.Printf("Daemon: session started, listening on socket")

	var runErr error
	select {
	case <-d.coord.Done():
		log.Printf("Daemon: record confirmed, ending session")
	case runErr = <-frontendDone:
		frontendDone = nil
	case <-d.ctx.Done():
		log.Printf("Shutdown requested")
	}
	d.cancel()

	if frontendDone != nil {
		select {
		case runErr = <-frontendDone:
		case <-time.After(2 * time.Second):
			log.Printf("Daemon: frontend did not exit in time")
		}
	}
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	return runErr
}

func (d *Daemon) serve(ln net.Listener) {
	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() == nil {
				log.Printf("Accept error: %v", err)
			}
			return
		}
		go d.handle(c)
	}
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		log.Printf("Client read error: %v", err)
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	if len(line) == 0 {
		fmt.Fprint(c, "ERR empty\n")
		return
	}
	cmd := line[0]

	switch cmd {
	case bus.CmdToggle:
		on, err := d.ToggleVoiceCapture()
		if err != nil {
			fmt.Fprintf(c, "ERR %v\n", err)
			return
		}
		fmt.Fprintf(c, "STATUS capture=%s\n", captureLabel(on))
	case bus.CmdStatus:
		snap, err := d.coord.Snapshot()
		if err != nil {
			fmt.Fprintf(c, "ERR %v\n", err)
			return
		}
		fmt.Fprintf(c, "STATUS %s\n", formatStatus(snap))
	case bus.CmdVersion:
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)
	case bus.CmdQuit:
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()
	default:
		log.Printf("Unknown command: %c", cmd)
		fmt.Fprintf(c, "ERR unknown=%q\n", cmd)
	}
}

// ToggleVoiceCapture stops an active capture or starts a new one and
// reports whether the microphone is now open.
func (d *Daemon) ToggleVoiceCapture() (bool, error) {
	d.toggleMu.Lock()
	defer d.toggleMu.Unlock()

	snap, err := d.coord.Snapshot()
	if err != nil {
		return false, err
	}
	if snap.Capture != nil && snap.Capture.Status == conversation.Active {
		return false, d.coord.StopVoiceCapture()
	}

	turn, err := d.coord.StartVoiceCapture()
	if err != nil {
		return false, err
	}
	return turn.Status == conversation.Active, nil
}

func (d *Daemon) SubmitUserText(text string) error { return d.coord.SubmitUserText(text) }
func (d *Daemon) ConfirmRecord() error              { return d.coord.ConfirmRecord() }
func (d *Daemon) ReturnToConversation() error       { return d.coord.ReturnToConversation() }

func (d *Daemon) Snapshot() (conversation.Snapshot, error) { return d.coord.Snapshot() }

func captureLabel(on bool) string {
	if on {
		return "active"
	}
	return "stopped"
}

func voiceStatus(t *conversation.VoiceTurn) string {
	if t == nil {
		return "idle"
	}
	return t.Status.String()
}

func formatStatus(s conversation.Snapshot) string {
	return fmt.Sprintf("mode=%s cursor=%d turns=%d capture=%s playback=%s generating=%t record_ready=%t",
		s.Mode, s.Cursor, len(s.Turns), voiceStatus(s.Capture), voiceStatus(s.Playback), s.Generating, s.RecordReady)
}
