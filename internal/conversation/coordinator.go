package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Surface is the interaction boundary (terminal, GUI, ...).
// All callbacks run on the coordinator's event loop and must not call back
// into the coordinator synchronously.
type Surface interface {
	OnAssistantMessage(text string)
	OnUserMessageEcho(text string)
	OnRecordReady(document string)
	OnError(kind ErrorKind, message string)
	OnCaptureStateChanged(recording bool)
	OnSessionEnded(message string)
}

// Capturer opens the microphone. Capture must fail fast when the device
// cannot be opened.
type Capturer interface {
	Capture(ctx context.Context) (Capture, error)
}

// Capture is one running microphone capture.
// Stop is idempotent. Wait blocks until the buffer is finalized and returns it
// exactly once per capture.
type Capture interface {
	Stop()
	Wait() ([]byte, error)
}

// Recognizer turns finalized 16 kHz mono s16 PCM into text.
type Recognizer interface {
	Transcribe(ctx context.Context, pcm []byte) (string, error)
}

// Voice plays assistant speech. Speak supersedes whatever is playing and
// delivers exactly one result on the returned channel. Stop silences output.
type Voice interface {
	Speak(ctx context.Context, text string, generation uint64) <-chan error
	Stop()
}

// RecordRequest is an immutable snapshot handed to the record generator.
type RecordRequest struct {
	Generation   uint64
	SystemPrompt string
	Turns        []Turn
}

type RecordGenerator interface {
	Generate(ctx context.Context, req RecordRequest) (string, error)
}

// RecordSink persists a generated document and returns where it went.
type RecordSink interface {
	SaveRecord(document string) (string, error)
}

type Options struct {
	Script       Script
	Messages     Messages
	SystemPrompt string

	Surface    Surface
	Capturer   Capturer
	Recognizer Recognizer
	Voice      Voice // nil disables speech output
	Generator  RecordGenerator
	Records    RecordSink // optional

	RecognitionTimeout time.Duration
	GenerationTimeout  time.Duration
}

// Snapshot is a read-only view of the coordinator.
type Snapshot struct {
	Turns        []Turn
	Cursor       int
	Mode         Mode
	Capture      *VoiceTurn
	Playback     *VoiceTurn
	LastPlayback *VoiceTurn
	Generating   bool
	RecordReady  bool
}

// Coordinator sequences the scripted interview and arbitrates the
// asynchronous capture, recognition, playback and record generation work.
// Every state mutation runs on a single event loop goroutine.
type Coordinator struct {
	opts  Options
	state *State

	inbox    chan func()
	ctx      context.Context
	cancel   context.CancelFunc
	started  atomic.Bool
	loopDone chan struct{}
	done     chan struct{}
	tasks    sync.WaitGroup
	closeMu  sync.Mutex
	closed   bool

	// loop-owned
	capture       *VoiceTurn
	captureHandle Capture
	captureGen    uint64

	playback     *VoiceTurn
	lastPlayback *VoiceTurn
	playbackGen  uint64

	recordGen   uint64
	generating  bool
	recordReady bool
	preMode     Mode
	ended       bool
}

func New(opts Options) *Coordinator {
	opts.Messages = opts.Messages.WithDefaults()
	if opts.RecognitionTimeout <= 0 {
		opts.RecognitionTimeout = 30 * time.Second
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = 3 * time.Minute
	}
	return &Coordinator{
		opts:     opts,
		state:    NewState(opts.Script),
		inbox:    make(chan func(), 64),
		loopDone: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the event loop and greets the patient.
func (c *Coordinator) Start(ctx context.Context) error {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return ErrSessionClosed
	}
	if c.started.Load() {
		c.closeMu.Unlock()
		return fmt.Errorf("coordinator already started")
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started.Store(true)
	c.closeMu.Unlock()
	go c.loop()

	log.Printf("Coordinator: session started with %d scripted questions", len(c.opts.Script.Questions))
	return c.do(func() {
		if g := strings.TrimSpace(c.opts.Script.Greeting); g != "" {
			c.emitAssistantMessage(g)
		}
	})
}

// Done is closed when the patient confirms the record.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Close stops any capture or playback, waits for background work and tears
// the state down. It is safe to call more than once.
func (c *Coordinator) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed || !c.started.Load() {
		c.closed = true
		return
	}
	c.closed = true

	_ = c.do(func() {
		if c.captureHandle != nil {
			c.captureHandle.Stop()
		}
		if c.opts.Voice != nil {
			c.opts.Voice.Stop()
		}
	})
	c.cancel()
	<-c.loopDone
	c.tasks.Wait()
	c.state.Teardown()
	log.Printf("Coordinator: session closed")
}

func (c *Coordinator) loop() {
	defer close(c.loopDone)
	for {
		select {
		case fn := <-c.inbox:
			fn()
		case <-c.ctx.Done():
			return
		}
	}
}

// do runs fn on the event loop and waits for it.
func (c *Coordinator) do(fn func()) error {
	if !c.started.Load() {
		return ErrNotStarted
	}
	finished := make(chan struct{})
	select {
	case c.inbox <- func() { fn(); close(finished) }:
	case <-c.loopDone:
		return ErrSessionClosed
	}
	select {
	case <-finished:
		return nil
	case <-c.loopDone:
		return ErrSessionClosed
	}
}

// post queues fn on the event loop without waiting. Used by background tasks.
func (c *Coordinator) post(fn func()) {
	select {
	case c.inbox <- fn:
	case <-c.loopDone:
	}
}

func (c *Coordinator) spawn(task func()) {
	c.tasks.Add(1)
	go func() {
		defer c.tasks.Done()
		task()
	}()
}

// SubmitUserText handles a patient reply. Blank input is ignored.
func (c *Coordinator) SubmitUserText(text string) error {
	return c.do(func() { c.submitUserText(text) })
}

// StartVoiceCapture opens the microphone for a new capture turn.
func (c *Coordinator) StartVoiceCapture() (VoiceTurn, error) {
	var (
		turn VoiceTurn
		err  error
	)
	if doErr := c.do(func() { turn, err = c.startVoiceCapture() }); doErr != nil {
		return VoiceTurn{}, doErr
	}
	return turn, err
}

// StopVoiceCapture finalizes the active capture and triggers recognition.
// It is a no-op when nothing is being captured.
func (c *Coordinator) StopVoiceCapture() error {
	return c.do(c.stopVoiceCapture)
}

// OnRecognitionComplete delivers a recognition result for a capture generation.
func (c *Coordinator) OnRecognitionComplete(generation uint64, text string, err error) error {
	return c.do(func() { c.onRecognitionComplete(generation, text, err) })
}

// EmitAssistantMessage appends an assistant turn and speaks it.
func (c *Coordinator) EmitAssistantMessage(text string) error {
	return c.do(func() { c.emitAssistantMessage(text) })
}

// RequestRecordGeneration snapshots the transcript and asks for a record.
func (c *Coordinator) RequestRecordGeneration() error {
	return c.do(c.requestRecordGeneration)
}

// OnRecordResult delivers the outcome of a record generation.
func (c *Coordinator) OnRecordResult(generation uint64, document string, err error) error {
	return c.do(func() { c.onRecordResult(generation, document, "", err) })
}

// ConfirmRecord accepts the pending record and ends the session.
func (c *Coordinator) ConfirmRecord() error {
	var err error
	if doErr := c.do(func() { err = c.confirmRecord() }); doErr != nil {
		return doErr
	}
	return err
}

// ReturnToConversation rejects the pending record and reopens the conversation
// for supplements.
func (c *Coordinator) ReturnToConversation() error {
	var err error
	if doErr := c.do(func() { err = c.returnToConversation() }); doErr != nil {
		return doErr
	}
	return err
}

func (c *Coordinator) Snapshot() (Snapshot, error) {
	var s Snapshot
	err := c.do(func() {
		s = Snapshot{
			Turns:        c.state.Turns(),
			Cursor:       c.state.Cursor(),
			Mode:         c.state.Mode(),
			Capture:      copyTurn(c.capture),
			Playback:     copyTurn(c.playback),
			LastPlayback: copyTurn(c.lastPlayback),
			Generating:   c.generating,
			RecordReady:  c.recordReady,
		}
	})
	return s, err
}

func copyTurn(t *VoiceTurn) *VoiceTurn {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

// --- event loop handlers ---

func (c *Coordinator) submitUserText(text string) {
	text = strings.TrimSpace(text)
	if text == "" || c.ended {
		return
	}

	c.state.append(Patient, text)
	c.opts.Surface.OnUserMessageEcho(text)

	switch {
	case c.state.Mode() == SupplementCollection:
		c.requestRecordGeneration()
	case c.state.Mode() == AwaitingRecordConfirmation:
		log.Printf("Coordinator: reply recorded while a record is pending")
	case !c.state.ScriptExhausted():
		q, _ := c.state.nextQuestion()
		c.emitAssistantMessage(q)
	case c.state.finalAsked:
		c.requestRecordGeneration()
	default:
		log.Printf("Coordinator: script exhausted, waiting for supplement mode")
	}
}

func (c *Coordinator) emitAssistantMessage(text string) {
	if c.ended {
		return
	}
	c.state.append(Assistant, text)
	c.opts.Surface.OnAssistantMessage(text)
	c.speak(text)
}

func (c *Coordinator) speak(text string) {
	if c.opts.Voice == nil {
		return
	}
	if c.playback != nil && c.playback.advance(Cancelling) {
		log.Printf("Coordinator: superseding playback #%d", c.playback.Generation)
	}

	c.playbackGen++
	gen := c.playbackGen
	c.playback = &VoiceTurn{Kind: PlaybackTurn, Status: Active, Generation: gen}

	resultCh := c.opts.Voice.Speak(c.ctx, text, gen)
	c.spawn(func() {
		err, ok := <-resultCh
		if !ok {
			err = nil
		}
		c.post(func() { c.onPlaybackDone(gen, err) })
	})
}

func (c *Coordinator) onPlaybackDone(gen uint64, err error) {
	if c.playback == nil || c.playback.Generation != gen {
		log.Printf("Coordinator: discarding stale playback result #%d", gen)
		return
	}
	turn := c.playback
	c.playback = nil
	c.lastPlayback = turn

	switch {
	case err == nil:
		turn.advance(Completed)
	case errors.Is(err, context.Canceled):
		// stopped by capture start or shutdown
		if turn.Status == Cancelling {
			turn.advance(Completed)
		} else {
			turn.advance(Failed)
		}
	default:
		turn.advance(Failed)
		c.report(SynthesisFailed, err)
	}
}

func (c *Coordinator) startVoiceCapture() (VoiceTurn, error) {
	if c.capture != nil && c.capture.Status == Active {
		err := newError(AlreadyRecording, errors.New("capture already active"))
		c.report(AlreadyRecording, err)
		return *c.capture, err
	}

	// Do not record our own voice.
	if c.playback != nil && c.opts.Voice != nil {
		c.playback.advance(Cancelling)
		c.opts.Voice.Stop()
	}

	// A failed open leaves capture state alone so a previous utterance that
	// is still being recognized is not treated as stale.
	handle, err := c.opts.Capturer.Capture(c.ctx)
	if err != nil {
		kind := KindOf(err)
		if kind == "" {
			kind = DeviceUnavailable
		}
		c.report(kind, err)
		return VoiceTurn{Kind: CaptureTurn, Status: Failed}, newError(kind, err)
	}

	c.captureGen++
	gen := c.captureGen
	c.capture = &VoiceTurn{Kind: CaptureTurn, Status: Active, Generation: gen}
	c.captureHandle = handle
	c.opts.Surface.OnCaptureStateChanged(true)
	log.Printf("Coordinator: capture #%d started", gen)

	c.spawn(func() {
		pcm, err := handle.Wait()
		c.post(func() { c.onCaptureFinished(gen, pcm, err) })
	})
	return *c.capture, nil
}

func (c *Coordinator) stopVoiceCapture() {
	if c.capture == nil || c.capture.Status != Active {
		return
	}
	c.capture.advance(Cancelling)
	c.captureHandle.Stop()
	c.opts.Surface.OnCaptureStateChanged(false)
	log.Printf("Coordinator: capture #%d stopping", c.capture.Generation)
}

func (c *Coordinator) onCaptureFinished(gen uint64, pcm []byte, err error) {
	if c.capture == nil || c.capture.Generation != gen {
		log.Printf("Coordinator: discarding stale capture #%d", gen)
		return
	}
	c.captureHandle = nil

	if c.capture.Status == Active {
		// ended without stopVoiceCapture: device failure or max duration
		c.capture.advance(Cancelling)
		c.opts.Surface.OnCaptureStateChanged(false)
	}

	if len(pcm) == 0 {
		if err == nil {
			err = errors.New("no audio captured")
		}
		kind := KindOf(err)
		if kind == "" {
			kind = CaptureIOError
		}
		c.capture.advance(Failed)
		c.capture = nil
		c.report(kind, err)
		return
	}
	if err != nil {
		log.Printf("Coordinator: capture #%d truncated after %d bytes: %v", gen, len(pcm), err)
	}

	recognizer := c.opts.Recognizer
	timeout := c.opts.RecognitionTimeout
	c.spawn(func() {
		ctx, cancel := context.WithTimeout(c.ctx, timeout)
		defer cancel()
		start := time.Now()
		text, err := recognizer.Transcribe(ctx, pcm)
		log.Printf("Coordinator: recognition #%d finished in %v", gen, time.Since(start))
		c.post(func() { c.onRecognitionComplete(gen, text, err) })
	})
}

func (c *Coordinator) onRecognitionComplete(gen uint64, text string, err error) {
	if gen != c.captureGen || c.capture == nil || c.capture.Generation != gen || c.capture.Terminal() {
		log.Printf("Coordinator: discarding stale recognition #%d", gen)
		return
	}
	turn := c.capture
	c.capture = nil

	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrNoSpeech
	}
	if err != nil {
		turn.advance(Failed)
		c.report(RecognitionFailed, err)
		return
	}
	turn.advance(Completed)
	c.submitUserText(text)
}

func (c *Coordinator) requestRecordGeneration() {
	if c.generating {
		log.Printf("Coordinator: record generation already in flight")
		return
	}
	if c.ended {
		return
	}

	c.recordGen++
	req := RecordRequest{
		Generation:   c.recordGen,
		SystemPrompt: c.opts.SystemPrompt,
		Turns:        c.state.Turns(),
	}
	c.preMode = c.state.Mode()
	c.generating = true
	c.recordReady = false

	c.emitAssistantMessage(c.opts.Messages.PleaseWait)
	c.state.mode = AwaitingRecordConfirmation
	log.Printf("Coordinator: record generation #%d dispatched with %d turns", req.Generation, len(req.Turns))

	generator := c.opts.Generator
	records := c.opts.Records
	timeout := c.opts.GenerationTimeout
	c.spawn(func() {
		ctx, cancel := context.WithTimeout(c.ctx, timeout)
		defer cancel()
		doc, err := generator.Generate(ctx, req)
		var location string
		if err == nil && records != nil {
			var saveErr error
			if location, saveErr = records.SaveRecord(doc); saveErr != nil {
				log.Printf("Coordinator: failed to save record #%d: %v", req.Generation, saveErr)
			}
		}
		c.post(func() { c.onRecordResult(req.Generation, doc, location, err) })
	})
}

func (c *Coordinator) onRecordResult(gen uint64, document, location string, err error) {
	if gen != c.recordGen || !c.generating {
		log.Printf("Coordinator: discarding stale record result #%d", gen)
		return
	}
	c.generating = false

	if err != nil {
		c.state.mode = c.preMode
		c.report(RecordGenerationFailed, err)
		return
	}

	c.recordReady = true
	msg := document
	if location != "" {
		msg = fmt.Sprintf(c.opts.Messages.RecordSaved, location, document)
	}
	c.emitAssistantMessage(msg)
	c.opts.Surface.OnRecordReady(document)
}

func (c *Coordinator) confirmRecord() error {
	if c.state.Mode() != AwaitingRecordConfirmation || !c.recordReady {
		return ErrNoRecordPending
	}
	c.recordReady = false
	c.ended = true
	if c.captureHandle != nil {
		c.captureHandle.Stop()
	}
	c.opts.Surface.OnSessionEnded(c.opts.Messages.Farewell)
	close(c.done)
	log.Printf("Coordinator: record confirmed, session ended")
	return nil
}

func (c *Coordinator) returnToConversation() error {
	if c.state.Mode() != AwaitingRecordConfirmation || !c.recordReady {
		return ErrNoRecordPending
	}
	c.recordReady = false
	c.state.mode = SupplementCollection
	c.emitAssistantMessage(c.opts.Messages.InviteSupplement)
	return nil
}

// report sends exactly one notice for a failure. Notices are not part of the
// transcript and are not spoken.
func (c *Coordinator) report(kind ErrorKind, err error) {
	log.Printf("Coordinator: %s: %v", kind, err)
	c.opts.Surface.OnError(kind, c.opts.Messages.notice(kind, unwrapKind(err)))
}

func unwrapKind(err error) error {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err
	}
	return err
}
