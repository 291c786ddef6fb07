package daemon

import (
	"context"
	"fmt"
	"log"

	"github.com/leonardotrapani/medintake/internal/baidu"
	"github.com/leonardotrapani/medintake/internal/config"
	"github.com/leonardotrapani/medintake/internal/conversation"
	"github.com/leonardotrapani/medintake/internal/llm"
	"github.com/leonardotrapani/medintake/internal/notify"
	"github.com/leonardotrapani/medintake/internal/provider"
	"github.com/leonardotrapani/medintake/internal/recording"
	"github.com/leonardotrapani/medintake/internal/speech"
	"github.com/leonardotrapani/medintake/internal/store"
	"github.com/leonardotrapani/medintake/internal/transcriber"
)

// Services are the collaborators a session runs on.
type Services struct {
	Capturer   conversation.Capturer
	Recognizer conversation.Recognizer
	Voice      conversation.Voice // nil when speech is disabled
	Generator  conversation.RecordGenerator
	Store      *store.Store

	// run on teardown, before the store removes the scratch dir
	closers []func()
	synth   speech.Synthesizer
}

// BuildServices wires the configured providers. On error everything built so
// far is released.
func BuildServices(cfg *config.Config) (*Services, error) {
	svc := &Services{}
	built := false
	defer func() {
		if !built {
			svc.Close()
		}
	}()

	recordDir, err := cfg.RecordDir()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(recordDir)
	if err != nil {
		return nil, err
	}
	svc.Store = st

	tcfg := cfg.ToTranscriberConfig()
	scfg := cfg.ToSpeechConfig()

	// one Baidu token serves both recognition and synthesis
	if tcfg.Provider == provider.ProviderBaidu || (cfg.Speech.Enabled && scfg.Provider == provider.ProviderBaidu) {
		key, secret := tcfg.APIKey, tcfg.SecretKey
		if tcfg.Provider != provider.ProviderBaidu {
			key, secret = scfg.APIKey, scfg.SecretKey
		}
		tokens := baidu.NewTokenSource(key, secret)
		tcfg.Tokens = tokens
		scfg.Tokens = tokens
	}

	recognizer, err := transcriber.New(tcfg)
	if err != nil {
		return nil, fmt.Errorf("recognition: %w", err)
	}
	svc.Recognizer = recognizer

	if cfg.Speech.Enabled {
		synth, err := speech.New(scfg)
		if err != nil {
			return nil, fmt.Errorf("speech: %w", err)
		}
		speaker := speech.NewSpeaker(synth, speech.NewPipeWirePlayer(cfg.Speech.Device),
			speech.WithScratchDir(st.ScratchDir()))
		svc.synth = synth
		svc.Voice = speaker
		svc.closers = append(svc.closers, speaker.Close)
	}

	gen, err := llm.New(cfg.ToLLMConfig())
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	svc.Generator = gen

	svc.Capturer = captureService{recording.NewService(cfg.ToRecordingConfig())}
	built = true
	return svc, nil
}

// ApplySpeechParams pushes reloaded voice parameters to the synthesizer.
func (s *Services) ApplySpeechParams(p speech.Params) {
	if ps, ok := s.synth.(speech.ParamSetter); ok {
		ps.SetParams(p)
		log.Printf("Daemon: speech parameters updated")
	}
}

// Close releases everything in teardown order. Safe on a partial build.
func (s *Services) Close() {
	if s == nil {
		return
	}
	for _, fn := range s.closers {
		fn()
	}
	s.closers = nil
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			log.Printf("Daemon: %v", err)
		}
	}
}

// captureService adapts recording.Service to the coordinator's Capturer.
type captureService struct {
	svc *recording.Service
}

func (c captureService) Capture(ctx context.Context) (conversation.Capture, error) {
	capture, err := c.svc.Capture(ctx)
	if err != nil {
		return nil, err
	}
	return capture, nil
}

// notifyingSink saves records through the store and announces them.
type notifyingSink struct {
	sink     conversation.RecordSink
	notifier notify.Notifier
}

func (n notifyingSink) SaveRecord(document string) (string, error) {
	path, err := n.sink.SaveRecord(document)
	if err == nil {
		n.notifier.RecordReady(path)
	}
	return path, err
}

// notifyingSurface forwards to the frontend and mirrors capture state and
// errors to the notifier.
type notifyingSurface struct {
	conversation.Surface
	notifier notify.Notifier
}

func (n notifyingSurface) OnCaptureStateChanged(recording bool) {
	n.Surface.OnCaptureStateChanged(recording)
	go n.notifier.RecordingChanged(recording)
}

func (n notifyingSurface) OnError(kind conversation.ErrorKind, message string) {
	n.Surface.OnError(kind, message)
	go n.notifier.Error(message)
}
