package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/leonardotrapani/medintake/internal/baidu"
)

const DefaultBaiduTTSURL = "https://tsn.baidu.com/text2audio"

// token rejected
const baiduErrToken = 502

// aue=3 selects MP3 output.
const baiduAueMP3 = 3

type baiduTTSError struct {
	ErrNo  int    `json:"err_no"`
	ErrMsg string `json:"err_msg"`
}

// BaiduSynthesizer implements Synthesizer over Baidu text2audio.
type BaiduSynthesizer struct {
	url    string
	cuid   string
	tokens *baidu.TokenSource
	client *http.Client

	mu     sync.RWMutex
	params Params
}

func NewBaiduSynthesizer(config Config) *BaiduSynthesizer {
	if config.URL == "" {
		config.URL = DefaultBaiduTTSURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	tokens := config.Tokens
	if tokens == nil {
		tokens = baidu.NewTokenSource(config.APIKey, config.SecretKey)
	}
	return &BaiduSynthesizer{
		url:    config.URL,
		cuid:   config.CUID,
		tokens: tokens,
		client: &http.Client{Timeout: config.Timeout},
		params: config.Params,
	}
}

func (s *BaiduSynthesizer) SetParams(p Params) {
	s.mu.Lock()
	s.params = p
	s.mu.Unlock()
}

func (s *BaiduSynthesizer) Params() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

func (s *BaiduSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	p := s.Params()
	form := url.Values{
		"tok":  {token},
		"tex":  {url.QueryEscape(text)}, // the service expects tex encoded twice
		"cuid": {s.cuid},
		"ctp":  {"1"},
		"lan":  {p.Language},
		"spd":  {strconv.Itoa(p.Speed)},
		"pit":  {strconv.Itoa(p.Pitch)},
		"vol":  {strconv.Itoa(p.Volume)},
		"per":  {strconv.Itoa(p.Person)},
		"aue":  {strconv.Itoa(baiduAueMP3)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	res, err := s.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		log.Printf("baidu-tts: API call failed after %v: %v", duration, err)
		return nil, fmt.Errorf("%w: baidu tts: %v", ErrSynthesisFailed, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrSynthesisFailed, err)
	}

	// Errors come back as JSON; audio comes back as audio/*.
	if strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
		var payload baiduTTSError
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, &SynthesisError{Code: res.StatusCode, Message: "malformed error payload"}
		}
		log.Printf("baidu-tts: error %d after %v: %s", payload.ErrNo, duration, payload.ErrMsg)
		if payload.ErrNo == baiduErrToken {
			s.tokens.Invalidate()
		}
		return nil, &SynthesisError{Code: payload.ErrNo, Message: payload.ErrMsg}
	}
	if res.StatusCode != http.StatusOK {
		return nil, &SynthesisError{Code: res.StatusCode, Message: http.StatusText(res.StatusCode)}
	}
	if len(body) == 0 {
		return nil, ErrEmptyAudio
	}

	log.Printf("baidu-tts: synthesized %d runes into %d bytes in %v", len([]rune(text)), len(body), duration)
	return body, nil
}
