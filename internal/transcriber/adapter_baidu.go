package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leonardotrapani/medintake/internal/audio"
	"github.com/leonardotrapani/medintake/internal/baidu"
)

const DefaultBaiduASRURL = "https://vop.baidu.com/pro_api"

// token rejected by the speech service
const baiduErrAuth = 3302

type baiduASRResponse struct {
	ErrNo  int      `json:"err_no"`
	ErrMsg string   `json:"err_msg"`
	Result []string `json:"result"`
}

// BaiduAdapter implements BatchAdapter for Baidu short speech recognition.
type BaiduAdapter struct {
	config Config
	tokens *baidu.TokenSource
	client *http.Client
}

func NewBaiduAdapter(config Config) *BaiduAdapter {
	config = withAudioDefaults(config)
	if config.URL == "" {
		config.URL = DefaultBaiduASRURL
	}
	if config.DevPID == 0 {
		config.DevPID = 80001
	}
	tokens := config.Tokens
	if tokens == nil {
		tokens = baidu.NewTokenSource(config.APIKey, config.SecretKey)
	}
	return &BaiduAdapter{
		config: config,
		tokens: tokens,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *BaiduAdapter) Transcribe(ctx context.Context, audioData []byte) (string, error) {
	audioData = alignPCM(audioData, a.config.Channels)
	if len(audioData) == 0 {
		return "", nil
	}

	wavData, err := audio.EncodeWAV(audioData, a.config.SampleRate, a.config.Channels)
	if err != nil {
		return "", fmt.Errorf("convert to WAV: %w", err)
	}

	token, err := a.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}

	q := url.Values{
		"dev_pid": {strconv.Itoa(a.config.DevPID)},
		"cuid":    {a.config.CUID},
		"token":   {token},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.URL+"?"+q.Encode(), bytes.NewReader(wavData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/wav; rate="+strconv.Itoa(a.config.SampleRate))

	start := time.Now()
	res, err := a.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		log.Printf("baidu-asr: API call failed after %v: %v", duration, err)
		return "", fmt.Errorf("%w: baidu asr: %v", ErrRecognitionFailed, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrRecognitionFailed, err)
	}

	var parsed baiduASRResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &RecognitionError{Code: res.StatusCode, Message: "malformed response: " + truncate(string(body), 200)}
	}
	if parsed.ErrNo != 0 {
		if parsed.ErrNo == baiduErrAuth {
			a.tokens.Invalidate()
		}
		log.Printf("baidu-asr: error %d after %v: %s", parsed.ErrNo, duration, parsed.ErrMsg)
		return "", &RecognitionError{Code: parsed.ErrNo, Message: parsed.ErrMsg}
	}
	if len(parsed.Result) == 0 {
		return "", &RecognitionError{Code: res.StatusCode, Message: "response carried no result"}
	}

	text := strings.TrimSpace(parsed.Result[0])
	log.Printf("baidu-asr: transcribed %d bytes in %v: %q", len(audioData), duration, text)
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
