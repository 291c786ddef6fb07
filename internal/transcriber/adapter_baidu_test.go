package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/leonardotrapani/medintake/internal/baidu"
)

func newBaiduTestAdapter(t *testing.T, asr http.HandlerFunc) (*BaiduAdapter, *atomic.Int32) {
	t.Helper()
	var tokenCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/2.0/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		fmt.Fprint(w, `{"access_token":"test-token","expires_in":2592000}`)
	})
	mux.HandleFunc("/pro_api", asr)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	tokens := baidu.NewTokenSource("ak", "sk")
	tokens.URL = srv.URL + "/oauth/2.0/token"

	a := NewBaiduAdapter(Config{
		Provider: "baidu",
		CUID:     "device-1",
		URL:      srv.URL + "/pro_api",
		Tokens:   tokens,
	})
	return a, &tokenCalls
}

func TestBaiduAdapter_Transcribe(t *testing.T) {
	pcm := make([]byte, 3200)

	a, tokenCalls := newBaiduTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("dev_pid") != "80001" || q.Get("cuid") != "device-1" || q.Get("token") != "test-token" {
			t.Errorf("unexpected query %v", q)
		}
		if ct := r.Header.Get("Content-Type"); ct != "audio/wav; rate=16000" {
			t.Errorf("unexpected content type %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if len(body) != 44+len(pcm) || string(body[:4]) != "RIFF" {
			t.Errorf("expected WAV body, got %d bytes", len(body))
		}
		fmt.Fprint(w, `{"err_no":0,"err_msg":"success.","result":["我今年四十五岁。"]}`)
	})

	for i := 0; i < 2; i++ {
		text, err := a.Transcribe(context.Background(), pcm)
		if err != nil {
			t.Fatalf("Transcribe: %v", err)
		}
		if text != "我今年四十五岁。" {
			t.Errorf("unexpected text %q", text)
		}
	}
	if tokenCalls.Load() != 1 {
		t.Errorf("token should be cached, fetched %d times", tokenCalls.Load())
	}
}

func TestBaiduAdapter_EmptyAudio(t *testing.T) {
	a, _ := newBaiduTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty audio")
	})

	text, err := a.Transcribe(context.Background(), []byte{1})
	if err != nil || text != "" {
		t.Errorf("expected empty result, got %q, %v", text, err)
	}
}

func TestBaiduAdapter_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{name: "speech quality", body: `{"err_no":3301,"err_msg":"speech quality error."}`, wantCode: 3301},
		{name: "auth", body: `{"err_no":3302,"err_msg":"authentication failed."}`, wantCode: 3302},
		{name: "no result", body: `{"err_no":0,"result":[]}`, wantCode: http.StatusOK},
		{name: "malformed", body: `<html>gateway</html>`, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, tokenCalls := newBaiduTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})

			_, err := a.Transcribe(context.Background(), make([]byte, 320))
			if !errors.Is(err, ErrRecognitionFailed) {
				t.Fatalf("expected ErrRecognitionFailed, got %v", err)
			}
			var recErr *RecognitionError
			if !errors.As(err, &recErr) || recErr.Code != tt.wantCode {
				t.Errorf("expected code %d, got %v", tt.wantCode, err)
			}

			if tt.wantCode == 3302 {
				_, _ = a.Transcribe(context.Background(), make([]byte, 320))
				if tokenCalls.Load() != 2 {
					t.Errorf("expected token refetch after auth failure, got %d fetches", tokenCalls.Load())
				}
			}
		})
	}
}
