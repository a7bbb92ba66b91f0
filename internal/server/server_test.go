package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamer/internal/auth"
	"streamer/internal/producer"
	"streamer/internal/wire"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T, mutate func(o *Options)) (*Server, *httptest.Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	camera := producer.NewCamera(producer.CameraOptions{Width: 32, Height: 24, FPS: 100})
	mic := producer.NewMicrophone(producer.MicrophoneOptions{
		ChunkDuration:  5 * time.Millisecond,
		WaveformWidth:  64,
		WaveformHeight: 32,
		WaveformFPS:    50,
	})
	speaker := producer.NewSpeaker(producer.SpeakerOptions{WaveformWidth: 64, WaveformHeight: 32, WaveformFPS: 50})

	go camera.Run(ctx)
	go mic.Run(ctx)
	go speaker.Run(ctx)

	opts := Options{
		Camera:           camera,
		Microphone:       mic,
		Speaker:          speaker,
		JPEGQuality:      80,
		WebSocketEnabled: true,
		ViewerEnabled:    true,
		MetricsEnabled:   true,
		AllowedOrigins:   []string{"*"},
		Version:          "test",
	}
	if mutate != nil {
		mutate(&opts)
	}

	s := New(opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestStreamRoutes_HeadersAndBodyPrefix(t *testing.T) {
	_, ts := newTestServer(t, nil)

	tests := []struct {
		path        string
		contentType string
		prefix      string
	}{
		{"/video", wire.MultipartContentType, "Content-Type: image/jpg\r\nContent-Length: "},
		{"/speaker/waveform", wire.MultipartContentType, "Content-Type: image/jpg\r\nContent-Length: "},
		{"/microphone/waveform", wire.MultipartContentType, "Content-Type: image/jpg\r\nContent-Length: "},
		{"/audio", "audio/wav", string(wire.StreamingWaveHeader())},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := get(t, ts.URL+tt.path)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			assert.Equal(t, "no-cache, no-store", resp.Header.Get("Cache-Control"))
			assert.Equal(t, "no-cache", resp.Header.Get("Pragma"))
			assert.True(t, resp.Close, "Connection: close")

			buf := make([]byte, len(tt.prefix))
			_, err := io.ReadFull(resp.Body, buf)
			require.NoError(t, err)
			assert.Equal(t, tt.prefix, string(buf))
		})
	}
}

func TestStreamRoutes_WaveformPartType(t *testing.T) {
	_, ts := newTestServer(t, func(o *Options) { o.WaveformPartType = "image/png" })

	resp := get(t, ts.URL+"/speaker/waveform")
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "Content-Type: image/png\r\n", line)
}

func TestStreamRoutes_ClientDisconnectReleasesStream(t *testing.T) {
	s, ts := newTestServer(t, nil)

	resp := get(t, ts.URL+"/video")
	_, err := io.ReadFull(resp.Body, make([]byte, 16))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return s.Registry().Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp.Body.Close()

	assert.Eventually(t, func() bool { return s.Registry().Count() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestStatus(t *testing.T) {
	_, ts := newTestServer(t, nil)

	streamResp := get(t, ts.URL+"/audio")
	defer streamResp.Body.Close()
	// PCM only flows once the client is subscribed
	_, err := io.ReadFull(streamResp.Body, make([]byte, wire.WaveHeaderSize+4))
	require.NoError(t, err)

	resp := get(t, ts.URL+"/status")
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var status struct {
		Service    string         `json:"service"`
		Version    string         `json:"version"`
		Count      int            `json:"stream_count"`
		ByKind     map[string]int `json:"streams_by_kind"`
		Microphone struct {
			Subscribers int `json:"subscribers"`
		} `json:"microphone"`
		Streams []struct {
			ID        string `json:"id"`
			Kind      string `json:"kind"`
			Transport string `json:"transport"`
		} `json:"streams"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))

	assert.Equal(t, "streamer", status.Service)
	assert.Equal(t, "test", status.Version)
	assert.Equal(t, 1, status.Count)
	assert.Equal(t, 1, status.ByKind["audio"])
	assert.Equal(t, 1, status.Microphone.Subscribers)
	require.Len(t, status.Streams, 1)
	assert.Equal(t, "audio", status.Streams[0].Kind)
	assert.Equal(t, "http", status.Streams[0].Transport)
	assert.NotEmpty(t, status.Streams[0].ID)
}

func TestHealthViewerAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := get(t, ts.URL+"/health")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status": "healthy", "service": "streamer"}`, string(body))

	resp = get(t, ts.URL+"/")
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `src="/microphone/waveform"`)

	resp = get(t, ts.URL+"/metrics")
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "streamer_http_requests_total")
}

func TestOptionalRoutesDisabled(t *testing.T) {
	_, ts := newTestServer(t, func(o *Options) {
		o.ViewerEnabled = false
		o.MetricsEnabled = false
		o.WebSocketEnabled = false
	})

	for _, path := range []string{"/", "/metrics", "/video/ws"} {
		resp := get(t, ts.URL+path)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager(testSecret)
	_, ts := newTestServer(t, func(o *Options) { o.JWTManager = jwtManager })

	token, err := jwtManager.GenerateToken("viewer", time.Minute)
	require.NoError(t, err)

	resp := get(t, ts.URL+"/video")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = get(t, ts.URL+"/audio?token=invalid")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = get(t, ts.URL+"/health")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health stays public")

	resp = get(t, ts.URL+"/video?token="+token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, wire.MultipartContentType, resp.Header.Get("Content-Type"))
}

func TestWebSocketStream(t *testing.T) {
	s, ts := newTestServer(t, nil)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/video/ws", nil)
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	msgType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, msgType)
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2])

	list := s.Registry().List()
	require.Len(t, list, 1)
	assert.Equal(t, "websocket", list[0].Transport)

	conn.Close()
	assert.Eventually(t, func() bool { return s.Registry().Count() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestWebSocketOriginCheck(t *testing.T) {
	_, ts := newTestServer(t, func(o *Options) { o.AllowedOrigins = []string{"https://viewer.example.com"} })

	header := http.Header{"Origin": {"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/video/ws", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"wildcard", []string{"*"}, "https://a.example.com", "*"},
		{"listed origin echoed", []string{"https://a.example.com"}, "https://a.example.com", "https://a.example.com"},
		{"unlisted origin", []string{"https://a.example.com"}, "https://b.example.com", ""},
		{"no origin", []string{"*"}, "", ""},
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := addCORS(next, tt.allowed)

			r := httptest.NewRequest(http.MethodGet, "/video", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, http.StatusTeapot, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}

	w := httptest.NewRecorder()
	addCORS(next, []string{"*"}).ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/video", nil))
	assert.Equal(t, http.StatusOK, w.Code, "preflight short-circuits")
}
