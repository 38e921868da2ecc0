package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"arc-tracer/cmd/arctrace-api/handlers"
	"arc-tracer/internal/observability"
	"arc-tracer/internal/pipeline"
	"arc-tracer/internal/version"
	"arc-tracer/internal/vision/visiontest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squarePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			v := uint8(255)
			if x >= 30 && x <= 69 && y >= 30 && y <= 69 {
				v = 0
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// upload builds a multipart request. An empty filename sends the image part
// without one.
func upload(t *testing.T, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if data != nil {
		fw, err := mw.CreateFormFile(handlers.ImageField, filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newTestRouter(t *testing.T, maxUpload int64) http.Handler {
	t.Helper()
	return NewRouter(observability.Nop(), pipeline.New(visiontest.New()), RouterConfig{
		RequestTimeout: 5 * time.Second,
		MaxUploadBytes: maxUpload,
		AllowedOrigins: []string{"*"},
		Defaults:       pipeline.DefaultParams,
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestProcess_Success(t *testing.T) {
	rec := serve(newTestRouter(t, 1<<20), upload(t, "square.png", squarePNG(t), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.ProcessResponse
	decode(t, rec, &resp)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 4, resp.InstructionCount)
	assert.Equal(t, "arc(0,0,0.300,0.300,s,0.700,0.310,0,none,true);", resp.Instructions[0])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestProcess_Timeline(t *testing.T) {
	rec := serve(newTestRouter(t, 1<<20), upload(t, "square.png", squarePNG(t), map[string]string{
		"mode":     "timeline",
		"time_s":   "10",
		"time_e":   "20",
		"origin_y": "0.5",
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.ProcessResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Instructions, 4)
	assert.Equal(t, "arc(13,17,0.300,0.300,s,0.500,0.500,0,none,true);", resp.Instructions[0])
}

func TestProcess_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
		msg    string
	}{
		{
			name:   "missing image",
			req:    func(t *testing.T) *http.Request { return upload(t, "", nil, map[string]string{"scale": "1"}) },
			status: http.StatusBadRequest,
			msg:    "no image file uploaded",
		},
		{
			name:   "empty filename",
			req:    func(t *testing.T) *http.Request { return upload(t, "", squarePNG(t), nil) },
			status: http.StatusBadRequest,
			msg:    "invalid file name",
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/process", bytes.NewBufferString("{}"))
			},
			status: http.StatusBadRequest,
			msg:    "no image file uploaded",
		},
		{
			name: "sampling rate out of range",
			req: func(t *testing.T) *http.Request {
				return upload(t, "a.png", squarePNG(t), map[string]string{"sampling_rate": "0.2"})
			},
			status: http.StatusBadRequest,
			msg:    "sampling rate out of range",
		},
		{
			name: "unparsable number",
			req: func(t *testing.T) *http.Request {
				return upload(t, "a.png", squarePNG(t), map[string]string{"scale": "big"})
			},
			status: http.StatusBadRequest,
			msg:    `invalid scale: "big"`,
		},
		{
			name: "infinite scale",
			req: func(t *testing.T) *http.Request {
				return upload(t, "a.png", squarePNG(t), map[string]string{"scale": "+Inf"})
			},
			status: http.StatusBadRequest,
			msg:    "scale must be finite",
		},
		{
			name: "timeline time out of range",
			req: func(t *testing.T) *http.Request {
				return upload(t, "a.png", squarePNG(t), map[string]string{"mode": "timeline", "scale": "1e18", "time_e": "100"})
			},
			status: http.StatusBadRequest,
			msg:    "time out of range",
		},
		{
			name: "fractional time",
			req: func(t *testing.T) *http.Request {
				return upload(t, "a.png", squarePNG(t), map[string]string{"time_s": "1.5"})
			},
			status: http.StatusBadRequest,
			msg:    `invalid time_s: "1.5"`,
		},
		{
			name: "unknown mode",
			req: func(t *testing.T) *http.Request {
				return upload(t, "a.png", squarePNG(t), map[string]string{"mode": "diagonal"})
			},
			status: http.StatusBadRequest,
			msg:    "unsupported mode",
		},
		{
			name:   "undecodable image",
			req:    func(t *testing.T) *http.Request { return upload(t, "a.png", []byte("garbage"), nil) },
			status: http.StatusBadRequest,
			msg:    "could not decode image",
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return upload(t, "a.png", bytes.Repeat([]byte{0}, 1<<20), nil)
			},
			status: http.StatusRequestEntityTooLarge,
			msg:    "image too large",
		},
	}

	h := newTestRouter(t, 64<<10)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.req(t))
			assert.Equal(t, tt.status, rec.Code)

			var resp handlers.ErrorResponse
			decode(t, rec, &resp)
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tt.msg, resp.Message)
		})
	}
}

func TestProcess_InternalError(t *testing.T) {
	tk := visiontest.New()
	tk.PanicOnTrace = true
	h := NewRouter(observability.Nop(), pipeline.New(tk), RouterConfig{
		MaxUploadBytes: 1 << 20,
		AllowedOrigins: []string{"*"},
		Defaults:       pipeline.DefaultParams,
	})

	rec := serve(h, upload(t, "a.png", squarePNG(t), nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp handlers.ErrorResponse
	decode(t, rec, &resp)
	assert.Equal(t, "error", resp.Status)
}

func TestHealthAndVersion(t *testing.T) {
	h := newTestRouter(t, 1<<20)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]string
	decode(t, rec, &health)
	assert.Equal(t, "healthy", health["status"])

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var info version.Info
	decode(t, rec, &info)
	assert.Equal(t, version.Version, info.Version)
}

func TestCORS(t *testing.T) {
	h := NewRouter(observability.Nop(), pipeline.New(visiontest.New()), RouterConfig{
		MaxUploadBytes: 1 << 20,
		AllowedOrigins: []string{"https://plot.example"},
		Defaults:       pipeline.DefaultParams,
	})

	req := httptest.NewRequest(http.MethodOptions, "/process", nil)
	req.Header.Set("Origin", "https://plot.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := serve(h, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://plot.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = serve(h, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
