// Package handlers provides HTTP handlers for the arc-tracer API.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"arc-tracer/internal/arc"
	"arc-tracer/internal/observability"
	"arc-tracer/internal/pipeline"

	"github.com/pkg/errors"
)

// ImageField is the multipart field carrying the upload.
const ImageField = "image"

// ProcessHandler converts uploaded images into arc instructions.
type ProcessHandler struct {
	logger    *observability.Logger
	runner    pipeline.Runner
	defaults  func() pipeline.Params
	maxUpload int64
}

// NewProcessHandler creates a new process handler. defaults supplies the
// parameters used for omitted form fields.
func NewProcessHandler(logger *observability.Logger, runner pipeline.Runner, defaults func() pipeline.Params, maxUpload int64) *ProcessHandler {
	return &ProcessHandler{
		logger:    logger,
		runner:    runner,
		defaults:  defaults,
		maxUpload: maxUpload,
	}
}

// ProcessResponse is the success envelope.
type ProcessResponse struct {
	Status           string   `json:"status"`
	InstructionCount int      `json:"instruction_count"`
	Instructions     []string `json:"instructions"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Process handles POST /process.
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.logger.WithContext(ctx).WithOperation("process")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "image too large")
			return
		}
		writeError(w, http.StatusBadRequest, "no image file uploaded")
		return
	}

	file, header, err := r.FormFile(ImageField)
	if err != nil {
		// A part sent with an empty filename is parsed as a plain value.
		if _, ok := r.MultipartForm.Value[ImageField]; ok {
			writeError(w, http.StatusBadRequest, "invalid file name")
			return
		}
		writeError(w, http.StatusBadRequest, "no image file uploaded")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error().Err(err).Msg("reading upload failed")
		writeError(w, http.StatusInternalServerError, "could not read upload")
		return
	}

	params, err := parseParams(r, h.defaults())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ins, err := h.runner.Run(ctx, data, params)
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		var pe *pipeline.Error
		if errors.As(err, &pe) {
			msg = pe.Message
		}
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("file", header.Filename).Msg("processing failed")
		} else {
			log.Info().Err(err).Str("file", header.Filename).Msg("request rejected")
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, ProcessResponse{
		Status:           "success",
		InstructionCount: len(ins),
		Instructions:     arc.Strings(ins),
	})
}

// statusFor maps pipeline error kinds to HTTP status codes.
func statusFor(err error) int {
	switch pipeline.KindOf(err) {
	case pipeline.KindValidation, pipeline.KindDecode:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseParams overlays the submitted form fields on defaults.
func parseParams(r *http.Request, p pipeline.Params) (pipeline.Params, error) {
	floats := []struct {
		name string
		dst  *float64
	}{
		{"sampling_rate", &p.SamplingRate},
		{"origin_x", &p.OriginX},
		{"origin_y", &p.OriginY},
		{"scale", &p.Scale},
	}
	for _, f := range floats {
		if v := r.FormValue(f.name); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return p, errors.Errorf("invalid %s: %q", f.name, v)
			}
			*f.dst = parsed
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"time_s", &p.TimeStart},
		{"time_e", &p.TimeEnd},
	}
	for _, f := range ints {
		if v := r.FormValue(f.name); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return p, errors.Errorf("invalid %s: %q", f.name, v)
			}
			*f.dst = parsed
		}
	}

	if v := r.FormValue("method"); v != "" {
		p.Method = v
	}
	if v := r.FormValue("mode"); v != "" {
		p.Mode = v
	}
	return p, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Status: "error", Message: message})
}
