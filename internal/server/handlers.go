package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Divas-Gupta30/readease/internal/graph"
	"github.com/Divas-Gupta30/readease/internal/ingestion"
	"github.com/Divas-Gupta30/readease/internal/processing"
	"github.com/Divas-Gupta30/readease/internal/progress"
)

const maxJSONBody = 4 << 20

// handleDocument accepts a multipart upload in field "file". With ?stream=1
// the reply is NDJSON: one {"event":...} line per progress event, then a
// final {"result":...} or {"error":...} line.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "file is too large", nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file is too large", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field", err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload", err)
		return
	}

	opts, err := formOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid parameter", err)
		return
	}
	doc := ingestion.NewSourceDocument(header.Filename, header.Header.Get("Content-Type"), data)

	if stream, _ := strconv.ParseBool(r.URL.Query().Get("stream")); stream {
		s.streamDocument(w, r, doc, opts)
		return
	}

	res, err := s.pipeline.Run(r.Context(), doc, opts)
	if err != nil {
		status, msg := s.failure(doc, err)
		writeError(w, status, msg, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, res)
}

func (s *Server) streamDocument(w http.ResponseWriter, r *http.Request, doc *ingestion.SourceDocument, opts graph.Options) {
	obs, events, stop := progress.Stream(r.Context(), 16)
	opts.Observer = obs

	type outcome struct {
		res *graph.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := s.pipeline.Run(r.Context(), doc, opts)
		stop()
		done <- outcome{res, err}
	}()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	for ev := range events {
		enc.Encode(map[string]any{"event": ev})
		if flusher != nil {
			flusher.Flush()
		}
	}

	out := <-done
	if out.err != nil {
		_, msg := s.failure(doc, out.err)
		enc.Encode(map[string]any{"error": errorResponse{Error: msg, Detail: out.err.Error()}})
		return
	}
	enc.Encode(map[string]any{"result": out.res})
}

func (s *Server) failure(doc *ingestion.SourceDocument, err error) (int, string) {
	msg := graph.UserMessage(err)
	var xe *ingestion.ExtractionError
	switch {
	case errors.As(err, &xe):
		s.log.Info("document rejected", zap.String("name", doc.Name), zap.Error(err))
		return http.StatusUnprocessableEntity, msg
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request cancelled"
	default:
		s.log.Error("pipeline failed", zap.String("name", doc.Name), zap.Error(err))
		return http.StatusInternalServerError, msg
	}
}

func formOptions(r *http.Request) (graph.Options, error) {
	opts := graph.Options{Lang: r.FormValue("lang")}
	var err error
	if opts.Level, err = optionalInt(r.FormValue("level")); err != nil {
		return opts, err
	}
	if opts.MaxSentences, err = optionalInt(r.FormValue("max_sentences")); err != nil {
		return opts, err
	}
	return opts, nil
}

func optionalInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

type simplifyRequest struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

type simplifyResponse struct {
	Display string `json:"display"`
	Level   int    `json:"level"`
}

func (s *Server) handleSimplify(w http.ResponseWriter, r *http.Request) {
	var req simplifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	level := processing.ClampLevel(req.Level)
	writeJSONResponse(w, http.StatusOK, simplifyResponse{
		Display: processing.Simplify(req.Text, level),
		Level:   level,
	})
}

type summarizeRequest struct {
	Text         string `json:"text"`
	Lang         string `json:"lang"`
	MaxSentences int    `json:"max_sentences"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

// handleSummarize runs the local extractive summarizer only.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSONResponse(w, http.StatusOK, summarizeResponse{
		Summary: processing.Summarize(req.Text, req.Lang, req.MaxSentences),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body is too large", nil)
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status": "healthy",
		"remote": s.pipeline.RemoteEnabled(),
		"cache":  "disabled",
	}
	if s.cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		health["cache"] = "disconnected"
		if err := s.cache.Ping(ctx); err == nil {
			health["cache"] = "connected"
		}
	}
	writeJSONResponse(w, http.StatusOK, health)
}
