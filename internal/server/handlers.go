package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-matcher/internal/llm"
	"github.com/jonathan/resume-matcher/internal/server/middleware"
	"github.com/jonathan/resume-matcher/internal/session"
)

// maxRequestBytes bounds request bodies. Both documents arrive as text.
const maxRequestBytes = 4 << 20

// MatchRequest is the body of every /api endpoint.
type MatchRequest struct {
	Resume         string `json:"resume" validate:"required,notblank"`
	JobDescription string `json:"job_description" validate:"required,notblank"`
}

// SuggestionsResponse is returned by the optimize and cover-letter endpoints.
type SuggestionsResponse struct {
	Suggestions string `json:"suggestions"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// decodeMatchRequest reads and validates a MatchRequest.
func decodeMatchRequest(w http.ResponseWriter, r *http.Request) (MatchRequest, error) {
	var req MatchRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, &ErrValidation{Message: "request body too large"}
		}
		return req, &ErrValidation{Message: "invalid JSON body"}
	}

	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return req, &ErrValidation{Field: fieldErrs[0].Field(), Message: "is required"}
		}
		return req, &ErrValidation{Message: err.Error()}
	}
	return req, nil
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyze scores the posted documents. It keeps no state.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := decodeMatchRequest(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	result := session.Analyze(req.Resume, req.JobDescription, s.scoring, s.insights)
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	s.handleGenerate(w, r, func(ctx context.Context, o llm.Optimizer, req MatchRequest) (string, error) {
		return o.Suggest(ctx, req.Resume, req.JobDescription, "")
	})
}

func (s *Server) handleCoverLetter(w http.ResponseWriter, r *http.Request) {
	s.handleGenerate(w, r, func(ctx context.Context, o llm.Optimizer, req MatchRequest) (string, error) {
		return o.CoverLetter(ctx, req.Resume, req.JobDescription, "")
	})
}

// handleGenerate runs one remote optimization call. The caller has already
// been authenticated; the server's own API key is used upstream.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, call func(context.Context, llm.Optimizer, MatchRequest) (string, error)) {
	req, err := decodeMatchRequest(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if s.optimizer == nil {
		s.errorResponse(w, r, &llm.ConfigError{Message: "no optimizer configured"})
		return
	}

	subject, _ := middleware.GetSubject(r)
	s.logger.Debug("calling optimizer", "path", r.URL.Path, "subject", subject)

	text, err := call(r.Context(), s.optimizer, req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, SuggestionsResponse{Suggestions: text})
}
