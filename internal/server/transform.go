package server

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/woped/model-transformer/internal/transform"
	"github.com/woped/model-transformer/internal/transform/errs"
)

// Transformation directions accepted by the transform endpoint.
const (
	directionBPMNToPNML = "bpmntopnml"
	directionPNMLToBPMN = "pnmltobpmn"
)

// Transform handles POST /transform?direction={bpmntopnml|pnmltobpmn}. The
// model is read from the form field matching the source formalism, falling
// back to a raw XML body.
func (s *Server) Transform(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK

	defer func() {
		requestCount.WithLabelValues(r.Method, "/transform", strconv.Itoa(status)).Inc()
		requestLatency.WithLabelValues(r.Method, "/transform").Observe(time.Since(start).Seconds())
	}()

	if s.tokenChecker != nil {
		if err := s.tokenChecker.Check(r.Context()); err != nil {
			status = s.writeTransformError(w, err)
			return
		}
	}

	direction := r.URL.Query().Get("direction")

	slog.Info("transform request", "direction", direction, "content_length", r.ContentLength)

	var result map[string]string
	var err error

	transformStart := time.Now()
	switch direction {
	case directionBPMNToPNML:
		var bpmnXML string
		bpmnXML, err = xmlContent(r, "bpmn")
		if err == nil {
			var pnmlXML string
			pnmlXML, err = transform.BPMNToPNML(bpmnXML)
			result = map[string]string{"pnml": pnmlXML}
		}
	case directionPNMLToBPMN:
		var pnmlXML string
		pnmlXML, err = xmlContent(r, "pnml")
		if err == nil {
			var bpmnXML string
			bpmnXML, err = transform.PNMLToBPMN(pnmlXML)
			result = map[string]string{"bpmn": bpmnXML}
		}
	default:
		err = &errs.UnexpectedQueryParameter{Param: "direction"}
	}
	transformDuration.Observe(time.Since(transformStart).Seconds())

	if err != nil {
		status = s.writeTransformError(w, err)
		return
	}

	slog.Info("transform completed", "direction", direction, "duration_ms", time.Since(start).Milliseconds())
	httpResponseJSON(w, result, http.StatusOK)
}

// xmlContent extracts the model XML from the request: the named form field
// first, then a raw body for XML content types.
func xmlContent(r *http.Request, field string) (string, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil && err != http.ErrNotMultipart {
		return "", &errs.MalformedInput{Err: err}
	}
	if v := r.FormValue(field); v != "" {
		return v, nil
	}

	contentType := strings.ToLower(r.Header.Get("Content-Type"))
	if strings.Contains(contentType, "xml") {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return "", &errs.MalformedInput{Err: err}
		}
		if len(body) > 0 {
			return string(body), nil
		}
	}

	return "", &errs.UnexpectedQueryParameter{Param: field}
}

// writeTransformError is the single funnel mapping error kinds to responses.
// Known and internal errors surface their message; everything else is
// replaced by the canonical message and logged in full.
func (s *Server) writeTransformError(w http.ResponseWriter, err error) int {
	switch {
	case errs.IsKnown(err):
		slog.Warn("known error during transform", "error", err)
		httpResponse(w, err.Error(), http.StatusBadRequest)
	case errs.IsInternal(err):
		slog.Error("internal error during transform", "error", err)
		httpResponse(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("unexpected error during transform", "error", err)
		httpResponse(w, errs.UnexpectedMessage, http.StatusBadRequest)
	}
	return http.StatusBadRequest
}
