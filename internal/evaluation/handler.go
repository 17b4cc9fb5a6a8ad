package evaluation

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/JaimeStill/vantage/pkg/handlers"
	"github.com/JaimeStill/vantage/pkg/routes"
)

// ErrNoTable indicates a request carried no table upload.
var ErrNoTable = errors.New("no table uploaded")

// Handler scores uploaded tabular predictions.
type Handler struct {
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler accepting tables up to maxUploadSize bytes.
func NewHandler(logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		logger:        logger.With("handler", "evaluations"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for evaluation endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/evaluations",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Evaluate},
		},
	}
}

// Evaluate reads a CSV table from a multipart "table" part or from the raw
// request body and returns its Report.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	body, err := h.tableReader(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	defer body.Close()

	t, err := ReadTable(body)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	records, mismatches := t.Records()
	report := Evaluate(records, mismatches)

	h.logger.Info("table evaluated",
		"rows", len(t.Rows),
		"geometry", t.HasGeometry,
		"evaluated", report.Evaluated,
		"excluded", report.Excluded,
	)
	handlers.RespondJSON(w, http.StatusOK, report)
}

func (h *Handler) tableReader(r *http.Request) (io.ReadCloser, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, nil
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		return nil, err
	}

	f, _, err := r.FormFile("table")
	if err != nil {
		return nil, ErrNoTable
	}
	return f, nil
}
