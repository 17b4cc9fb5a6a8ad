package evaluation_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/vantage/internal/evaluation"
	"github.com/JaimeStill/vantage/pkg/routes"
)

const table = `tile_id,pred_class,fema_class,confidence
t1,destroyed,destroyed,0.9
t2,no-damage,destroyed,0.5
t3,destroyed,,0.7
`

func newMux() *http.ServeMux {
	h := evaluation.NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), 1<<20)
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

type reportBody struct {
	Evaluated  int                       `json:"evaluated"`
	Excluded   int                       `json:"excluded"`
	Mismatches evaluation.Mismatches     `json:"mismatches"`
	Matrix     map[string]map[string]int `json:"confusion_matrix"`
}

func TestHandlerEvaluateRawBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/evaluations", strings.NewReader(table))
	req.Header.Set("Content-Type", "text/csv")
	newMux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var body reportBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Evaluated != 2 || body.Excluded != 1 {
		t.Errorf("evaluated=%d excluded=%d, want 2 and 1", body.Evaluated, body.Excluded)
	}
}

func TestHandlerEvaluateMultipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("table", "predictions.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write([]byte(table))
	mw.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/evaluations", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	newMux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
}

func TestHandlerEvaluateRejectsBadTables(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"missing column", "tile_id,pred_class\nt1,destroyed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newMux().ServeHTTP(rec, httptest.NewRequest("POST", "/evaluations", strings.NewReader(tt.body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}
