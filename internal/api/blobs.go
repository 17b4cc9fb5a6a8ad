package api

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/JaimeStill/vantage/pkg/handlers"
	"github.com/JaimeStill/vantage/pkg/routes"
	"github.com/JaimeStill/vantage/pkg/storage"
)

// blobHandler serves stored tile files and assessment exports by key.
type blobHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newBlobHandler(store storage.System, logger *slog.Logger) *blobHandler {
	return &blobHandler{
		store:  store,
		logger: logger.With("handler", "blobs"),
	}
}

func (h *blobHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/blobs",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: h.download},
		},
	}
}

func (h *blobHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(
			w, h.logger,
			storage.MapHTTPStatus(err), err,
		)
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}
