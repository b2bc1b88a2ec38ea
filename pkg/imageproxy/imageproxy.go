// Luminary: A streamlined CLI tool for searching and downloading manga.
// Copyright (C) 2025 Luca M. Schmidt (LuMiSxh)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package imageproxy exposes pkg/imagesvc over HTTP. Routing follows the
// chi.NewRouter / chi.URLParam style the yomira pack member uses for its
// domain handlers (see comic.Handler.Routes), reduced to the one public,
// unauthenticated endpoint the image proxy needs.
package imageproxy

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tanoshi/pkg/apperr"
	"tanoshi/pkg/applog"
	"tanoshi/pkg/imagesvc"
)

// Handler serves decoded image tokens on behalf of a Service.
type Handler struct {
	svc *imagesvc.Service
	log applog.Logger
}

// NewHandler constructs a Handler for svc. A nil logger falls back to Noop.
func NewHandler(svc *imagesvc.Service, log applog.Logger) *Handler {
	if log == nil {
		log = applog.Noop()
	}
	return &Handler{svc: svc, log: log}
}

// Routes returns a chi.Router exposing GET /{token}; cmd/serve.go mounts it
// under /image.
func (h *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{token}", h.getImage)
	return router
}

func (h *Handler) getImage(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	referer := r.URL.Query().Get("referer")

	img, err := h.svc.Fetch(r.Context(), token, referer)
	if err != nil {
		status := apperr.KindOf(err).HTTPStatus()
		if status >= 500 {
			h.log.Error("image proxy fetch failed for token %q: %v", token, err)
		}
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Bytes)
}
