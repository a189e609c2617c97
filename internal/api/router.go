package api

import (
	"net/http"

	"github.com/erazemk/wardrobe/internal/catalog"
)

// NewRouter creates the JSON API router with all endpoints registered.
func NewRouter(svc *catalog.Service) http.Handler {
	mux := http.NewServeMux()

	items := &ItemsHandler{Service: svc}

	mux.HandleFunc("GET /wardrobe", items.List)
	mux.HandleFunc("POST /add", items.Create)
	mux.HandleFunc("GET /data/{id}", items.Get)
	mux.HandleFunc("PUT /update/{id}", items.Update)
	mux.HandleFunc("DELETE /delete/{id}", items.Delete)

	mux.HandleFunc("GET /healthz", items.Health)

	return mux
}

// Paths are the path patterns the router serves, for mounting it on a parent mux.
var Paths = []string{"/wardrobe", "/add", "/data/", "/update/", "/delete/", "/healthz"}
