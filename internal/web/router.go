package web

import (
	"net/http"

	"github.com/erazemk/wardrobe/internal/catalog"
	webembed "github.com/erazemk/wardrobe/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(svc *catalog.Service) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Service:   svc,
		Templates: templates,
	}

	mux := http.NewServeMux()

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/items", http.StatusFound)
	})

	mux.HandleFunc("GET /items", s.ItemsPage)
	mux.HandleFunc("GET /add_item", s.AddItemPage)
	mux.HandleFunc("POST /add_item", s.AddItemSubmit)
	mux.HandleFunc("GET /edit_item/{id}", s.EditItemPage)
	mux.HandleFunc("POST /edit_item/{id}", s.EditItemSubmit)
	mux.HandleFunc("POST /delete_item/{id}", s.DeleteItemSubmit)

	return mux, nil
}
