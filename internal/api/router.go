package api

import (
	"net/http"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/metrics"
	"github.com/erazemk/zaloga/internal/store"
)

// NewRouter creates the API router with all endpoints registered. collector
// may be nil, in which case login attempts are not counted.
func NewRouter(sessions *auth.Sessions, items store.Store, collector *metrics.Collector) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Sessions: sessions, Metrics: collector}
	itemsHandler := &ItemsHandler{Store: items}

	authMW := SessionMiddleware(sessions)

	// Public.
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Authenticated routes.
	mux.Handle("POST /logout", authMW(http.HandlerFunc(authHandler.Logout)))

	mux.Handle("POST /items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /items/search/", authMW(http.HandlerFunc(itemsHandler.Search)))
	mux.Handle("GET /items/{item_code}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /items/{item_code}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /items/{item_code}", authMW(http.HandlerFunc(itemsHandler.Delete)))

	return mux
}
