package rest

import (
	"fmt"
	"net/http"
	"time"
)

// Start - starts the HTTP facade.
func Start(port string, h Handlers) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      newMux(h),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func newMux(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", h.Ping)

	mux.HandleFunc("POST /auth/generate-token", h.GenerateToken)
	mux.HandleFunc("POST /auth/verify/{token}", h.VerifyToken)

	mux.HandleFunc("POST /game/create", h.CreateGame)
	mux.HandleFunc("GET /game/resolve/{code}", h.ResolveGame)
	mux.HandleFunc("GET /game/get/{gameID}", h.GetGame)
	mux.HandleFunc("GET /game/list", h.ListGames)

	mux.HandleFunc("POST /ai/get-move", h.SuggestMove)

	return mux
}
