package delivery

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

func RegisterRoutes(r chi.Router, h *TurnHandler, turnsPerMinute int) {
	r.Route("/", func(pr chi.Router) {
		pr.Use(httputil.RecoverMiddleware)

		pr.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("pong"))
		})

		// --- сессия ---
		pr.Get("/session", h.GetSession)
		pr.Delete("/session", h.ResetSession)

		// --- разговор ---
		pr.Post("/conversations", h.StartConversation)
		pr.Post("/conversations/end", h.EndConversation)
		pr.Get("/summary", h.Summary)

		// --- ход ---
		pr.Route("/turn", func(tr chi.Router) {
			tr.Use(httprate.LimitByIP(turnsPerMinute, time.Minute))

			tr.Post("/start", h.Start)
			tr.Put("/audio", h.UploadAudio)
			tr.Post("/stop", h.Stop)
			tr.Post("/toggle", h.Toggle)
		})
	})
}
