package httpapi

import (
	"context"
	"net/http"

	"prizedraw/domain/entities"
	"prizedraw/domain/services"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Lotteries is the registry surface the HTTP API drives
type Lotteries interface {
	Create(ctx context.Context, creator entities.AccountID, cfg entities.LotteryConfig) (entities.LotteryID, error)
	Get(id entities.LotteryID) (*services.LotteryEngine, error)
	List() []*services.LotteryEngine
}

// Server exposes lotteries over HTTP
type Server struct {
	lotteries Lotteries
	router    http.Handler
}

// New constructs the router
func New(lotteries Lotteries) *Server {
	s := &Server{lotteries: lotteries}
	s.router = s.buildRouter()
	return s
}

// Handler exposes the configured HTTP router
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/health", s.Health)

	r.Route("/lotteries", func(r chi.Router) {
		r.Post("/", s.CreateLottery)
		r.Get("/", s.ListLotteries)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetLottery)
			r.Post("/tickets", s.BuyTickets)
			r.Get("/tickets/{buyer}", s.GetTickets)
			r.Post("/draw", s.RequestDraw)
			r.Post("/refunds", s.ClaimRefund)
			r.Get("/winners", s.GetWinners)
		})
	})

	return r
}
