package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"prizedraw/domain/entities"
	"prizedraw/domain/services"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

type createLotteryRequest struct {
	Creator string                 `json:"creator"`
	Config  entities.LotteryConfig `json:"config"`
}

type buyTicketsRequest struct {
	Buyer    string `json:"buyer"`
	Quantity int64  `json:"quantity"`
}

type claimRefundRequest struct {
	Buyer string `json:"buyer"`
}

type lotteryResponse struct {
	entities.LotteryDetails
	Creator       entities.AccountID         `json:"creator"`
	PrizeShares   []int64                    `json:"prize_shares"`
	EscrowBalance int64                      `json:"escrow_balance"`
	Participants  []entities.ParticipantInfo `json:"participants"`
	Halted        bool                       `json:"halted,omitempty"`
	HaltReason    string                     `json:"halt_reason,omitempty"`
}

func newLotteryResponse(engine *services.LotteryEngine) lotteryResponse {
	halted, reason := engine.Halted()
	return lotteryResponse{
		LotteryDetails: engine.Details(),
		Creator:        engine.Creator(),
		PrizeShares:    engine.Config().PrizeShares,
		EscrowBalance:  engine.EscrowBalance(),
		Participants:   engine.Participants(),
		Halted:         halted,
		HaltReason:     reason,
	}
}

// Health reports liveness
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateLottery validates a config and starts a new lottery
func (s *Server) CreateLottery(w http.ResponseWriter, r *http.Request) {
	var req createLotteryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	id, err := s.lotteries.Create(r.Context(), entities.AccountID(req.Creator), req.Config)
	if err != nil {
		writeError(w, err)
		return
	}

	engine, err := s.lotteries.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newLotteryResponse(engine))
}

// ListLotteries returns every lottery in creation order
func (s *Server) ListLotteries(w http.ResponseWriter, r *http.Request) {
	engines := s.lotteries.List()
	out := make([]entities.LotteryDetails, 0, len(engines))
	for _, engine := range engines {
		out = append(out, engine.Details())
	}
	writeJSON(w, http.StatusOK, out)
}

// GetLottery returns one lottery's details
func (s *Server) GetLottery(w http.ResponseWriter, r *http.Request) {
	engine, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newLotteryResponse(engine))
}

// BuyTickets purchases a contiguous range of tickets
func (s *Server) BuyTickets(w http.ResponseWriter, r *http.Request) {
	engine, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req buyTicketsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	tickets, err := engine.BuyTickets(r.Context(), entities.AccountID(req.Buyer), req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tickets)
}

// GetTickets returns the ticket blocks held by one buyer
func (s *Server) GetTickets(w http.ResponseWriter, r *http.Request) {
	engine, ok := s.lookup(w, r)
	if !ok {
		return
	}
	blocks := engine.TicketsOf(entities.AccountID(chi.URLParam(r, "buyer")))
	if blocks == nil {
		blocks = []entities.TicketBlock{}
	}
	writeJSON(w, http.StatusOK, blocks)
}

// RequestDraw resolves the sale once the draw time has passed
func (s *Server) RequestDraw(w http.ResponseWriter, r *http.Request) {
	engine, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := engine.RequestDraw(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, engine.Details())
}

// ClaimRefund returns a buyer's ticket money on a cancelled lottery
func (s *Server) ClaimRefund(w http.ResponseWriter, r *http.Request) {
	engine, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req claimRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	amount, err := engine.ClaimRefund(r.Context(), entities.AccountID(req.Buyer))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"amount": amount})
}

// GetWinners returns the resolved winners in tier order
func (s *Server) GetWinners(w http.ResponseWriter, r *http.Request) {
	engine, ok := s.lookup(w, r)
	if !ok {
		return
	}
	winners := engine.Winners()
	if winners == nil {
		winners = []entities.Winner{}
	}
	writeJSON(w, http.StatusOK, winners)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*services.LotteryEngine, bool) {
	engine, err := s.lotteries.Get(entities.LotteryID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return engine, true
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, entities.ErrInvalidConfig),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidAccount):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrLotteryNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrTransferFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, services.ErrHalted), errors.Is(err, services.ErrInvariantViolation):
		return http.StatusLocked
	case errors.Is(err, services.ErrOracleUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrPayoutFailed):
		return http.StatusBadGateway
	case services.IsPrecondition(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("Unhandled API error")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}
