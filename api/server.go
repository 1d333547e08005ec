package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"matka/config"
	"matka/models"
	"matka/service"

	log "github.com/sirupsen/logrus"
)

// Server exposes the round lifecycle over HTTP
type Server struct {
	cfg     *config.Config
	stakes  service.StakeService
	rounds  service.RoundService
	results service.ResultService
	archive service.ArchiveService
	httpSrv *http.Server
}

// NewServer creates the HTTP API server
func NewServer(cfg *config.Config, stakes service.StakeService, rounds service.RoundService, results service.ResultService, archive service.ArchiveService) *Server {
	s := &Server{
		cfg:     cfg,
		stakes:  stakes,
		rounds:  rounds,
		results: results,
		archive: archive,
	}
	s.httpSrv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Router builds the route table
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rounds/current", s.getCurrentRound)
	mux.HandleFunc("GET /rounds/{id}", s.getRound)
	mux.HandleFunc("POST /rounds/{id}/bets", s.placeBet)
	mux.HandleFunc("GET /rounds/{id}/numbers", s.getNumbers)
	mux.HandleFunc("GET /rounds/{id}/profit-numbers", s.getProfitNumbers)
	mux.HandleFunc("POST /rounds/{id}/result", s.declareResult)
	mux.HandleFunc("GET /rounds/{id}/result", s.getResult)
	mux.HandleFunc("POST /rounds/{id}/cancel", s.cancelRound)
	mux.HandleFunc("GET /results", s.listResults)
	return mux
}

// Start begins serving until the listener fails or Shutdown is called
func (s *Server) Start() error {
	log.WithField("addr", s.cfg.ListenAddr).Info("HTTP API listening")
	err := s.httpSrv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// writeError maps service sentinels onto HTTP statuses: validation failures
// are 400, unknown entities 404, state conflicts 409, wallet trouble 502.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidNumber),
		errors.Is(err, service.ErrInvalidStake):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrRoundNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrNoResultYet):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrRoundNotAcceptingBets),
		errors.Is(err, service.ErrNumberLocked),
		errors.Is(err, service.ErrRoundNotInAdminPeriod),
		errors.Is(err, service.ErrAlreadyDeclared),
		errors.Is(err, service.ErrAlreadySettled),
		errors.Is(err, service.ErrInsufficientFunds):
		status = http.StatusConflict
	case errors.Is(err, service.ErrWalletCreditFailed):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func roundID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

type roundResponse struct {
	ID              int64      `json:"id"`
	GameClass       string     `json:"game_class"`
	SlotLabel       string     `json:"slot_label"`
	SlotStart       time.Time  `json:"slot_start"`
	SlotEnd         time.Time  `json:"slot_end"`
	BettingClosesAt time.Time  `json:"betting_closes_at"`
	Status          string     `json:"status"`
	WinningNumber   *int       `json:"winning_number,omitempty"`
	DigitResult     *int       `json:"digit_result,omitempty"`
	DeclaredAt      *time.Time `json:"declared_at,omitempty"`
}

func toRoundResponse(round *models.Round) roundResponse {
	return roundResponse{
		ID:              round.ID,
		GameClass:       round.GameClass,
		SlotLabel:       round.SlotLabel,
		SlotStart:       round.SlotStart,
		SlotEnd:         round.SlotEnd,
		BettingClosesAt: round.BettingClosesAt,
		Status:          string(round.EffectiveStatus(time.Now())),
		WinningNumber:   round.WinningNumber,
		DigitResult:     round.DigitResult,
		DeclaredAt:      round.DeclaredAt,
	}
}

func (s *Server) getCurrentRound(w http.ResponseWriter, r *http.Request) {
	gameClass := r.URL.Query().Get("class")
	if gameClass == "" {
		gameClass = s.cfg.GameClasses[0]
	}

	round, err := s.rounds.GetCurrentRound(r.Context(), gameClass)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoundResponse(round))
}

func (s *Server) getRound(w http.ResponseWriter, r *http.Request) {
	id, err := roundID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid round id"})
		return
	}

	round, err := s.rounds.GetRound(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoundResponse(round))
}

type placeBetRequest struct {
	UserID     int64  `json:"user_id"`
	NumberType string `json:"number_type"`
	Number     int    `json:"number"`
	ClassTag   string `json:"class_tag"`
	Amount     int64  `json:"amount"`
}

type placeBetResponse struct {
	BetID     int64  `json:"bet_id"`
	RoundID   int64  `json:"round_id"`
	Number    int    `json:"number"`
	Amount    int64  `json:"amount"`
	Outcome   string `json:"outcome"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	id, err := roundID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid round id"})
		return
	}

	var req placeBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	numberType := models.NumberType(req.NumberType)
	if numberType != models.NumberTypeSingle && numberType != models.NumberTypeTriple {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "number_type must be single or triple"})
		return
	}

	bet, err := s.stakes.PlaceBet(r.Context(), id, req.UserID, numberType, req.Number, req.ClassTag, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, placeBetResponse{
		BetID:     bet.ID,
		RoundID:   bet.RoundID,
		Number:    bet.Number,
		Amount:    bet.Amount,
		Outcome:   string(bet.Outcome),
		CreatedAt: bet.CreatedAt.Format(time.RFC3339),
	})
}

type numberEntry struct {
	Number      int   `json:"number"`
	TotalStaked int64 `json:"total_staked"`
	EntryCount  int   `json:"entry_count"`
	Locked      bool  `json:"locked"`
}

func (s *Server) getNumbers(w http.ResponseWriter, r *http.Request) {
	id, err := roundID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid round id"})
		return
	}

	numberType := models.NumberType(r.URL.Query().Get("type"))
	if numberType == "" {
		numberType = models.NumberTypeTriple
	}
	if numberType != models.NumberTypeSingle && numberType != models.NumberTypeTriple {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "type must be single or triple"})
		return
	}

	aggregates, err := s.stakes.GetAggregates(r.Context(), id, numberType)
	if err != nil {
		writeError(w, err)
		return
	}

	entries := make([]numberEntry, 0, len(aggregates))
	for _, agg := range aggregates {
		entries = append(entries, numberEntry{
			Number:      agg.Number,
			TotalStaked: agg.TotalStaked,
			EntryCount:  agg.EntryCount,
			Locked:      agg.Locked,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

type profitNumberEntry struct {
	Number    int   `json:"number"`
	Liability int64 `json:"liability"`
	Locked    bool  `json:"locked"`
}

func (s *Server) getProfitNumbers(w http.ResponseWriter, r *http.Request) {
	id, err := roundID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid round id"})
		return
	}

	candidates, err := s.results.ComputeProfitNumbers(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	limit := len(candidates)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		if n < limit {
			limit = n
		}
	}

	entries := make([]profitNumberEntry, 0, limit)
	for _, c := range candidates[:limit] {
		entries = append(entries, profitNumberEntry{
			Number:    c.Number,
			Liability: c.Liability,
			Locked:    c.Locked,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

type declareResultRequest struct {
	WinningNumber int `json:"winning_number"`
}

type resultResponse struct {
	RoundID       int64     `json:"round_id"`
	GameClass     string    `json:"game_class"`
	SlotLabel     string    `json:"slot_label"`
	WinningNumber int       `json:"winning_number"`
	DigitResult   int       `json:"digit_result"`
	DeclaredAt    time.Time `json:"declared_at"`
}

func toResultResponse(result *models.Result) resultResponse {
	return resultResponse{
		RoundID:       result.RoundID,
		GameClass:     result.GameClass,
		SlotLabel:     result.SlotLabel,
		WinningNumber: result.WinningNumber,
		DigitResult:   result.DigitResult,
		DeclaredAt:    result.DeclaredAt,
	}
}

func (s *Server) declareResult(w http.ResponseWriter, r *http.Request) {
	id, err := roundID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid round id"})
		return
	}

	var req declareResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := s.results.DeclareResult(r.Context(), id, req.WinningNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResultResponse(result))
}

func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	id, err := roundID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid round id"})
		return
	}

	result, err := s.results.GetResult(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultResponse(result))
}

func (s *Server) cancelRound(w http.ResponseWriter, r *http.Request) {
	id, err := roundID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid round id"})
		return
	}

	if err := s.rounds.CancelRound(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

const maxHistoryResults = 1000

func (s *Server) listResults(w http.ResponseWriter, r *http.Request) {
	filter := models.ResultFilter{
		GameClass: r.URL.Query().Get("class"),
		SlotLabel: r.URL.Query().Get("slot"),
	}
	if v := r.URL.Query().Get("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid from timestamp"})
			return
		}
		filter.From = &from
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid to timestamp"})
			return
		}
		filter.To = &to
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoryResults {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	entries := make([]resultResponse, 0, limit)
	for result, err := range s.archive.History(r.Context(), filter) {
		if err != nil {
			writeError(w, err)
			return
		}
		entries = append(entries, toResultResponse(result))
		if len(entries) == limit {
			break
		}
	}
	writeJSON(w, http.StatusOK, entries)
}
