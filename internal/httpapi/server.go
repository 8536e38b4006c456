package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/boldcity/gymgate/internal/gym/service"
	"github.com/boldcity/gymgate/internal/gym/store"
	"github.com/boldcity/gymgate/internal/gym/types"
	"github.com/boldcity/gymgate/internal/metrics"
)

type Dependencies struct {
	Logger *log.Logger
	Addr   string

	Access        *service.AccessService
	Members       *service.MemberService
	Subscriptions *service.SubscriptionService
	Reports       *service.ReportService
	Heartbeats    *service.HeartbeatService
	Debouncer     *service.Debouncer

	Sessions store.SessionStore
	Logs     store.ScanLogStore

	// Metrics tags request-level observations, such as which kiosk a scan
	// came from. A nil value disables them.
	Metrics *metrics.Metrics
	// MetricsHandler, when non-nil, is mounted at GET /metrics.
	MetricsHandler http.Handler
}

type Server struct {
	httpServer    *http.Server
	logger        *log.Logger
	access        *service.AccessService
	members       *service.MemberService
	subscriptions *service.SubscriptionService
	reports       *service.ReportService
	heartbeats    *service.HeartbeatService
	debouncer     *service.Debouncer
	sessions      store.SessionStore
	logs          store.ScanLogStore
	metrics       *metrics.Metrics
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:        d.Logger,
		access:        d.Access,
		members:       d.Members,
		subscriptions: d.Subscriptions,
		reports:       d.Reports,
		heartbeats:    d.Heartbeats,
		debouncer:     d.Debouncer,
		sessions:      d.Sessions,
		logs:          d.Logs,
		metrics:       d.Metrics,
	}

	mux.HandleFunc("POST /v1/scan", s.handleScan)
	mux.HandleFunc("POST /v1/checkin", s.handleCheckIn)
	mux.HandleFunc("POST /v1/checkout", s.handleCheckOut)

	mux.HandleFunc("POST /v1/members", s.handleCreateMember)
	mux.HandleFunc("GET /v1/members", s.handleListMembers)
	mux.HandleFunc("GET /v1/members/expiring", s.handleExpiringMembers)
	mux.HandleFunc("GET /v1/members/{id}", s.handleGetMember)
	mux.HandleFunc("PATCH /v1/members/{id}", s.handleUpdateMember)
	mux.HandleFunc("DELETE /v1/members/{id}", s.handleDeleteMember)

	mux.HandleFunc("POST /v1/members/{id}/subscription", s.handleRenewSubscription)
	mux.HandleFunc("GET /v1/members/{id}/subscription", s.handleGetSubscription)
	mux.HandleFunc("GET /v1/members/{id}/subscription/history", s.handleSubscriptionHistory)
	mux.HandleFunc("GET /v1/members/{id}/logs", s.handleMemberLogs)
	mux.HandleFunc("GET /v1/members/{id}/hours", s.handleMemberHours)

	mux.HandleFunc("GET /v1/sessions", s.handleListSessions)
	mux.HandleFunc("GET /v1/logs", s.handleListLogs)
	mux.HandleFunc("GET /v1/logs/today", s.handleListLogsToday)

	mux.HandleFunc("POST /v1/heartbeat", s.handleHeartbeat)

	if d.MetricsHandler != nil {
		mux.Handle("GET /metrics", d.MetricsHandler)
	}

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// ── Scanning ─────────────────────────────────────────────────────────────────

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req types.ScanRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	if kiosk := strings.TrimSpace(req.KioskID); kiosk != "" {
		s.metrics.ObserveKioskScan(kiosk)
	}

	// Debounce on the trimmed code so a scanner that pads its payload with
	// whitespace still shares one debounce slot per member.
	code := strings.TrimSpace(req.Code)

	now := time.Now().UTC()
	if s.debouncer != nil && code != "" && !s.debouncer.Allow(code, now) {
		writeJSON(w, http.StatusOK, types.Decision{
			Granted:    false,
			Action:     types.ActionNotApplicable,
			Outcome:    types.OutcomeDuplicate,
			Message:    "Duplicate scan ignored",
			ServerTime: now.Format(time.RFC3339Nano),
		})
		return
	}

	resp, err := s.access.ProcessScan(r.Context(), code)
	if err != nil {
		s.respondDecisionError(w, "scan", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type memberActionRequest struct {
	MemberID string `json:"member_id"`
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var req memberActionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	resp, err := s.access.ProcessCheckIn(r.Context(), req.MemberID)
	if err != nil {
		s.respondDecisionError(w, "checkin", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	var req memberActionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	resp, err := s.access.ProcessCheckOut(r.Context(), req.MemberID)
	if err != nil {
		s.respondDecisionError(w, "checkout", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) respondDecisionError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, service.ErrInvalidCode) {
		writeError(w, http.StatusBadRequest, "invalid_code", err.Error())
		return
	}
	s.logger.Printf("%s error: %v", op, err)
	writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
}

// ── Members ──────────────────────────────────────────────────────────────────

type createMemberRequest struct {
	types.NewMember
	// Optional initial subscription, in calendar months.
	SubscriptionMonths int `json:"subscription_months,omitempty"`
}

type createMemberResponse struct {
	Member       types.Member        `json:"member"`
	Subscription *types.Subscription `json:"subscription,omitempty"`
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	member, err := s.members.Register(r.Context(), req.NewMember)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMemberName) {
			writeError(w, http.StatusBadRequest, "invalid_name", err.Error())
			return
		}
		s.logger.Printf("create member error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	resp := createMemberResponse{Member: *member}
	if req.SubscriptionMonths > 0 {
		sub, err := s.subscriptions.Renew(r.Context(), member.ID, req.SubscriptionMonths)
		if err != nil {
			s.logger.Printf("initial subscription for %s: %v", member.ID, err)
		} else {
			resp.Subscription = sub
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	out, err := s.members.Overview(r.Context())
	if err != nil {
		// Degrade to an empty list: the dashboard still renders.
		s.logger.Printf("list members error: %v", err)
		out = nil
	}
	if out == nil {
		out = []types.MemberOverview{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExpiringMembers(w http.ResponseWriter, r *http.Request) {
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_days", "days must be a non-negative integer")
			return
		}
		days = n
	}

	out, err := s.members.ExpiringSoon(r.Context(), days)
	if err != nil {
		s.logger.Printf("expiring members error: %v", err)
		out = nil
	}
	if out == nil {
		out = []types.MemberOverview{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	member, err := s.members.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrMemberNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "member not found")
			return
		}
		s.logger.Printf("get member error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	writeJSON(w, http.StatusOK, member)
}

type updateMemberRequest struct {
	Name     *string  `json:"name,omitempty"`
	Phone    *string  `json:"phone,omitempty"`
	Email    *string  `json:"email,omitempty"`
	HeightCM *int     `json:"height_cm,omitempty"`
	WeightKG *float64 `json:"weight_kg,omitempty"`
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateMemberRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	member, err := s.members.Update(r.Context(), id, store.MemberUpdate{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		HeightCM: req.HeightCM,
		WeightKG: req.WeightKG,
	})
	if err != nil {
		if errors.Is(err, service.ErrMemberNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "member not found")
			return
		}
		s.logger.Printf("update member error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.members.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrMemberNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "member not found")
			return
		}
		s.logger.Printf("delete member error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Subscriptions ────────────────────────────────────────────────────────────

type renewRequest struct {
	Months int `json:"months"`
}

func (s *Server) handleRenewSubscription(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req renewRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	sub, err := s.subscriptions.Renew(r.Context(), id, req.Months)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMemberNotFound):
			writeError(w, http.StatusNotFound, "not_found", "member not found")
		case errors.Is(err, service.ErrInvalidDuration):
			writeError(w, http.StatusBadRequest, "invalid_duration", err.Error())
		default:
			s.logger.Printf("renew subscription error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	sub, err := s.subscriptions.Current(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrMemberNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "member not found")
			return
		}
		s.logger.Printf("get subscription error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	if sub == nil {
		writeError(w, http.StatusNotFound, "no_subscription", "member has no subscription")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleSubscriptionHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	out, err := s.subscriptions.History(r.Context(), id)
	if err != nil {
		s.logger.Printf("subscription history error: %v", err)
		out = nil
	}
	if out == nil {
		out = []types.SubscriptionHistory{}
	}
	writeJSON(w, http.StatusOK, out)
}

// ── Logs, sessions, reports ──────────────────────────────────────────────────

func (s *Server) handleMemberLogs(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	out, err := s.logs.ListByMember(r.Context(), id)
	if err != nil {
		s.logger.Printf("member logs error: %v", err)
		out = nil
	}
	if out == nil {
		out = []types.ScanLogEntry{}
	}
	writeJSON(w, http.StatusOK, out)
}

type memberHoursResponse struct {
	MemberID string `json:"member_id"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Seconds  int64  `json:"seconds"`
}

func (s *Server) handleMemberHours(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_from", "from must be RFC3339")
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_to", "to must be RFC3339")
			return
		}
		to = t
	}

	total, err := s.reports.MemberHours(r.Context(), id, from, to)
	if err != nil {
		s.logger.Printf("member hours error: %v", err)
		total = 0
	}

	resp := memberHoursResponse{MemberID: id, Seconds: int64(total.Seconds())}
	if !from.IsZero() {
		resp.From = from.UTC().Format(time.RFC3339)
	}
	if !to.IsZero() {
		resp.To = to.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	out, err := s.sessions.ListAll(r.Context())
	if err != nil {
		s.logger.Printf("list sessions error: %v", err)
		out = nil
	}
	if out == nil {
		out = []types.ActiveSession{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	out, err := s.logs.ListAll(r.Context())
	if err != nil {
		s.logger.Printf("list logs error: %v", err)
		out = nil
	}
	if out == nil {
		out = []types.ScanLogEntry{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListLogsToday(w http.ResponseWriter, r *http.Request) {
	out, err := s.logs.ListToday(r.Context(), time.Now().UTC())
	if err != nil {
		s.logger.Printf("list today logs error: %v", err)
		out = nil
	}
	if out == nil {
		out = []types.ScanLogEntry{}
	}
	writeJSON(w, http.StatusOK, out)
}

// ── Kiosk heartbeat ──────────────────────────────────────────────────────────

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req types.HeartbeatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	resp, err := s.heartbeats.Record(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidKioskID) {
			writeError(w, http.StatusBadRequest, "invalid_kiosk_id", err.Error())
			return
		}
		s.logger.Printf("heartbeat error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
