package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/boldcity/gymgate/internal/gym/service"
	"github.com/boldcity/gymgate/internal/gym/store/memory"
	"github.com/boldcity/gymgate/internal/gym/types"
	"github.com/boldcity/gymgate/internal/httpapi"
	"github.com/boldcity/gymgate/internal/metrics"
)

type testEnv struct {
	ts   *httptest.Server
	subs *memory.SubscriptionStore
}

// newTestServer wires up the full dependency graph using in-memory stores
// and returns an httptest.Server whose URL can be hit with a plain http.Client.
// The debounce window is a nanosecond so consecutive scans in a test are not
// suppressed; tests that exercise debouncing build their own env.
func newTestServer(t *testing.T) *testEnv {
	return newTestEnv(t, time.Nanosecond)
}

func newTestEnv(t *testing.T, debounceWindow time.Duration) *testEnv {
	t.Helper()

	members := memory.NewMemberStore()
	subs := memory.NewSubscriptionStore()
	logs := memory.NewScanLogStore()
	sessions := memory.NewSessionStore(logs)
	members.SetCascade(subs, sessions, logs)
	heartbeats := memory.NewHeartbeatStore()
	kiosks := memory.NewKioskStore([]string{"kiosk-001"})
	seq := memory.NewSequence("BCF", 1000)

	logger := log.New(io.Discard, "", 0)
	registry := service.NewKioskRegistry(kiosks)

	promRegistry := prometheus.NewRegistry()
	m := metrics.New(promRegistry)

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:         logger,
		Addr:           ":0",
		Access:         service.NewAccessService(members, subs, sessions, sessions, logs, m, logger),
		Members:        service.NewMemberService(members, subs, sessions, seq, 7),
		Subscriptions:  service.NewSubscriptionService(members, subs, subs),
		Reports:        service.NewReportService(logs),
		Heartbeats:     service.NewHeartbeatService(heartbeats, registry, nil),
		Debouncer:      service.NewDebouncer(debounceWindow),
		Sessions:       sessions,
		Logs:           logs,
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, subs: subs}
}

func (e *testEnv) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(e.ts.URL+path, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.ts.URL + path)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// createMember registers a member with an active subscription and returns the id.
func (e *testEnv) createMember(t *testing.T, name string, months int) string {
	t.Helper()

	body := fmt.Sprintf(`{"name":%q,"subscription_months":%d}`, name, months)
	resp := e.post(t, "/v1/members", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create member: expected 201, got %d", resp.StatusCode)
	}

	var out struct {
		Member types.Member `json:"member"`
	}
	decodeJSON(t, resp, &out)
	return out.Member.ID
}

// ── Members ──────────────────────────────────────────────────────────────────

func TestCreateMember_AllocatesID(t *testing.T) {
	e := newTestServer(t)

	resp := e.post(t, "/v1/members", `{"name":"Ada","email":"ada@example.com"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var out struct {
		Member       types.Member        `json:"member"`
		Subscription *types.Subscription `json:"subscription"`
	}
	decodeJSON(t, resp, &out)

	if out.Member.ID != "BCF-1001" {
		t.Errorf("expected BCF-1001, got %q", out.Member.ID)
	}
	if out.Subscription != nil {
		t.Error("expected no subscription when months omitted")
	}
}

func TestCreateMember_WithInitialSubscription(t *testing.T) {
	e := newTestServer(t)

	resp := e.post(t, "/v1/members", `{"name":"Ada","subscription_months":3}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var out struct {
		Member       types.Member        `json:"member"`
		Subscription *types.Subscription `json:"subscription"`
	}
	decodeJSON(t, resp, &out)

	if out.Subscription == nil {
		t.Fatal("expected initial subscription")
	}
	if out.Subscription.Status != types.SubscriptionActive {
		t.Errorf("expected active subscription, got %q", out.Subscription.Status)
	}
}

func TestCreateMember_BlankName_400(t *testing.T) {
	e := newTestServer(t)

	resp := e.post(t, "/v1/members", `{"name":"   "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateMember_UnknownField_400(t *testing.T) {
	e := newTestServer(t)

	resp := e.post(t, "/v1/members", `{"name":"Ada","favorite_color":"teal"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", resp.StatusCode)
	}
}

func TestGetMember_NotFound_404(t *testing.T) {
	e := newTestServer(t)

	resp := e.get(t, "/v1/members/BCF-9999")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUpdateMember_Patch(t *testing.T) {
	e := newTestServer(t)
	id := e.createMember(t, "Ada", 0)

	req, err := http.NewRequest(http.MethodPatch, e.ts.URL+"/v1/members/"+id,
		bytes.NewReader([]byte(`{"phone":"555-0100"}`)))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var m types.Member
	decodeJSON(t, resp, &m)
	if m.Phone != "555-0100" {
		t.Errorf("expected updated phone, got %q", m.Phone)
	}
	if m.Name != "Ada" {
		t.Errorf("untouched field changed: %q", m.Name)
	}
}

func TestDeleteMember_204ThenGone(t *testing.T) {
	e := newTestServer(t)
	id := e.createMember(t, "Ada", 1)

	req, err := http.NewRequest(http.MethodDelete, e.ts.URL+"/v1/members/"+id, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	if got := e.get(t, "/v1/members/"+id); got.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", got.StatusCode)
	}
}

func TestListMembers_OverviewShape(t *testing.T) {
	e := newTestServer(t)
	id := e.createMember(t, "Ada", 1)

	resp := e.get(t, "/v1/members")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out []types.MemberOverview
	decodeJSON(t, resp, &out)
	if len(out) != 1 {
		t.Fatalf("expected 1 member, got %d", len(out))
	}
	if out[0].ID != id || out[0].SubscriptionStatus != "active" {
		t.Errorf("unexpected overview %+v", out[0])
	}
}

// ── Scan path ────────────────────────────────────────────────────────────────

func TestScan_TogglesCheckInThenOut(t *testing.T) {
	e := newTestServer(t)
	id := e.createMember(t, "Ada", 1)

	resp := e.post(t, "/v1/scan", fmt.Sprintf(`{"code":%q}`, id))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var dec types.Decision
	decodeJSON(t, resp, &dec)
	if !dec.Granted || dec.Action != types.ActionCheckIn {
		t.Fatalf("expected granted check-in, got %+v", dec)
	}

	resp = e.post(t, "/v1/scan", fmt.Sprintf(`{"code":%q}`, id))
	decodeJSON(t, resp, &dec)
	if !dec.Granted || dec.Action != types.ActionCheckOut {
		t.Fatalf("expected granted check-out, got %+v", dec)
	}
}

func TestScan_UnknownCode_DeniedWith200(t *testing.T) {
	e := newTestServer(t)

	resp := e.post(t, "/v1/scan", `{"code":"NOPE-123"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("denials ride a 200, got %d", resp.StatusCode)
	}

	var dec types.Decision
	decodeJSON(t, resp, &dec)
	if dec.Granted {
		t.Error("expected granted=false")
	}
	if dec.Outcome != types.OutcomeInvalid {
		t.Errorf("expected outcome=invalid, got %q", dec.Outcome)
	}
}

func TestScan_EmptyCode_400(t *testing.T) {
	e := newTestServer(t)

	resp := e.post(t, "/v1/scan", `{"code":""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestScan_RapidRepeatDebounced(t *testing.T) {
	// A one-hour window guarantees the second scan lands inside it.
	e := newTestEnv(t, time.Hour)
	id := e.createMember(t, "Ada", 1)

	resp := e.post(t, "/v1/scan", fmt.Sprintf(`{"code":%q}`, id))
	var first types.Decision
	decodeJSON(t, resp, &first)
	if first.Outcome != types.OutcomeSuccess {
		t.Fatalf("first scan should succeed, got %+v", first)
	}

	// Immediate repeat lands inside the debounce window.
	resp = e.post(t, "/v1/scan", fmt.Sprintf(`{"code":%q}`, id))
	var second types.Decision
	decodeJSON(t, resp, &second)
	if second.Outcome != types.OutcomeDuplicate {
		t.Errorf("expected outcome=duplicate, got %q", second.Outcome)
	}
	if second.Granted {
		t.Error("duplicate scans are not granted")
	}
}

func TestScan_PaddedCodeSharesDebounceSlot(t *testing.T) {
	e := newTestEnv(t, time.Hour)
	id := e.createMember(t, "Ada", 1)

	// A scanner that pads its payload must not bypass the debouncer.
	resp := e.post(t, "/v1/scan", fmt.Sprintf(`{"code":"%s  "}`, id))
	var first types.Decision
	decodeJSON(t, resp, &first)
	if first.Outcome != types.OutcomeSuccess {
		t.Fatalf("padded scan should succeed, got %+v", first)
	}

	resp = e.post(t, "/v1/scan", fmt.Sprintf(`{"code":%q}`, id))
	var second types.Decision
	decodeJSON(t, resp, &second)
	if second.Outcome != types.OutcomeDuplicate {
		t.Errorf("expected outcome=duplicate for same member, got %q", second.Outcome)
	}
}

func TestScan_KioskCounterIncrements(t *testing.T) {
	e := newTestServer(t)
	id := e.createMember(t, "Ada", 1)

	e.post(t, "/v1/scan", fmt.Sprintf(`{"code":%q,"kiosk_id":"kiosk-001"}`, id))

	resp := e.get(t, "/metrics")
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	want := `gymgate_kiosk_scans_total{kiosk_id="kiosk-001"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("metrics output missing %q", want)
	}
}

func TestCheckIn_Conflict(t *testing.T) {
	e := newTestServer(t)
	id := e.createMember(t, "Ada", 1)

	resp := e.post(t, "/v1/checkin", fmt.Sprintf(`{"member_id":%q}`, id))
	var dec types.Decision
	decodeJSON(t, resp, &dec)
	if !dec.Granted {
		t.Fatalf("first check-in should be granted, got %+v", dec)
	}

	resp = e.post(t, "/v1/checkin", fmt.Sprintf(`{"member_id":%q}`, id))
	decodeJSON(t, resp, &dec)
	if dec.Outcome != types.OutcomeConflict {
		t.Errorf("expected outcome=conflict, got %q", dec.Outcome)
	}
}

func TestCheckOut_WithoutSession_Conflict(t *testing.T) {
	e := newTestServer(t)
	id := e.createMember(t, "Ada", 1)

	resp := e.post(t, "/v1/checkout", fmt.Sprintf(`{"member_id":%q}`, id))
	var dec types.Decision
	decodeJSON(t, resp, &dec)
	if dec.Outcome != types.OutcomeConflict {
		t.Errorf("expected outcome=conflict, got %q", dec.Outcome)
	}
}

// ── Subscriptions ────────────────────────────────────────────────────────────

func TestRenewSubscription_AndHistory(t *testing.T) {
	e := newTestServer(t)
	id := e.createMember(t, "Ada", 1)

	resp := e.post(t, "/v1/members/"+id+"/subscription", `{"months":6}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var sub types.Subscription
	decodeJSON(t, resp, &sub)
	if sub.Status != types.SubscriptionActive {
		t.Errorf("expected active, got %q", sub.Status)
	}

	resp = e.get(t, "/v1/members/"+id+"/subscription/history")
	var hist []types.SubscriptionHistory
	decodeJSON(t, resp, &hist)
	if len(hist) != 1 {
		t.Errorf("expected the initial subscription archived, got %d rows", len(hist))
	}
}

func TestRenewSubscription_InvalidMonths_400(t *testing.T) {
	e := newTestServer(t)
	id := e.createMember(t, "Ada", 0)

	resp := e.post(t, "/v1/members/"+id+"/subscription", `{"months":0}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetSubscription_None_404(t *testing.T) {
	e := newTestServer(t)
	id := e.createMember(t, "Ada", 0)

	resp := e.get(t, "/v1/members/"+id+"/subscription")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for no subscription, got %d", resp.StatusCode)
	}
}

// ── Logs, sessions, hours ────────────────────────────────────────────────────

func TestListLogs_IncludesDenials(t *testing.T) {
	e := newTestServer(t)

	e.post(t, "/v1/scan", `{"code":"NOPE-123"}`)

	resp := e.get(t, "/v1/logs")
	var entries []types.ScanLogEntry
	decodeJSON(t, resp, &entries)
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].MemberName != "Unknown" {
		t.Errorf("expected Unknown placeholder, got %q", entries[0].MemberName)
	}
}

func TestListSessions_EmptyIsArray(t *testing.T) {
	e := newTestServer(t)

	resp := e.get(t, "/v1/sessions")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(bytes.TrimSpace(body)) != "[]" {
		t.Errorf("expected empty JSON array, got %s", body)
	}
}

func TestMemberHours_AfterVisit(t *testing.T) {
	e := newTestServer(t)
	id := e.createMember(t, "Ada", 1)

	e.post(t, "/v1/checkin", fmt.Sprintf(`{"member_id":%q}`, id))
	e.post(t, "/v1/checkout", fmt.Sprintf(`{"member_id":%q}`, id))

	resp := e.get(t, "/v1/members/"+id+"/hours")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		MemberID string `json:"member_id"`
		Seconds  int64  `json:"seconds"`
	}
	decodeJSON(t, resp, &out)
	if out.MemberID != id {
		t.Errorf("expected member_id=%s, got %q", id, out.MemberID)
	}
	// The visit lasted well under a second, so the floor is 0; what matters
	// is the route answers with the right shape.
	if out.Seconds < 0 {
		t.Errorf("expected non-negative seconds, got %d", out.Seconds)
	}
}

func TestMemberHours_BadFrom_400(t *testing.T) {
	e := newTestServer(t)
	id := e.createMember(t, "Ada", 0)

	resp := e.get(t, "/v1/members/"+id+"/hours?from=yesterday")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ── Heartbeat ────────────────────────────────────────────────────────────────

func TestHeartbeat_KnownKiosk_OK(t *testing.T) {
	e := newTestServer(t)

	resp := e.post(t, "/v1/heartbeat", `{"kiosk_id":"kiosk-001","uptime_s":42}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var hb types.HeartbeatResponse
	decodeJSON(t, resp, &hb)
	if !hb.OK || !hb.Known {
		t.Errorf("expected ok and known, got %+v", hb)
	}
}

func TestHeartbeat_MissingKioskID_400(t *testing.T) {
	e := newTestServer(t)

	resp := e.post(t, "/v1/heartbeat", `{"uptime_s":42}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ── Expiring members ─────────────────────────────────────────────────────────

func TestExpiringMembers_FiltersByDays(t *testing.T) {
	e := newTestServer(t)
	soon := e.createMember(t, "Ada", 0)
	e.createMember(t, "Grace", 6)

	// Give Ada a subscription ending inside the default 7-day threshold.
	now := time.Now().UTC()
	if _, err := e.subs.UpsertCurrent(context.Background(), types.Subscription{
		MemberID: soon,
		StartAt:  now,
		EndAt:    now.Add(3 * 24 * time.Hour),
		Status:   types.SubscriptionActive,
	}); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	resp := e.get(t, "/v1/members/expiring")
	var out []types.MemberOverview
	decodeJSON(t, resp, &out)
	if len(out) != 1 {
		t.Fatalf("expected 1 expiring member, got %d", len(out))
	}
	if out[0].ID != soon {
		t.Errorf("expected %s, got %s", soon, out[0].ID)
	}

	if resp := e.get(t, "/v1/members/expiring?days=abc"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric days, got %d", resp.StatusCode)
	}
}
