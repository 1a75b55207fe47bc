package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"tierlist-ranking/internal/daybucket"
	"tierlist-ranking/internal/domain/ballot"
	"tierlist-ranking/internal/domain/leaderboard"
	"tierlist-ranking/internal/domain/poll"
	"tierlist-ranking/internal/domain/rank"
	"tierlist-ranking/internal/identity"
	jwtpkg "tierlist-ranking/internal/platform/jwt"
	"tierlist-ranking/internal/ratelimit"
	"tierlist-ranking/internal/realtime"
	"tierlist-ranking/internal/repository/memory"
	"tierlist-ranking/internal/worker"
)

type advancingClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type testEnv struct {
	srv    *httptest.Server
	store  *memory.Store
	clock  advancingClock
	jwt    *jwtpkg.Manager
	poll   *poll.Poll
	cands  []poll.Candidate
	rankCh chan worker.RankSignal
	bucket *daybucket.Bucketer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	store := memory.NewStore()
	p := store.SeedDemo()
	cands, _ := store.Candidates(t.Context(), p.ID)

	bucketer := daybucket.New(clock, "Europe/Amsterdam", nil)
	broker := realtime.NewBroker(8, nil)
	pollSvc := poll.NewService(store)
	boardSvc := leaderboard.NewService(store, bucketer)
	jm := jwtpkg.NewManager("test-secret", "")
	rankCh := make(chan worker.RankSignal, 16)

	ballotSvc := ballot.NewService(ballot.Deps{
		Repo:      store,
		Polls:     pollSvc,
		Bucketer:  bucketer,
		Guard:     identity.NewGuard("salt"),
		Limiter:   ratelimit.NewMemory(clock, time.Minute),
		Publisher: broker,
	})
	rankSvc := rank.NewService(store, pollSvc, boardSvc, bucketer, nil, nil)

	srv := httptest.NewServer(NewRouter(Deps{
		Polls:       pollSvc,
		Ballots:     ballotSvc,
		Boards:      boardSvc,
		Ranks:       rankSvc,
		Broker:      broker,
		Bucketer:    bucketer,
		JWT:         jm,
		RankSignals: rankCh,
		DB:          store,
	}))
	t.Cleanup(srv.Close)

	return &testEnv{
		srv:    srv,
		store:  store,
		clock:  clock,
		jwt:    jm,
		poll:   p,
		cands:  cands,
		rankCh: rankCh,
		bucket: bucketer,
	}
}

// threeTiers places the first three candidates at the top of S, A and B.
func (e *testEnv) threeTiers() ballot.Placements {
	return ballot.Placements{
		ballot.TierS: {{CandidateID: e.cands[0].ID, Position: 0}},
		ballot.TierA: {{CandidateID: e.cands[1].ID, Position: 0}},
		ballot.TierB: {{CandidateID: e.cands[2].ID, Position: 0}},
	}
}

func (e *testEnv) token(t *testing.T, role string) string {
	t.Helper()
	tok, err := e.jwt.Generate("ops", role, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, method, path string, body any, ip, token string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) submit(t *testing.T, req ballotRequest, ip, token string) *http.Response {
	t.Helper()
	return e.do(t, http.MethodPost, "/api/v1/ballots", req, ip, token)
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func expectError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected %d, got %d", status, resp.StatusCode)
	}
	body := decodeError(t, resp)
	if body.OK || body.Error != code {
		t.Fatalf("expected error %q, got %+v", code, body)
	}
}

func TestSubmitBallotAccepted(t *testing.T) {
	env := newTestEnv(t)

	resp := env.submit(t, ballotRequest{PollSlug: "demo", Tiers: env.threeTiers(), DeviceID: "dev-1"}, "10.0.0.1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var ok okResponse
	if err := json.NewDecoder(resp.Body).Decode(&ok); err != nil || !ok.OK {
		t.Fatalf("expected {ok:true}, got %+v %v", ok, err)
	}

	today := env.bucket.Today(env.poll.Timezone)
	if got := env.store.DailyScore(env.poll.ID, env.cands[0].ID, today); got.Votes != 1 || got.Score != 55 {
		t.Fatalf("unexpected S-tier totals %+v", got)
	}
	if got := env.store.DailyScore(env.poll.ID, env.cands[1].ID, today); got.Score != 44 {
		t.Fatalf("unexpected A-tier totals %+v", got)
	}

	select {
	case sig := <-env.rankCh:
		if sig.PollID != env.poll.ID {
			t.Fatalf("unexpected rank signal %+v", sig)
		}
	default:
		t.Fatalf("expected a rank signal after an accepted ballot")
	}
}

func TestSubmitBallotRejections(t *testing.T) {
	env := newTestEnv(t)

	t.Run("unknown poll", func(t *testing.T) {
		resp := env.submit(t, ballotRequest{PollSlug: "nope", Tiers: env.threeTiers(), DeviceID: "d"}, "10.0.1.1", "")
		expectError(t, resp, http.StatusNotFound, "poll_not_found")
	})

	t.Run("too few placements", func(t *testing.T) {
		tiers := ballot.Placements{ballot.TierS: {{CandidateID: env.cands[0].ID, Position: 0}}}
		resp := env.submit(t, ballotRequest{PollSlug: "demo", Tiers: tiers, DeviceID: "d"}, "10.0.1.2", "")
		expectError(t, resp, http.StatusBadRequest, "insufficient_selections")
	})

	t.Run("foreign candidate", func(t *testing.T) {
		tiers := env.threeTiers()
		tiers[ballot.TierC] = []ballot.Placement{{CandidateID: 9999, Position: 0}}
		resp := env.submit(t, ballotRequest{PollSlug: "demo", Tiers: tiers, DeviceID: "d"}, "10.0.1.3", "")
		expectError(t, resp, http.StatusBadRequest, "unknown_candidate")
	})

	t.Run("missing device", func(t *testing.T) {
		resp := env.submit(t, ballotRequest{PollSlug: "demo", Tiers: env.threeTiers()}, "10.0.1.4", "")
		expectError(t, resp, http.StatusBadRequest, "missing_device")
	})

	t.Run("malformed body", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, env.srv.URL+"/api/v1/ballots", strings.NewReader("{"))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		expectError(t, resp, http.StatusBadRequest, "invalid_input")
	})

	if n := env.store.BallotCount(); n != 0 {
		t.Fatalf("rejected ballots must not be stored, have %d", n)
	}
}

func TestSubmitBallotRateLimitedThenDuplicate(t *testing.T) {
	env := newTestEnv(t)
	req := ballotRequest{PollSlug: "demo", Tiers: env.threeTiers(), DeviceID: "dev-rl"}

	if resp := env.submit(t, req, "10.0.2.1", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("first ballot: expected 200, got %d", resp.StatusCode)
	}

	resp := env.submit(t, req, "10.0.2.2", "")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs <= 0 {
		t.Fatalf("expected positive Retry-After, got %q", resp.Header.Get("Retry-After"))
	}
	if body := decodeError(t, resp); body.Error != "rate_limited" {
		t.Fatalf("unexpected body %+v", body)
	}

	env.clock.Advance(2 * time.Minute)

	resp = env.submit(t, req, "10.0.2.3", "")
	expectError(t, resp, http.StatusConflict, "duplicate_vote")
	if n := env.store.BallotCount(); n != 1 {
		t.Fatalf("expected one stored ballot, have %d", n)
	}
}

func TestSubmitBallotBackfillRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	req := ballotRequest{PollSlug: "demo", Tiers: env.threeTiers(), DeviceID: "dev-bf", Date: "2024-04-20"}

	expectError(t, env.submit(t, req, "10.0.3.1", ""), http.StatusForbidden, "backfill_forbidden")
	expectError(t, env.submit(t, req, "10.0.3.2", env.token(t, "viewer")), http.StatusForbidden, "backfill_forbidden")
	expectError(t, env.submit(t, req, "10.0.3.3", "garbage"), http.StatusUnauthorized, "invalid_token")

	resp := env.submit(t, req, "10.0.3.4", env.token(t, jwtpkg.RoleAdmin))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin backfill: expected 200, got %d", resp.StatusCode)
	}

	day, _ := env.bucket.ParseDay(env.poll.Timezone, "2024-04-20")
	if got := env.store.DailyScore(env.poll.ID, env.cands[0].ID, day); got.Score != 55 {
		t.Fatalf("expected backfilled score on 2024-04-20, got %+v", got)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	env := newTestEnv(t)
	if resp := env.submit(t, ballotRequest{PollSlug: "demo", Tiers: env.threeTiers(), DeviceID: "dev-lb"}, "10.0.4.1", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: %d", resp.StatusCode)
	}

	resp := env.do(t, http.MethodGet, "/api/v1/polls/demo/leaderboard?window=day", nil, "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var board leaderboardResponse
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if board.PollID != env.poll.ID || board.Window != leaderboard.WindowDay || len(board.Entries) != len(env.cands) {
		t.Fatalf("unexpected leaderboard %+v", board)
	}
	top := board.Entries[0]
	if top.CandidateID != env.cands[0].ID || top.Rank != 1 || top.Avg != 55 {
		t.Fatalf("unexpected leader %+v", top)
	}

	resp = env.do(t, http.MethodGet, "/api/v1/polls/demo/leaderboard?order=worst&limit=2", nil, "", "")
	var worst leaderboardResponse
	if err := json.NewDecoder(resp.Body).Decode(&worst); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(worst.Entries) != 2 || worst.Entries[0].Rank != len(env.cands) {
		t.Fatalf("worst order should start from the last rank, got %+v", worst.Entries)
	}

	expectError(t, env.do(t, http.MethodGet, "/api/v1/polls/demo/leaderboard?window=week", nil, "", ""), http.StatusBadRequest, "invalid_window")
	expectError(t, env.do(t, http.MethodGet, "/api/v1/polls/demo/leaderboard?limit=-1", nil, "", ""), http.StatusBadRequest, "invalid_limit")
	expectError(t, env.do(t, http.MethodGet, "/api/v1/polls/missing/leaderboard", nil, "", ""), http.StatusNotFound, "poll_not_found")
}

func TestLiveFeedReceivesBallotDeltas(t *testing.T) {
	env := newTestEnv(t)

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/api/v1/polls/demo/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if resp := env.submit(t, ballotRequest{PollSlug: "demo", Tiers: env.threeTiers(), DeviceID: "dev-ws"}, "10.0.5.1", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: %d", resp.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f realtime.Frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if f.Type != realtime.FrameTypeBallot || len(f.Deltas) != 3 {
		t.Fatalf("unexpected frame %+v", f)
	}
	first := f.Deltas[0]
	if first.CandidateID != env.cands[0].ID || first.Counts.Votes != 1 || first.Counts.Score != 55 {
		t.Fatalf("unexpected delta %+v", first)
	}
}

func TestLiveFeedRejectsBadDay(t *testing.T) {
	env := newTestEnv(t)
	expectError(t, env.do(t, http.MethodGet, "/api/v1/polls/demo/live?day=yesterday", nil, "", ""), http.StatusBadRequest, "invalid_date")
}

func TestAdminSnapshot(t *testing.T) {
	env := newTestEnv(t)

	expectError(t, env.do(t, http.MethodPost, "/api/v1/admin/polls/demo/snapshot", nil, "", ""), http.StatusUnauthorized, "missing_token")
	expectError(t, env.do(t, http.MethodPost, "/api/v1/admin/polls/demo/snapshot", nil, "", env.token(t, "viewer")), http.StatusForbidden, "forbidden")

	resp := env.do(t, http.MethodPost, "/api/v1/admin/polls/demo/snapshot", nil, "", env.token(t, jwtpkg.RoleAdmin))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var snap snapshotResponse
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.PollID != env.poll.ID || snap.Announced || snap.Change != nil {
		t.Fatalf("first snapshot has nothing to compare against, got %+v", snap)
	}
	if snap.Day != daybucket.ISO(env.bucket.Today(env.poll.Timezone)) {
		t.Fatalf("unexpected snapshot day %q", snap.Day)
	}
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/health", "/ready"} {
		if resp := env.do(t, http.MethodGet, path, nil, "", ""); resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

type downPinger struct{}

func (downPinger) PingContext(ctx context.Context) error {
	return errors.New("connection refused")
}

func TestReadyReportsStorageOutage(t *testing.T) {
	h := &Handler{db: downPinger{}}
	rec := httptest.NewRecorder()
	h.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	expectError(t, rec.Result(), http.StatusServiceUnavailable, "db_unavailable")

	h = &Handler{}
	rec = httptest.NewRecorder()
	h.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	expectError(t, rec.Result(), http.StatusServiceUnavailable, "db_unavailable")
}

func TestClientIPUsesAddressResolvedByRealIP(t *testing.T) {
	var got string
	h := chimw.RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = clientIP(r)
	}))

	cases := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{name: "socket", want: "192.0.2.7"},
		{name: "forwarded", header: "X-Forwarded-For", value: "203.0.113.9, 10.0.0.1", want: "203.0.113.9"},
		{name: "real ip", header: "X-Real-IP", value: "198.51.100.4", want: "198.51.100.4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/ballots", nil)
			req.RemoteAddr = "192.0.2.7:51234"
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}

	// Without RealIP in front, forwarding headers are ignored.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ballots", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	if ip := clientIP(req); ip != "192.0.2.7" {
		t.Fatalf("expected socket address, got %q", ip)
	}
}
