package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/aldenpratama/blackjack-bot-be/internal/casino"
	"github.com/aldenpratama/blackjack-bot-be/internal/ledger"
	"github.com/aldenpratama/blackjack-bot-be/internal/session"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := ledger.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	manager := casino.NewManager(session.NewRegistry(), store)
	router := mux.NewRouter()
	NewHandlers(manager, nil).RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

// startRound opens a round and retries past the occasional dealt
// two-card 21, which settles itself and leaves no session behind.
func startRound(t *testing.T, srv *httptest.Server, playerID string, bet int64) casino.Transition {
	t.Helper()
	body := `{"playerId":"` + playerID + `","bet":` + strconv.FormatInt(bet, 10) + `}`

	for i := 0; i < 50; i++ {
		resp := postJSON(t, srv.URL+"/api/game/new", body)
		if resp.StatusCode != http.StatusCreated {
			resp.Body.Close()
			t.Fatalf("start status = %d, want 201", resp.StatusCode)
		}
		var tr casino.Transition
		decode(t, resp, &tr)
		if !tr.Terminal {
			return tr
		}
	}
	t.Fatal("could not open a non-terminal round")
	return casino.Transition{}
}

func TestNewGame(t *testing.T) {
	srv := newTestServer(t)

	tr := startRound(t, srv, "p1", 100)
	if tr.PlayerID != "p1" || tr.Bet != 100 {
		t.Errorf("transition = %+v", tr)
	}
	if len(tr.Hands) != 1 || len(tr.Hands[0].Cards) != 2 {
		t.Errorf("expected one two-card hand, got %+v", tr.Hands)
	}
	if !tr.DealerHidden || len(tr.Dealer.Cards) != 1 {
		t.Errorf("dealer view = %+v, want only the up card while hidden", tr.Dealer)
	}
}

func TestNewGameValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing player", `{"bet":100}`, http.StatusBadRequest},
		{"malformed body", `not json`, http.StatusBadRequest},
		{"bet below minimum", `{"playerId":"p1","bet":5}`, http.StatusBadRequest},
		{"bet above balance", `{"playerId":"p1","bet":9999}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/game/new", tt.body)
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestConflictingGameReturns409(t *testing.T) {
	srv := newTestServer(t)
	startRound(t, srv, "p1", 100)

	resp := postJSON(t, srv.URL+"/api/game/new", `{"playerId":"p1","bet":100}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}

	// Eviction clears the way for a fresh round.
	resp = postJSON(t, srv.URL+"/api/game/p1/evict", "")
	var ev map[string]bool
	decode(t, resp, &ev)
	if !ev["evicted"] {
		t.Fatal("evict should report true")
	}

	resp = postJSON(t, srv.URL+"/api/game/new", `{"playerId":"p1","bet":100}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status after evict = %d, want 201", resp.StatusCode)
	}
}

func TestActionWithoutSessionReturns404(t *testing.T) {
	srv := newTestServer(t)

	for _, action := range []string{"hit", "stand", "double", "split", "forfeit"} {
		resp := postJSON(t, srv.URL+"/api/game/ghost/"+action, "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", action, resp.StatusCode)
		}
	}
}

func TestForfeitCompletesRound(t *testing.T) {
	srv := newTestServer(t)
	opened := startRound(t, srv, "p1", 100)

	resp := postJSON(t, srv.URL+"/api/game/p1/forfeit", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var tr casino.Transition
	decode(t, resp, &tr)
	if !tr.Terminal || tr.Result != "forfeit" {
		t.Errorf("transition = %+v, want terminal forfeit", tr)
	}
	if tr.Net != -100 {
		t.Errorf("net = %d, want -100 (stake lost)", tr.Net)
	}
	if tr.Balance != opened.Balance {
		t.Errorf("balance = %d, want %d (no refund)", tr.Balance, opened.Balance)
	}
}

func TestPlayerEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/player/p1")
	if err != nil {
		t.Fatalf("GET player: %v", err)
	}
	var player struct {
		PlayerID string `json:"playerId"`
		Chips    int64  `json:"chips"`
	}
	decode(t, resp, &player)
	if player.Chips != 500 {
		t.Errorf("fresh player chips = %d, want default 500", player.Chips)
	}

	resp = postJSON(t, srv.URL+"/api/player/p1/daily", "")
	var claim map[string]int64
	decode(t, resp, &claim)
	if claim["chips"] != 700 {
		t.Errorf("chips after daily = %d, want 700", claim["chips"])
	}

	resp = postJSON(t, srv.URL+"/api/player/p1/daily", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("repeat daily status = %d, want 409", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/player/p1/grant", `{"amount":300}`)
	var grant map[string]int64
	decode(t, resp, &grant)
	if grant["chips"] != 1000 {
		t.Errorf("chips after grant = %d, want 1000", grant["chips"])
	}

	resp = postJSON(t, srv.URL+"/api/player/p1/grant", `{"amount":-5}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("negative grant status = %d, want 400", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/player/p1/stats")
	if err != nil {
		t.Fatalf("GET stats: %v", err)
	}
	var stats casino.PlayerStats
	decode(t, resp, &stats)
	if stats.TotalGames != 0 {
		t.Errorf("fresh stats = %+v, want zero games", stats)
	}

	resp, err = http.Get(srv.URL + "/api/leaderboard")
	if err != nil {
		t.Fatalf("GET leaderboard: %v", err)
	}
	var board []casino.LeaderboardEntry
	decode(t, resp, &board)
	if len(board) != 0 {
		t.Errorf("board = %v, want empty", board)
	}
}
