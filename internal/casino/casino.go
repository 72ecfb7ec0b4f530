package casino

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/aldenpratama/blackjack-bot-be/internal/game"
	"github.com/aldenpratama/blackjack-bot-be/internal/ledger"
	"github.com/aldenpratama/blackjack-bot-be/internal/session"
)

const (
	// MinBet is the smallest stake a round can open with.
	MinBet = 25

	// DailyBonus is the chip grant claimable once per calendar day.
	DailyBonus = 200
)

var (
	// ErrInsufficientFunds means a bet, double or split exceeds the
	// player's balance. Nothing is mutated.
	ErrInsufficientFunds = errors.New("insufficient chips")

	// ErrInvalidBet means the requested stake is below the table minimum.
	ErrInvalidBet = fmt.Errorf("bet is below the %d chip minimum", MinBet)

	// ErrDailyClaimed means the daily bonus was already taken today.
	ErrDailyClaimed = errors.New("daily bonus already claimed today")
)

// Manager glues the engine to the ledgers: it deducts stakes before
// play, settles terminal sessions durably, and only then lets the
// registry destroy them. One Manager serves all players.
type Manager struct {
	registry *session.Registry
	store    ledger.Store

	// seams for deterministic tests
	newDeck func() *game.Deck
	now     func() time.Time
}

func NewManager(registry *session.Registry, store ledger.Store) *Manager {
	return &Manager{
		registry: registry,
		store:    store,
		newDeck:  game.NewShuffledDeck,
		now:      time.Now,
	}
}

// Start opens a round: validates and deducts the stake, then deals. A
// two-card 21 settles immediately. A player with a live session gets
// ErrConflictingSession; callers evict stale sessions explicitly.
func (m *Manager) Start(playerID string, bet int64) (*Transition, error) {
	if bet < MinBet {
		return nil, ErrInvalidBet
	}

	s, err := m.registry.Create(playerID, func() (*game.Session, error) {
		if err := m.debit(playerID, bet); err != nil {
			return nil, err
		}
		return game.NewSessionWithDeck(playerID, bet, m.newDeck()), nil
	})
	if err != nil {
		return nil, err
	}

	if s.Terminal() {
		return m.act(playerID, func(*game.Session) error { return nil })
	}
	return m.transition(s, game.Settlement{}), nil
}

// Hit draws a card for the player (or the active split hand).
func (m *Manager) Hit(playerID string) (*Transition, error) {
	return m.act(playerID, func(s *game.Session) error { return s.Hit() })
}

// Stand ends the player's turn (or the active split hand).
func (m *Manager) Stand(playerID string) (*Transition, error) {
	return m.act(playerID, func(s *game.Session) error { return s.Stand() })
}

// DoubleDown deducts a second stake and plays the forced card.
func (m *Manager) DoubleDown(playerID string) (*Transition, error) {
	return m.act(playerID, func(s *game.Session) error {
		if !s.CanDouble() {
			return game.ErrIllegalTransition
		}
		if err := m.debit(playerID, s.Bet); err != nil {
			return err
		}
		return s.DoubleDown()
	})
}

// Split deducts a matching stake and converts the pair into two hands.
func (m *Manager) Split(playerID string) (*Transition, error) {
	return m.act(playerID, func(s *game.Session) error {
		if !s.CanSplit() {
			return game.ErrIllegalTransition
		}
		if err := m.debit(playerID, s.Bet); err != nil {
			return err
		}
		return s.BeginSplit()
	})
}

// Forfeit surrenders the round as an immediate loss.
func (m *Manager) Forfeit(playerID string) (*Transition, error) {
	return m.act(playerID, func(s *game.Session) error { return s.Forfeit() })
}

// Evict drops a stale session without settlement, mirroring the
// original behavior of clearing a leftover game before starting a new
// one. The stake stays forfeited. Returns false if nothing was active.
func (m *Manager) Evict(playerID string) bool {
	return m.registry.Remove(playerID)
}

// act serializes an action through the registry, and when it leaves the
// session terminal, settles it and removes it. Settlement failure
// before the chip write keeps the session alive for a retry.
func (m *Manager) act(playerID string, fn func(*game.Session) error) (*Transition, error) {
	var tr *Transition
	err := m.registry.WithSession(playerID, func(s *game.Session) error {
		if err := fn(s); err != nil {
			return err
		}

		if !s.Terminal() {
			tr = m.transition(s, game.Settlement{})
			return nil
		}

		t, err := m.settle(s)
		if err != nil {
			return err
		}
		tr = t
		m.registry.Remove(playerID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tr, nil
}

// debit takes chips from a player's account and persists the deduction
// before any game state changes, so a crash can never leave a stake
// both played and unpaid. The check and the deduction run inside one
// update cycle.
func (m *Manager) debit(playerID string, amount int64) error {
	return m.store.UpdateAccounts(func(accounts map[string]ledger.Account) error {
		acct := ledger.AccountFor(accounts, playerID)
		if acct.Chips < amount {
			return ErrInsufficientFunds
		}
		acct.Chips -= amount
		accounts[playerID] = acct
		return nil
	})
}

// settle applies a terminal session to both ledgers. The account update
// must land for the action to succeed; a stats failure after it is
// logged as an inconsistency but does not roll the round back.
func (m *Manager) settle(s *game.Session) (*Transition, error) {
	st := s.Settle()

	var chips int64
	err := m.store.UpdateAccounts(func(accounts map[string]ledger.Account) error {
		acct := ledger.AccountFor(accounts, s.PlayerID)
		acct.Chips += st.Payout
		acct.Wins += st.Wins
		acct.Losses += st.Losses
		accounts[s.PlayerID] = acct
		chips = acct.Chips
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("settling accounts: %w", err)
	}

	if err := m.store.UpdateStats(func(stats map[string]ledger.Stats) error {
		rec := ledger.StatsFor(stats, s.PlayerID)
		rec.Wins += st.Wins
		rec.Losses += st.Losses
		stats[s.PlayerID] = rec
		return nil
	}); err != nil {
		log.Printf("ledger inconsistency: account settled for %s but stats update failed: %v", s.PlayerID, err)
	}

	return m.buildTransition(s, st, chips), nil
}

// transition snapshots a session without settlement. The balance lookup
// is cosmetic here: when it fails the view degrades to a zero balance
// instead of failing an action that already changed the session.
func (m *Manager) transition(s *game.Session, st game.Settlement) *Transition {
	var chips int64
	if accounts, err := m.store.LoadAccounts(); err != nil {
		log.Printf("balance lookup for %s failed: %v", s.PlayerID, err)
	} else {
		chips = ledger.AccountFor(accounts, s.PlayerID).Chips
	}
	return m.buildTransition(s, st, chips)
}

// RunJanitor periodically forfeits idle sessions until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ReapIdle(window)
		}
	}
}

// ReapIdle settles every session that has gone without an action for
// the window as a forfeit, so abandoned games never dangle.
func (m *Manager) ReapIdle(window time.Duration) {
	for _, playerID := range m.registry.Idle(window, m.now()) {
		if _, err := m.act(playerID, func(s *game.Session) error {
			s.Expire()
			return nil
		}); err != nil && !errors.Is(err, session.ErrNoActiveSession) {
			log.Printf("reaping idle session for %s: %v", playerID, err)
		}
	}
}

// ClaimDaily grants the daily bonus once per calendar day, with dates
// compared in UTC. Returns the updated balance, or the current one when
// the claim is blocked.
func (m *Manager) ClaimDaily(playerID string) (int64, error) {
	var chips int64
	err := m.store.UpdateAccounts(func(accounts map[string]ledger.Account) error {
		acct := ledger.AccountFor(accounts, playerID)
		chips = acct.Chips

		now := m.now().UTC()
		if acct.LastDaily != nil && sameDay(acct.LastDaily.UTC(), now) {
			return ErrDailyClaimed
		}

		acct.Chips += DailyBonus
		acct.LastDaily = &now
		accounts[playerID] = acct
		chips = acct.Chips
		return nil
	})
	return chips, err
}

// Grant credits chips to a player outside of play (admin top-up).
// Returns the updated balance.
func (m *Manager) Grant(playerID string, amount int64) (int64, error) {
	var chips int64
	err := m.store.UpdateAccounts(func(accounts map[string]ledger.Account) error {
		acct := ledger.AccountFor(accounts, playerID)
		acct.Chips += amount
		accounts[playerID] = acct
		chips = acct.Chips
		return nil
	})
	return chips, err
}

// Balance returns the player's account, defaulted if never seen.
func (m *Manager) Balance(playerID string) (ledger.Account, error) {
	accounts, err := m.store.LoadAccounts()
	if err != nil {
		return ledger.Account{}, fmt.Errorf("loading accounts: %w", err)
	}
	return ledger.AccountFor(accounts, playerID), nil
}

// PlayerStats is the statistics view for one player.
type PlayerStats struct {
	PlayerID   string  `json:"playerId"`
	Chips      int64   `json:"chips"`
	Wins       int64   `json:"wins"`
	Losses     int64   `json:"losses"`
	TotalGames int64   `json:"totalGames"`
	WinRate    float64 `json:"winRate"`
}

// Stats assembles the statistics view from both namespaces.
func (m *Manager) Stats(playerID string) (PlayerStats, error) {
	stats, err := m.store.LoadStats()
	if err != nil {
		return PlayerStats{}, fmt.Errorf("loading stats: %w", err)
	}
	accounts, err := m.store.LoadAccounts()
	if err != nil {
		return PlayerStats{}, fmt.Errorf("loading accounts: %w", err)
	}

	rec := ledger.StatsFor(stats, playerID)
	ps := PlayerStats{
		PlayerID:   playerID,
		Chips:      ledger.AccountFor(accounts, playerID).Chips,
		Wins:       rec.Wins,
		Losses:     rec.Losses,
		TotalGames: rec.Wins + rec.Losses,
	}
	if ps.TotalGames > 0 {
		ps.WinRate = float64(ps.Wins) / float64(ps.TotalGames) * 100
	}
	return ps, nil
}

// LeaderboardEntry is one row of the wins leaderboard.
type LeaderboardEntry struct {
	PlayerID string `json:"playerId"`
	Wins     int64  `json:"wins"`
	Losses   int64  `json:"losses"`
}

// Leaderboard returns the top n players by recorded wins.
func (m *Manager) Leaderboard(n int) ([]LeaderboardEntry, error) {
	stats, err := m.store.LoadStats()
	if err != nil {
		return nil, fmt.Errorf("loading stats: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(stats))
	for playerID, rec := range stats {
		entries = append(entries, LeaderboardEntry{PlayerID: playerID, Wins: rec.Wins, Losses: rec.Losses})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})

	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
