package game

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle phase of a session. Terminal outcome codes
// live in Result; Status only tracks whether the session still accepts
// actions and along which path.
type Status string

const (
	StatusActive    Status = "active"    // direct hit/stand path open
	StatusSplit     Status = "split"     // suspended into the split sub-state
	StatusCompleted Status = "completed" // terminal, awaiting settlement
)

// ErrIllegalTransition is returned for an action outside its legal
// window: hitting a finished game, doubling after a draw, splitting
// unequal cards. The session is left untouched.
var ErrIllegalTransition = errors.New("illegal transition for current game state")

// Session is the state machine for one player's in-progress round.
// Chip movement is the caller's concern: the bet is deducted before the
// session is created and credited back through Settle at the end.
type Session struct {
	ID         string    `json:"id"`
	PlayerID   string    `json:"playerId"`
	Bet        int64     `json:"bet"`
	PlayerHand Hand      `json:"playerHand"`
	DealerHand Hand      `json:"dealerHand"`
	Deck       *Deck     `json:"-"`
	Doubled    bool      `json:"doubled"`
	Status     Status    `json:"status"`
	Result     Result    `json:"result,omitempty"`
	Split      *SplitState `json:"split,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewSession deals a fresh round from a newly shuffled deck. Cards go
// player, dealer, player, dealer. A two-card 21 resolves immediately
// with no further play.
func NewSession(playerID string, bet int64) *Session {
	return NewSessionWithDeck(playerID, bet, NewShuffledDeck())
}

// NewSessionWithDeck deals a round from the supplied deck.
func NewSessionWithDeck(playerID string, bet int64, deck *Deck) *Session {
	s := &Session{
		ID:        uuid.New().String(),
		PlayerID:  playerID,
		Bet:       bet,
		Deck:      deck,
		Status:    StatusActive,
		CreatedAt: time.Now(),
	}

	s.PlayerHand = append(s.PlayerHand, s.draw())
	s.DealerHand = append(s.DealerHand, s.draw())
	s.PlayerHand = append(s.PlayerHand, s.draw())
	s.DealerHand = append(s.DealerHand, s.draw())

	if IsNatural(s.PlayerHand) {
		s.resolve()
	}

	return s
}

// draw takes the top card, falling back to a fresh shuffled deck if the
// current one is exhausted so play can always progress.
func (s *Session) draw() Card {
	card, ok := s.Deck.Draw()
	if !ok {
		s.Deck = NewShuffledDeck()
		card, _ = s.Deck.Draw()
	}
	return card
}

// Terminal reports whether the session has reached a terminal state and
// is waiting to be settled and destroyed.
func (s *Session) Terminal() bool {
	return s.Status == StatusCompleted
}

// DealerHidden reports whether the dealer's hole card is still face
// down, which holds until the session resolves.
func (s *Session) DealerHidden() bool {
	return s.Status != StatusCompleted
}

// CanDouble reports whether double down is currently legal: exactly two
// player cards and no prior double.
func (s *Session) CanDouble() bool {
	return s.Status == StatusActive && len(s.PlayerHand) == 2 && !s.Doubled
}

// CanSplit reports whether the hand is an eligible pair.
func (s *Session) CanSplit() bool {
	return s.Status == StatusActive && len(s.PlayerHand) == 2 &&
		s.PlayerHand[0].SameValue(s.PlayerHand[1])
}

// Hit draws one card into the player hand. Going over 21 is terminal.
func (s *Session) Hit() error {
	if s.Status == StatusSplit {
		return s.Split.Hit()
	}
	if s.Status != StatusActive {
		return ErrIllegalTransition
	}

	s.PlayerHand = append(s.PlayerHand, s.draw())
	if IsBust(s.PlayerHand) {
		s.Status = StatusCompleted
		s.Result = ResultPlayerBust
	}
	return nil
}

// Stand ends the player's turn: the dealer draws to 17 and the round
// resolves.
func (s *Session) Stand() error {
	if s.Status == StatusSplit {
		return s.Split.Stand()
	}
	if s.Status != StatusActive {
		return ErrIllegalTransition
	}

	s.dealerPlay()
	s.resolve()
	return nil
}

// DoubleDown doubles the stake, forces exactly one hit, then forces the
// dealer sequence regardless of the draw. Always terminal. The caller
// deducts the additional stake before invoking this.
func (s *Session) DoubleDown() error {
	if !s.CanDouble() {
		return ErrIllegalTransition
	}

	s.Doubled = true
	s.Bet *= 2
	s.PlayerHand = append(s.PlayerHand, s.draw())
	s.dealerPlay()
	s.resolve()
	return nil
}

// Forfeit surrenders the round. Terminal, counted as a loss, no refund.
func (s *Session) Forfeit() error {
	if s.Status != StatusActive {
		return ErrIllegalTransition
	}

	s.Status = StatusCompleted
	s.Result = ResultForfeit
	return nil
}

// BeginSplit converts an eligible pair into the split sub-state,
// suspending the direct hit/stand path. The caller deducts the second
// stake before invoking this.
func (s *Session) BeginSplit() error {
	if !s.CanSplit() {
		return ErrIllegalTransition
	}

	s.Split = newSplitState(s)
	s.Status = StatusSplit
	return nil
}

// Expire forcibly terminates an abandoned session as a forfeit, from
// whatever phase it was left in. Used by the idle reaper.
func (s *Session) Expire() {
	if s.Status == StatusCompleted {
		return
	}
	s.Status = StatusCompleted
	s.Result = ResultForfeit
}

// OriginalBet is the pre-double stake, the amount a rematch is placed at.
func (s *Session) OriginalBet() int64 {
	if s.Doubled {
		return s.Bet / 2
	}
	return s.Bet
}

// Stake is the total chips committed to the round.
func (s *Session) Stake() int64 {
	if s.Split != nil {
		return s.Bet * 2
	}
	return s.Bet
}

// Settle computes the chips owed back and the counter increments for a
// terminal session, covering the single-hand and split paths uniformly.
// A forfeit (explicit or reaped) is one loss regardless of path.
func (s *Session) Settle() Settlement {
	if s.Result == ResultForfeit {
		return Settle(ResultForfeit, s.Bet)
	}
	if s.Split != nil {
		r1, r2 := s.Split.Results()
		return Settle(r1, s.Split.Bet).Add(Settle(r2, s.Split.Bet))
	}
	return Settle(s.Result, s.Bet)
}

// dealerPlay draws for the dealer until its total reaches 17. Fixed
// rule, no strategy.
func (s *Session) dealerPlay() {
	for Score(s.DealerHand) < 17 {
		s.DealerHand = append(s.DealerHand, s.draw())
	}
}

// resolve applies the result rule and marks the session terminal.
func (s *Session) resolve() {
	s.Result = Outcome(s.PlayerHand, s.DealerHand)
	s.Status = StatusCompleted
}
