package game

// SplitState is the sub-state-machine for a split pair. It exists only
// nested inside one Session and is destroyed together with it. Each seed
// card starts a new hand that immediately receives one drawn card; the
// hands are then played left to right against a single dealer sequence.
type SplitState struct {
	parent     *Session
	Hand1      Hand  `json:"hand1"`
	Hand2      Hand  `json:"hand2"`
	ActiveHand int   `json:"activeHand"` // 1 or 2
	Bet        int64 `json:"bet"`        // per hand; total exposure is twice this
}

func newSplitState(s *Session) *SplitState {
	ss := &SplitState{
		parent:     s,
		Hand1:      Hand{s.PlayerHand[0]},
		Hand2:      Hand{s.PlayerHand[1]},
		ActiveHand: 1,
		Bet:        s.Bet,
	}
	ss.Hand1 = append(ss.Hand1, s.draw())
	ss.Hand2 = append(ss.Hand2, s.draw())
	return ss
}

func (ss *SplitState) active() *Hand {
	if ss.ActiveHand == 1 {
		return &ss.Hand1
	}
	return &ss.Hand2
}

// Hit draws into the active hand. A bust marks the hand an automatic
// loss and advances, exactly as a stand would.
func (ss *SplitState) Hit() error {
	if ss.parent.Status != StatusSplit {
		return ErrIllegalTransition
	}

	hand := ss.active()
	*hand = append(*hand, ss.parent.draw())
	if IsBust(*hand) {
		ss.advance()
	}
	return nil
}

// Stand finishes the active hand without drawing and advances.
func (ss *SplitState) Stand() error {
	if ss.parent.Status != StatusSplit {
		return ErrIllegalTransition
	}

	ss.advance()
	return nil
}

// advance activates hand 2, or ends the split once both hands are done:
// the dealer plays its standard sequence once and the parent session
// turns terminal.
func (ss *SplitState) advance() {
	if ss.ActiveHand == 1 {
		ss.ActiveHand = 2
		return
	}

	ss.parent.dealerPlay()
	ss.parent.Status = StatusCompleted
}

// Results computes each hand's outcome independently against the shared
// dealer hand. A busted hand loses no matter how the dealer finished.
func (ss *SplitState) Results() (Result, Result) {
	return Outcome(ss.Hand1, ss.parent.DealerHand), Outcome(ss.Hand2, ss.parent.DealerHand)
}
