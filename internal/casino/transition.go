package casino

import (
	"github.com/aldenpratama/blackjack-bot-be/internal/game"
)

// HandView is one hand as the presentation layer sees it.
type HandView struct {
	Cards  game.Hand   `json:"cards"`
	Score  int         `json:"score"`
	Active bool        `json:"active,omitempty"`
	Result game.Result `json:"result,omitempty"`
}

// Transition is the outcome of one engine action, complete enough to
// render any user-facing message without reaching into session state.
// Payout is the amount credited at settlement; Net is the change
// against the pre-bet balance (negative on a lost stake). While
// DealerHidden is set the dealer view carries only the face-up card and
// its score.
type Transition struct {
	PlayerID     string      `json:"playerId"`
	SessionID    string      `json:"sessionId"`
	Hands        []HandView  `json:"hands"`
	Dealer       HandView    `json:"dealer"`
	DealerHidden bool        `json:"dealerHidden"`
	Terminal     bool        `json:"terminal"`
	Result       game.Result `json:"result,omitempty"`
	Payout       int64       `json:"payout"`
	Net          int64       `json:"net"`
	Wins         int64       `json:"wins"`
	Losses       int64       `json:"losses"`
	Bet          int64       `json:"bet"`
	OriginalBet  int64       `json:"originalBet"`
	Balance      int64       `json:"balance"`
}

func (m *Manager) buildTransition(s *game.Session, st game.Settlement, balance int64) *Transition {
	tr := &Transition{
		PlayerID:     s.PlayerID,
		SessionID:    s.ID,
		DealerHidden: s.DealerHidden(),
		Terminal:     s.Terminal(),
		Result:       s.Result,
		Payout:       st.Payout,
		Wins:         st.Wins,
		Losses:       st.Losses,
		Bet:          s.Bet,
		OriginalBet:  s.OriginalBet(),
		Balance:      balance,
	}

	// Only the face-up card leaves the server while the hole card is
	// down; clients never see more than the table would show.
	if s.DealerHidden() {
		up := s.DealerHand[:1]
		tr.Dealer = HandView{Cards: up, Score: game.Score(up)}
	} else {
		tr.Dealer = HandView{Cards: s.DealerHand, Score: game.Score(s.DealerHand)}
	}

	if s.Split != nil {
		r1, r2 := game.Result(""), game.Result("")
		if s.Terminal() && s.Result != game.ResultForfeit {
			r1, r2 = s.Split.Results()
		}
		tr.Hands = []HandView{
			{
				Cards:  s.Split.Hand1,
				Score:  game.Score(s.Split.Hand1),
				Active: !s.Terminal() && s.Split.ActiveHand == 1,
				Result: r1,
			},
			{
				Cards:  s.Split.Hand2,
				Score:  game.Score(s.Split.Hand2),
				Active: !s.Terminal() && s.Split.ActiveHand == 2,
				Result: r2,
			},
		}
	} else {
		tr.Hands = []HandView{{
			Cards:  s.PlayerHand,
			Score:  game.Score(s.PlayerHand),
			Active: !s.Terminal(),
			Result: s.Result,
		}}
	}

	if s.Terminal() {
		tr.Net = st.Payout - s.Stake()
	}

	return tr
}
