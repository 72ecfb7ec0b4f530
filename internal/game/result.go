package game

// Result is the terminal outcome code of one resolved hand.
type Result string

const (
	ResultPlayerBust      Result = "player_bust"
	ResultDealerBust      Result = "dealer_bust"
	ResultBlackjack       Result = "blackjack"
	ResultDealerBlackjack Result = "dealer_blackjack"
	ResultPlayerWins      Result = "player_wins"
	ResultDealerWins      Result = "dealer_wins"
	ResultPush            Result = "push"
	ResultForfeit         Result = "forfeit"
)

// IsWin reports whether the result counts as a win for the player.
func (r Result) IsWin() bool {
	return r == ResultPlayerWins || r == ResultDealerBust || r == ResultBlackjack
}

// IsLoss reports whether the result counts as a loss for the player.
func (r Result) IsLoss() bool {
	switch r {
	case ResultPlayerBust, ResultDealerBlackjack, ResultDealerWins, ResultForfeit:
		return true
	}
	return false
}

// Outcome applies the result rule to a player hand against the dealer
// hand, in fixed precedence: player bust, dealer bust, two-card player
// 21 (push when matched by a two-card dealer 21), two-card dealer 21,
// then total comparison. It is pure; both Session and SplitState
// resolve through it.
func Outcome(player, dealer Hand) Result {
	playerScore := Score(player)
	dealerScore := Score(dealer)

	switch {
	case playerScore > 21:
		return ResultPlayerBust
	case dealerScore > 21:
		return ResultDealerBust
	case playerScore == 21 && len(player) == 2:
		if dealerScore == 21 && len(dealer) == 2 {
			return ResultPush
		}
		return ResultBlackjack
	case dealerScore == 21 && len(dealer) == 2:
		return ResultDealerBlackjack
	case playerScore > dealerScore:
		return ResultPlayerWins
	case dealerScore > playerScore:
		return ResultDealerWins
	default:
		return ResultPush
	}
}
