package game

// Settlement is the ledger-facing consequence of one resolved hand:
// chips credited back to the player and the win/loss counter bumps.
// A push credits the bet with no counter change.
type Settlement struct {
	Payout int64
	Wins   int64
	Losses int64
}

// Settle derives the settlement for a result at a given stake. Blackjack
// pays 2.5x truncated toward zero; any other win pays 2x. A doubled hand
// settles through the same table on its doubled stake: a forced-draw
// hand holds at least three cards, so the blackjack rate can never apply
// to it. Losing results credit nothing, the stake was taken at placement.
func Settle(result Result, bet int64) Settlement {
	switch {
	case result == ResultBlackjack:
		return Settlement{Payout: int64(float64(bet) * 2.5), Wins: 1}
	case result.IsWin():
		return Settlement{Payout: bet * 2, Wins: 1}
	case result == ResultPush:
		return Settlement{Payout: bet}
	default:
		return Settlement{Losses: 1}
	}
}

// Add merges another settlement into s, for summing split hands.
func (s Settlement) Add(other Settlement) Settlement {
	return Settlement{
		Payout: s.Payout + other.Payout,
		Wins:   s.Wins + other.Wins,
		Losses: s.Losses + other.Losses,
	}
}
