package game

// RankValue returns the blackjack value of a rank. Aces count 11 here;
// Score demotes them to 1 as needed. This is the single value table
// shared by scoring and split eligibility.
func RankValue(r Rank) int {
	switch r {
	case Ace:
		return 11
	case Ten, Jack, Queen, King:
		return 10
	case Two:
		return 2
	case Three:
		return 3
	case Four:
		return 4
	case Five:
		return 5
	case Six:
		return 6
	case Seven:
		return 7
	case Eight:
		return 8
	case Nine:
		return 9
	default:
		return 0
	}
}

// Score calculates the total of a hand. Aces start at 11 and are demoted
// to 1 one at a time while the total is over 21. The result depends only
// on the multiset of cards, never their order.
func Score(hand Hand) int {
	score := 0
	aces := 0

	for _, card := range hand {
		if card.Rank == Ace {
			aces++
		}
		score += RankValue(card.Rank)
	}

	for aces > 0 && score > 21 {
		score -= 10
		aces--
	}

	return score
}

// IsNatural reports whether a hand is a two-card 21.
func IsNatural(hand Hand) bool {
	return len(hand) == 2 && Score(hand) == 21
}

// IsBust reports whether a hand's total exceeds 21.
func IsBust(hand Hand) bool {
	return Score(hand) > 21
}
