package game

type Suit string
type Rank string

const (
	Hearts   Suit = "Hearts"
	Diamonds Suit = "Diamonds"
	Clubs    Suit = "Clubs"
	Spades   Suit = "Spades"
)

const (
	Ace   Rank = "Ace"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "Jack"
	Queen Rank = "Queen"
	King  Rank = "King"
)

type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// Hand is an ordered sequence of cards held by one party: the player,
// the dealer, or one half of a split.
type Hand []Card

// SameValue reports whether two cards carry the same blackjack value.
// This is the split-eligibility rule, so ten-value cards (10, J, Q, K)
// pair with each other.
func (c Card) SameValue(other Card) bool {
	return RankValue(c.Rank) == RankValue(other.Rank)
}
