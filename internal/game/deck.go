package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"
)

// shufflePasses is how many seeded Fisher-Yates passes each new deck gets
// before the crypto-backed pass.
const shufflePasses = 5

type Deck struct {
	Cards []Card
}

// NewDeck creates a standard 52-card deck in suit/rank order.
func NewDeck() *Deck {
	deck := &Deck{}
	suits := []Suit{Hearts, Diamonds, Clubs, Spades}
	ranks := []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

	for _, suit := range suits {
		for _, rank := range ranks {
			deck.Cards = append(deck.Cards, Card{Suit: suit, Rank: rank})
		}
	}

	return deck
}

// NewShuffledDeck creates and shuffles a standard deck.
func NewShuffledDeck() *Deck {
	d := NewDeck()
	d.Shuffle()
	return d
}

// Shuffle randomizes the order of cards in the deck. It runs several
// pseudorandom Fisher-Yates passes followed by one pass driven by the
// OS entropy source; if that source is unavailable the pseudorandom
// passes stand on their own.
func (d *Deck) Shuffle() {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for pass := 0; pass < shufflePasses; pass++ {
		for i := len(d.Cards) - 1; i > 0; i-- {
			j := r.Intn(i + 1)
			d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
		}
	}

	d.secureShuffle()
}

// secureShuffle is a single Fisher-Yates pass using crypto/rand. Errors
// from the entropy source abort the pass silently.
func (d *Deck) secureShuffle() {
	var buf [8]byte
	for i := len(d.Cards) - 1; i > 0; i-- {
		if _, err := crand.Read(buf[:]); err != nil {
			return
		}
		j := int(binary.BigEndian.Uint64(buf[:]) % uint64(i+1))
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	}
}

// Draw removes and returns the top card from the deck.
func (d *Deck) Draw() (Card, bool) {
	if len(d.Cards) == 0 {
		return Card{}, false
	}

	card := d.Cards[0]
	d.Cards = d.Cards[1:]
	return card, true
}

// Remaining returns the number of cards left in the deck.
func (d *Deck) Remaining() int {
	return len(d.Cards)
}
