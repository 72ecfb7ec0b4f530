package ledger

import "time"

// Account is one player's persisted record: chip balance, lifetime
// counters and the daily-bonus cooldown marker.
type Account struct {
	Chips     int64      `json:"chips"`
	Wins      int64      `json:"wins"`
	Losses    int64      `json:"losses"`
	LastDaily *time.Time `json:"last_daily,omitempty"`
}

// Stats is the game-statistics record, a namespace independent from the
// player account.
type Stats struct {
	Wins   int64 `json:"wins"`
	Losses int64 `json:"losses"`
}

// DefaultAccount is the record implied by a missing key.
func DefaultAccount() Account {
	return Account{Chips: 500}
}

// Store persists the two ledgers. Loads return the full mapping with
// missing backing data reading as empty. Updates run a read-modify-write
// cycle atomically: the mapping handed to fn is current when fn runs and
// no other update lands between fn and the persisted result, so two
// sessions settling at the same time cannot erase each other's chips.
// An error from fn aborts the cycle with nothing written.
type Store interface {
	LoadAccounts() (map[string]Account, error)
	UpdateAccounts(fn func(map[string]Account) error) error
	LoadStats() (map[string]Stats, error)
	UpdateStats(fn func(map[string]Stats) error) error
	Close() error
}

// AccountFor reads a player's account out of a loaded mapping, applying
// the default record when the key is absent.
func AccountFor(accounts map[string]Account, playerID string) Account {
	if acct, ok := accounts[playerID]; ok {
		return acct
	}
	return DefaultAccount()
}

// StatsFor reads a player's stats with the zero default.
func StatsFor(stats map[string]Stats, playerID string) Stats {
	return stats[playerID]
}
