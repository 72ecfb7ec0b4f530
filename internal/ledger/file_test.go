package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	if got := DefaultAccount(); got.Chips != 500 || got.Wins != 0 || got.Losses != 0 || got.LastDaily != nil {
		t.Errorf("DefaultAccount = %+v", got)
	}

	accounts := map[string]Account{"known": {Chips: 42}}
	if got := AccountFor(accounts, "known"); got.Chips != 42 {
		t.Errorf("AccountFor known = %+v", got)
	}
	if got := AccountFor(accounts, "unknown"); got.Chips != 500 {
		t.Errorf("AccountFor unknown = %+v, want default", got)
	}

	if got := StatsFor(map[string]Stats{}, "unknown"); got != (Stats{}) {
		t.Errorf("StatsFor unknown = %+v, want zero", got)
	}
}

func TestFileStoreMissingFilesReadEmpty(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer store.Close()

	accounts, err := store.LoadAccounts()
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("accounts = %v, want empty", accounts)
	}

	stats, err := store.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if len(stats) != 0 {
		t.Errorf("stats = %v, want empty", stats)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	claimed := time.Date(2024, 3, 7, 12, 30, 0, 0, time.UTC)
	accounts := map[string]Account{
		"alice": {Chips: 725, Wins: 3, Losses: 1, LastDaily: &claimed},
		"bob":   {Chips: 500},
	}
	if err := store.SaveAccounts(accounts); err != nil {
		t.Fatalf("SaveAccounts: %v", err)
	}

	stats := map[string]Stats{"alice": {Wins: 3, Losses: 1}}
	if err := store.SaveStats(stats); err != nil {
		t.Fatalf("SaveStats: %v", err)
	}

	// Reopen to prove the state survived the process boundary.
	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	gotAccounts, err := reopened.LoadAccounts()
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	alice := gotAccounts["alice"]
	if alice.Chips != 725 || alice.Wins != 3 || alice.Losses != 1 {
		t.Errorf("alice = %+v", alice)
	}
	if alice.LastDaily == nil || !alice.LastDaily.Equal(claimed) {
		t.Errorf("alice.LastDaily = %v, want %v", alice.LastDaily, claimed)
	}
	if bob := gotAccounts["bob"]; bob.Chips != 500 || bob.LastDaily != nil {
		t.Errorf("bob = %+v", bob)
	}

	gotStats, err := reopened.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if gotStats["alice"] != (Stats{Wins: 3, Losses: 1}) {
		t.Errorf("alice stats = %+v", gotStats["alice"])
	}
}

func TestFileStoreSaveReplaces(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := store.SaveAccounts(map[string]Account{"gone": {Chips: 1}}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.SaveAccounts(map[string]Account{"kept": {Chips: 2}}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	accounts, err := store.LoadAccounts()
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	if _, ok := accounts["gone"]; ok {
		t.Error("save must replace the whole mapping")
	}
	if accounts["kept"].Chips != 2 {
		t.Errorf("kept = %+v", accounts["kept"])
	}
}

func TestFileStoreUpdate(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := store.UpdateAccounts(func(accounts map[string]Account) error {
		accounts["p"] = Account{Chips: 300}
		return nil
	}); err != nil {
		t.Fatalf("UpdateAccounts: %v", err)
	}
	accounts, err := store.LoadAccounts()
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	if accounts["p"].Chips != 300 {
		t.Fatalf("chips = %d, want 300", accounts["p"].Chips)
	}

	// An error from fn aborts the cycle without writing.
	abort := errors.New("abort")
	if err := store.UpdateAccounts(func(accounts map[string]Account) error {
		if accounts["p"].Chips != 300 {
			t.Errorf("fn sees chips = %d, want current 300", accounts["p"].Chips)
		}
		accounts["p"] = Account{Chips: 0}
		return abort
	}); !errors.Is(err, abort) {
		t.Fatalf("UpdateAccounts = %v, want fn error", err)
	}
	accounts, _ = store.LoadAccounts()
	if accounts["p"].Chips != 300 {
		t.Errorf("chips = %d after aborted update, want 300 untouched", accounts["p"].Chips)
	}
}

func TestFileStoreUpdateSerializesCycles(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	// Concurrent increments only all survive if each cycle sees the
	// previous one's write.
	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.UpdateAccounts(func(accounts map[string]Account) error {
				acct := AccountFor(accounts, "p")
				acct.Chips += 10
				accounts["p"] = acct
				return nil
			})
			if err != nil {
				t.Errorf("UpdateAccounts: %v", err)
			}
		}()
	}
	wg.Wait()

	accounts, err := store.LoadAccounts()
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	if got := accounts["p"].Chips; got != 500+10*n {
		t.Errorf("chips = %d, want %d (no lost increments)", got, 500+10*n)
	}
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := store.SaveAccounts(map[string]Account{"p": {Chips: 500}}); err != nil {
		t.Fatalf("SaveAccounts: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "player_data.json")); err != nil {
		t.Errorf("ledger file missing: %v", err)
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "player_data.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.LoadAccounts(); err == nil {
		t.Fatal("corrupt ledger must surface an error, not read as empty")
	}
}
