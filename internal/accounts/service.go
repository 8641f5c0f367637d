package accounts

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"

	"github.com/cleared-dev/savings/internal/model"
)

// FileName is the optional account overrides file in the data directory.
const FileName = "accounts.csv"

// Service provides lookup over the account overrides. An override sets the
// category, and optionally the currency, of a sheet column by name.
type Service struct {
	accounts []model.Account
	byName   map[string]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	byName := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byName[a.Name] = a
	}
	return &Service{accounts: accounts, byName: byName}
}

// Load reads accounts.csv from a data directory. A missing file yields an
// empty Service.
func Load(dataDir string) (*Service, error) {
	path := filepath.Join(dataDir, FileName)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewService(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return NewService(accts), nil
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by name.
func (s *Service) Get(name string) (model.Account, bool) {
	a, ok := s.byName[name]
	return a, ok
}

// Exists reports whether an account name has an override.
func (s *Service) Exists(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// ByCategory returns all accounts of the given category.
func (s *Service) ByCategory(c model.Category) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Category == c {
			result = append(result, a)
		}
	}
	return result
}

// Apply returns accounts with the overrides applied. Currency and category
// are only replaced when the override sets them.
func (s *Service) Apply(accounts []model.Account) []model.Account {
	out := make([]model.Account, len(accounts))
	for i, a := range accounts {
		if o, ok := s.byName[a.Name]; ok {
			if o.Category != "" {
				a.Category = o.Category
			}
			if o.Currency.Code != "" {
				a.Currency = o.Currency
			}
		}
		out[i] = a
	}
	return out
}

// Currencies returns the raw per-account currency specs with every override
// currency substituted. raw is not modified.
func (s *Service) Currencies(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw)+len(s.accounts))
	maps.Copy(out, raw)
	for _, o := range s.accounts {
		if o.Currency.Code != "" {
			out[o.Name] = o.Currency.String()
		}
	}
	return out
}

// Save writes accounts.csv to dataDir.
func (s *Service) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dataDir, FileName))
	if err != nil {
		return fmt.Errorf("creating accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing accounts: %w", err)
	}
	return nil
}
