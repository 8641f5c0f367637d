package accounts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/savings/internal/model"
)

const (
	numFields   = 3
	colName     = 0
	colCurrency = 1
	colCategory = 2
)

// ReadAccounts reads accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"account_name", "currency", "category"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colName] = acct.Name
	if acct.Currency.Code != "" {
		row[colCurrency] = acct.Currency.String()
	}
	row[colCategory] = string(acct.Category)
	return row
}

// UnmarshalAccount converts a CSV row to an Account. Currency and category
// may be empty.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	name := strings.TrimSpace(record[colName])
	if name == "" {
		return model.Account{}, errors.New("missing account_name")
	}

	acct := model.Account{Name: name}
	if raw := strings.TrimSpace(record[colCurrency]); raw != "" {
		spec, err := model.ParseCurrencySpec(raw)
		if err != nil {
			return model.Account{}, fmt.Errorf("account %q: %w", name, err)
		}
		acct.Currency = spec
	}
	switch c := model.Category(strings.ToLower(strings.TrimSpace(record[colCategory]))); c {
	case "", model.CategoryCash, model.CategoryPension, model.CategoryStock:
		acct.Category = c
	default:
		return model.Account{}, fmt.Errorf("account %q: unknown category %q", name, c)
	}
	return acct, nil
}
