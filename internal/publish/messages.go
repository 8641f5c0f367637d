package publish

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/savings"
)

// ShareMessage is one account's share of the last total.
type ShareMessage struct {
	Account string          `json:"account"`
	Share   decimal.Decimal `json:"share"`
}

// ReportMessage carries the headline figures of a run. Undefined figures are
// encoded as null.
type ReportMessage struct {
	Currency    string              `json:"currency"`
	Period      time.Time           `json:"period"`
	Total       decimal.NullDecimal `json:"total"`
	Incremental decimal.NullDecimal `json:"incremental"`
	Mean        decimal.NullDecimal `json:"mean"`
	Median      decimal.NullDecimal `json:"median"`
	StdDev      decimal.NullDecimal `json:"stddev"`
	Shares      []ShareMessage      `json:"shares"`
	Timestamp   time.Time           `json:"timestamp"`
}

// NewReportMessage builds a message from a run summary.
func NewReportMessage(currency string, s savings.Summary) *ReportMessage {
	msg := &ReportMessage{
		Currency:    currency,
		Period:      s.Last,
		Total:       s.LastTotal,
		Incremental: s.LastIncremental,
		Mean:        s.Mean,
		Median:      s.Median,
		StdDev:      s.StdDev,
		Shares:      make([]ShareMessage, 0, len(s.Current)),
		Timestamp:   time.Now().UTC(),
	}
	for _, sh := range s.Current {
		msg.Shares = append(msg.Shares, ShareMessage{Account: sh.Account, Share: sh.Share})
	}
	return msg
}

// ToJSON converts the message to JSON bytes
func (m *ReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportMessageFromJSON decodes a message.
func ReportMessageFromJSON(data []byte) (*ReportMessage, error) {
	var msg ReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
