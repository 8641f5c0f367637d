package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/savings/internal/savings"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type fakeChannel struct {
	declared   []string
	published  []published
	declareErr error
	publishErr error
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error {
	f.declared = append(f.declared, name+":"+kind)
	return f.declareErr
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func testSummary() savings.Summary {
	return savings.Summary{
		Last:            time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		LastTotal:       decimal.NewNullDecimal(decimal.RequireFromString("1500.25")),
		LastIncremental: decimal.NewNullDecimal(decimal.RequireFromString("-20")),
		Current: []savings.Share{
			{Account: "Bank", Share: decimal.RequireFromString("0.75")},
			{Account: "Broker", Share: decimal.RequireFromString("0.25")},
		},
	}
}

func TestNew_Defaults(t *testing.T) {
	ch := &fakeChannel{}
	p, err := New(ch, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"savings:topic"}, ch.declared)
	assert.Equal(t, DefaultRoutingKey, p.routingKey)
}

func TestNew_DeclareError(t *testing.T) {
	_, err := New(&fakeChannel{declareErr: errors.New("access refused")}, "x", "y", nil)
	assert.ErrorContains(t, err, "declare exchange")
}

func TestPublish(t *testing.T) {
	ch := &fakeChannel{}
	p, err := New(ch, "money", "monthly", nil)
	require.NoError(t, err)

	msg := NewReportMessage("EUR", testSummary())
	require.NoError(t, p.Publish(context.Background(), msg))

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, "money", got.exchange)
	assert.Equal(t, "monthly", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, got.msg.DeliveryMode)

	decoded, err := ReportMessageFromJSON(got.msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "EUR", decoded.Currency)
	assert.True(t, decoded.Total.Decimal.Equal(decimal.RequireFromString("1500.25")))
	assert.False(t, decoded.Mean.Valid, "undefined figures stay undefined")
	require.Len(t, decoded.Shares, 2)
	assert.Equal(t, "Broker", decoded.Shares[1].Account)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestPublish_Error(t *testing.T) {
	p, err := New(&fakeChannel{publishErr: errors.New("channel closed")}, "", "", nil)
	require.NoError(t, err)
	err = p.Publish(context.Background(), NewReportMessage("EUR", testSummary()))
	assert.ErrorContains(t, err, "publish message")
}

func TestReportMessage_NullJSON(t *testing.T) {
	body, err := NewReportMessage("USD", savings.Summary{}).ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"total":null`)
	assert.Contains(t, string(body), `"shares":[]`)
}

func TestReportMessageFromJSON_Invalid(t *testing.T) {
	_, err := ReportMessageFromJSON([]byte("{"))
	assert.Error(t, err)
}
