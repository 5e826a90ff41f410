package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"main/internal/schema"
)

func TestLogSinkHandlesEveryEventType(t *testing.T) {
	sink := LogSink{}
	base := schema.TradeEvent{
		Timestamp:  time.Now(),
		Instrument: "AAPL",
		Base:       "SPY",
		SatShares:  40,
		BaseShares: -20,
		Price:      50,
		BasePrice:  100,
		Balance:    100000,
	}
	for _, kind := range []schema.TradeEventType{
		schema.TradeEventOpen,
		schema.TradeEventClose,
		schema.TradeEventForceClose,
		schema.TradeEventUnknown,
	} {
		event := base
		event.Type = kind
		assert.NotPanics(t, func() { sink.OnTradeEvent(event) })
	}
}

func TestNewStoreRejectsNilDB(t *testing.T) {
	_, err := NewStore(nil, "session")
	assert.Error(t, err)
}

func TestTradeRecordTable(t *testing.T) {
	assert.Equal(t, "trade_events", TradeRecord{}.TableName())
}
