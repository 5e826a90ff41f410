package report

import (
	"time"

	"github.com/yanun0323/logs"
	"gorm.io/gorm"

	"main/internal/errors"
	"main/internal/schema"
)

// TradeRecord is one persisted trade event row.
type TradeRecord struct {
	ID         uint   `gorm:"primaryKey"`
	Session    string `gorm:"index"`
	EventType  string
	Instrument string
	Base       string
	Reason     string
	SatShares  float64
	BaseShares float64
	Price      float64
	BasePrice  float64
	ROI        float64
	Balance    float64
	OccurredAt string
	CreatedAt  time.Time
}

func (TradeRecord) TableName() string { return "trade_events" }

// Store persists trade events to Postgres. Writes are best-effort from the
// engine's point of view: a failed insert is logged and never propagates back
// into the tick loop.
type Store struct {
	db      *gorm.DB
	session string
}

// NewStore migrates the trade table and returns a store tagged with a session
// label for later querying.
func NewStore(db *gorm.DB, session string) (*Store, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	if err := db.AutoMigrate(&TradeRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate trade_events")
	}
	return &Store{db: db, session: session}, nil
}

func (s *Store) OnTradeEvent(e schema.TradeEvent) {
	record := TradeRecord{
		Session:    s.session,
		EventType:  e.Type.String(),
		Instrument: string(e.Instrument),
		Base:       string(e.Base),
		Reason:     e.Reason.String(),
		SatShares:  e.SatShares,
		BaseShares: e.BaseShares,
		Price:      e.Price,
		BasePrice:  e.BasePrice,
		ROI:        e.ROI,
		Balance:    e.Balance,
		OccurredAt: schema.TimeOfDayOf(e.Timestamp).String(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		logs.Errorf("persist trade event, err: %+v", err)
	}
}
