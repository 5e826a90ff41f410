package ingest

import (
	"time"

	"main/internal/errors"
	"main/internal/schema"
)

var (
	ErrSnapshotShape = errors.New("snapshot shape mismatch")
	ErrEmptyUniverse = errors.New("instrument universe is empty")
)

// ValidateAndBuild reshapes one raw tick into a Snapshot.
//
// instruments is the ordered universe with the base at index 0. returns holds
// one entry per non-base instrument in universe order. prices holds one entry
// per instrument, base first. Any length mismatch rejects the tick before any
// state downstream can change.
func ValidateAndBuild(timestamp time.Time, returns, prices []float64, instruments []schema.Instrument) (schema.Snapshot, error) {
	if len(instruments) == 0 {
		return schema.Snapshot{}, ErrEmptyUniverse
	}
	if len(returns) != len(instruments)-1 {
		return schema.Snapshot{}, errors.Wrapf(ErrSnapshotShape,
			"returns=%d instruments=%d", len(returns), len(instruments))
	}
	if len(prices) != len(instruments) {
		return schema.Snapshot{}, errors.Wrapf(ErrSnapshotShape,
			"prices=%d instruments=%d", len(prices), len(instruments))
	}

	quotes := make([]schema.Quote, len(returns))
	for i := range returns {
		quotes[i] = schema.Quote{
			Instrument: instruments[i+1],
			Return:     returns[i],
			Price:      prices[i+1],
		}
	}

	return schema.Snapshot{
		Timestamp: timestamp,
		Base:      instruments[0],
		BasePrice: prices[0],
		Quotes:    quotes,
	}, nil
}
