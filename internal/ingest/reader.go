package ingest

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"main/internal/errors"
)

var ErrBadTickRecord = errors.New("bad tick record")

// Tick is one raw, not yet validated market data row.
type Tick struct {
	Timestamp time.Time
	Returns   []float64
	Prices    []float64
}

// Reader streams ticks from a CSV source. Each record is
// "HH:MM:SS,ret_1..ret_{n-1},price_0..price_{n-1}" for a universe of n
// instruments with the base at index 0. The universe itself comes from
// configuration, not from the file.
type Reader struct {
	csv         *csv.Reader
	instruments int
}

// NewReader wraps a CSV stream for a universe of the given size.
func NewReader(r io.Reader, universeSize int) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 1 + (universeSize - 1) + universeSize
	return &Reader{csv: cr, instruments: universeSize}
}

// Next reads one tick. It returns io.EOF when the stream is exhausted.
func (r *Reader) Next() (Tick, error) {
	record, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return Tick{}, io.EOF
		}
		return Tick{}, errors.Wrap(ErrBadTickRecord, err.Error())
	}

	ts, err := time.Parse("15:04:05", record[0])
	if err != nil {
		return Tick{}, errors.Wrapf(ErrBadTickRecord, "timestamp %q", record[0])
	}

	values := make([]float64, len(record)-1)
	for i, field := range record[1:] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Tick{}, errors.Wrapf(ErrBadTickRecord, "field %d %q", i+1, field)
		}
		values[i] = v
	}

	nReturns := r.instruments - 1
	return Tick{
		Timestamp: ts,
		Returns:   values[:nReturns],
		Prices:    values[nReturns:],
	}, nil
}

// ReadAll drains the stream. Mostly a test and tooling convenience.
func (r *Reader) ReadAll() ([]Tick, error) {
	var ticks []Tick
	for {
		tick, err := r.Next()
		if err == io.EOF {
			return ticks, nil
		}
		if err != nil {
			return ticks, err
		}
		ticks = append(ticks, tick)
	}
}
