package ops

import (
	"encoding/json"
	"os"

	"main/internal/errors"
	"main/internal/schema"
)

// ErrInvalidConfig is returned for any construction-time parameter violation.
// An instance must never be built from a config that fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

const defaultSessionCloseCutoff = "16:29:00"

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Strategy StrategyConfig `json:"strategy"`
	Universe UniverseConfig `json:"universe"`
	Feed     FeedConfig     `json:"feed"`
	Report   ReportConfig   `json:"report"`
}

// StrategyConfig holds the trading parameters as written in the file.
type StrategyConfig struct {
	InitialBalance     float64 `json:"initialBalance"`
	MinDeviation       float64 `json:"minDeviation"`
	StopLossFraction   float64 `json:"stopLossFraction"`
	TriggerRange       float64 `json:"triggerRange"`
	TradeSize          float64 `json:"tradeSize"`
	TradeSizeAsPercent bool    `json:"tradeSizeAsPercent"`
	SessionCloseCutoff string  `json:"sessionCloseCutoff"`
}

// UniverseConfig names the session's instruments.
type UniverseConfig struct {
	Base       string   `json:"base"`
	Satellites []string `json:"satellites"`
}

// FeedConfig selects the tick source.
type FeedConfig struct {
	Mode      string  `json:"mode"` // replay | synthetic | live
	CSVPath   string  `json:"csvPath"`
	Ticks     int     `json:"ticks"`
	Seed      int64   `json:"seed"`
	BasePrice float64 `json:"basePrice"`
}

// ReportConfig configures optional trade persistence.
type ReportConfig struct {
	Postgres PostgresConfig `json:"postgres"`
}

// PostgresConfig holds the trade store connection settings. An empty host
// disables persistence.
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// Params are the validated, immutable strategy parameters.
type Params struct {
	InitialBalance     float64
	MinDeviation       float64
	StopLossFraction   float64
	TriggerRange       float64
	TradeSize          float64
	TradeSizeAsPercent bool
	SessionCloseCutoff schema.TimeOfDay
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Params      Params
	Instruments []schema.Instrument
	Feed        FeedConfig
	Report      ReportConfig
}

// Load reads a JSON config file and validates every section.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	return Resolve(cfg)
}

// Resolve validates a FileConfig and builds the runtime view.
func Resolve(cfg FileConfig) (Loaded, error) {
	params, err := resolveParams(cfg.Strategy)
	if err != nil {
		return Loaded{}, err
	}
	instruments, err := resolveUniverse(cfg.Universe)
	if err != nil {
		return Loaded{}, err
	}
	return Loaded{
		Params:      params,
		Instruments: instruments,
		Feed:        cfg.Feed,
		Report:      cfg.Report,
	}, nil
}

func resolveParams(cfg StrategyConfig) (Params, error) {
	if cfg.MinDeviation <= 0 {
		return Params{}, errors.Wrap(ErrInvalidConfig, "minDeviation must be > 0")
	}
	if cfg.StopLossFraction <= 0 {
		return Params{}, errors.Wrap(ErrInvalidConfig, "stopLossFraction must be > 0")
	}
	if cfg.TriggerRange <= 0 || cfg.TriggerRange >= cfg.MinDeviation {
		return Params{}, errors.Wrap(ErrInvalidConfig, "triggerRange must be > 0 and < minDeviation")
	}
	if cfg.TradeSize <= 0 {
		return Params{}, errors.Wrap(ErrInvalidConfig, "tradeSize must be > 0")
	}
	if cfg.TradeSizeAsPercent && cfg.TradeSize >= 1 {
		return Params{}, errors.Wrap(ErrInvalidConfig, "tradeSize must be < 1 when given as a percentage")
	}

	cutoffStr := cfg.SessionCloseCutoff
	if cutoffStr == "" {
		cutoffStr = defaultSessionCloseCutoff
	}
	cutoff, err := schema.ParseTimeOfDay(cutoffStr)
	if err != nil {
		return Params{}, errors.Wrap(ErrInvalidConfig, err.Error())
	}

	return Params{
		InitialBalance:     cfg.InitialBalance,
		MinDeviation:       cfg.MinDeviation,
		StopLossFraction:   cfg.StopLossFraction,
		TriggerRange:       cfg.TriggerRange,
		TradeSize:          cfg.TradeSize,
		TradeSizeAsPercent: cfg.TradeSizeAsPercent,
		SessionCloseCutoff: cutoff,
	}, nil
}

func resolveUniverse(cfg UniverseConfig) ([]schema.Instrument, error) {
	if cfg.Base == "" {
		return nil, errors.Wrap(ErrInvalidConfig, "universe base is empty")
	}
	if len(cfg.Satellites) == 0 {
		return nil, errors.Wrap(ErrInvalidConfig, "universe has no satellites")
	}

	instruments := make([]schema.Instrument, 0, len(cfg.Satellites)+1)
	instruments = append(instruments, schema.Instrument(cfg.Base))
	seen := map[string]struct{}{cfg.Base: {}}
	for _, name := range cfg.Satellites {
		if name == "" {
			return nil, errors.Wrap(ErrInvalidConfig, "empty satellite name")
		}
		if _, dup := seen[name]; dup {
			return nil, errors.Wrapf(ErrInvalidConfig, "duplicate instrument %s", name)
		}
		seen[name] = struct{}{}
		instruments = append(instruments, schema.Instrument(name))
	}
	return instruments, nil
}
