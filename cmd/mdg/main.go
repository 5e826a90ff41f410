package main

import (
	"encoding/csv"
	"flag"
	"log"
	"os"
	"strconv"

	"main/internal/mdg"
	"main/internal/ops"
)

// Emits a CSV tick file suitable for the trader's replay mode. Record layout:
// HH:MM:SS, one return per satellite, then one price per instrument with the
// base first.
func main() {
	configPath := flag.String("config", "", "Path to JSON config (universe + feed seed)")
	outPath := flag.String("out", "ticks.csv", "Output CSV path")
	ticks := flag.Int("ticks", 390, "Number of ticks to generate")
	flag.Parse()

	if *configPath == "" {
		log.Fatalf("-config is required")
	}
	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *ticks <= 0 {
		log.Fatalf("-ticks must be > 0")
	}

	gen, err := mdg.NewGenerator(len(loaded.Instruments), loaded.Feed.Seed, loaded.Feed.BasePrice)
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}

	file, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("create output failed: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	for i := 0; i < *ticks; i++ {
		tick := gen.Next()
		record := make([]string, 0, 1+len(tick.Returns)+len(tick.Prices))
		record = append(record, tick.Timestamp.Format("15:04:05"))
		for _, r := range tick.Returns {
			record = append(record, strconv.FormatFloat(r, 'f', 6, 64))
		}
		for _, p := range tick.Prices {
			record = append(record, strconv.FormatFloat(p, 'f', 4, 64))
		}
		if err := writer.Write(record); err != nil {
			log.Fatalf("write record failed: %v", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Fatalf("flush failed: %v", err)
	}

	log.Printf("wrote %d ticks for %d instruments to %s", *ticks, len(loaded.Instruments), *outPath)
}
