package scan

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/spreadrun/internal/options"
)

// LoadChainFile reads a chain snapshot: a JSON array of raw records as
// delivered by the market-data collaborator (string-keyed, alias-ridden,
// string numerics). Records that fail normalization are logged and skipped;
// an empty result is an error.
func LoadChainFile(path string) ([]options.OptionQuote, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chain file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.UseNumber()

	var raw []map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse chain file: %w", err)
	}

	chain := make([]options.OptionQuote, 0, len(raw))
	skipped := 0
	for i, record := range raw {
		quote, err := options.NormalizeRecord(record)
		if err != nil {
			skipped++
			log.Warn().Int("record", i).Err(err).Msg("Skipping unusable chain record")
			continue
		}
		chain = append(chain, quote)
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("chain file %s contained no usable records (%d skipped)", path, skipped)
	}
	if skipped > 0 {
		log.Info().Int("loaded", len(chain)).Int("skipped", skipped).Msg("Chain snapshot loaded with skips")
	}
	return chain, nil
}
