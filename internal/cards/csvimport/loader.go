// Package csvimport loads a tabular card-collection export into card
// records. The expected layout is the fixed-header collection CSV
// produced by common collection trackers; columns may appear in any
// order.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mtgtools/commander-companion/internal/cards"
)

// columnOrder lists the required external column headers.
var columnOrder = []string{
	"Card Name",
	"Set Code",
	"Set Name",
	"Collector Number",
	"Rarity",
	"Language",
	"Quantity",
	"Condition",
	"Finish",
	"Altered",
	"Signed",
	"Misprint",
	"Price (USD)",
	"Price (EUR)",
	"Price (USD Foil)",
	"Price (EUR Foil)",
	"Price (USD Etched)",
	"Price (EUR Etched)",
	"Scryfall ID",
	"Container Type",
	"Container Name",
}

// ErrEmptyInput is returned when the file has a valid header but no
// data rows.
var ErrEmptyInput = errors.New("csv file contains no data rows")

// SchemaError reports required columns missing from the header. It
// always lists every missing column, not just the first.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ProgressFunc receives an integer percentage in [0,100] after each
// parsed row.
type ProgressFunc func(percent int)

// Load parses the collection CSV at path into card records.
//
// The header must contain every required column. Values are trimmed of
// surrounding whitespace; the quantity and the six price columns are
// coerced to float64, with 0.0 substituted for empty or unparsable
// cells. Progress is reported monotonically and ends at 100.
func Load(path string, progress ProgressFunc) ([]cards.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows are caught per-field below

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index, err := validateHeader(header)
	if err != nil {
		return nil, err
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	records := make([]cards.Record, 0, len(rows))
	for i, row := range rows {
		records = append(records, recordFromRow(row, index))
		if progress != nil {
			progress(int(math.Round(float64(i+1) / float64(len(rows)) * 100)))
		}
	}

	return records, nil
}

// validateHeader maps each required column name to its position,
// collecting every missing column before failing.
func validateHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range columnOrder {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &SchemaError{Missing: missing}
	}

	return index, nil
}

// cell returns the trimmed value of the named column, or "" when the
// row is shorter than the header.
func cell(row []string, index map[string]int, column string) string {
	i := index[column]
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// toFloat coerces a cell to float64. Empty and unparsable values
// become 0.0; coercion never fails.
func toFloat(value string) float64 {
	if value == "" {
		return 0.0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0.0
	}
	return f
}

// toBool interprets the CSV's boolean flag columns. The exporters in
// the wild write "true"/"false"; anything else is treated as false.
func toBool(value string) bool {
	return strings.EqualFold(value, "true")
}

func recordFromRow(row []string, index map[string]int) cards.Record {
	get := func(column string) string { return cell(row, index, column) }

	return cards.Record{
		Name:            get("Card Name"),
		SetCode:         get("Set Code"),
		SetName:         get("Set Name"),
		CollectorNumber: get("Collector Number"),
		Rarity:          get("Rarity"),
		Language:        get("Language"),
		Quantity:        toFloat(get("Quantity")),
		Condition:       get("Condition"),
		Finish:          get("Finish"),
		Altered:         toBool(get("Altered")),
		Signed:          toBool(get("Signed")),
		Misprint:        toBool(get("Misprint")),
		PriceUSD:        toFloat(get("Price (USD)")),
		PriceEUR:        toFloat(get("Price (EUR)")),
		PriceUSDFoil:    toFloat(get("Price (USD Foil)")),
		PriceEURFoil:    toFloat(get("Price (EUR Foil)")),
		PriceUSDEtched:  toFloat(get("Price (USD Etched)")),
		PriceEUREtched:  toFloat(get("Price (EUR Etched)")),
		ScryfallID:      get("Scryfall ID"),
		ContainerType:   get("Container Type"),
		ContainerName:   get("Container Name"),
	}
}
