package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"onchain-index/internal/domain"
	"onchain-index/internal/onchain"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var tableHeader = []string{"Indicator", "Value"}

// RenderTable writes the snapshot as a two-column comma-delimited table with
// an "Indicator,Value" header.
func RenderTable(w io.Writer, snap domain.IndicatorSnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tableHeader); err != nil {
		return err
	}
	for _, r := range snap.Rows() {
		if err := cw.Write([]string{r.Label, onchain.FormatValue(r.Value)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	valueStyle  = cellStyle.Align(lipgloss.Right)
	indexStyle  = valueStyle.Bold(true)
)

// RenderPretty writes the same rows as a bordered terminal table.
func RenderPretty(w io.Writer, snap domain.IndicatorSnapshot) error {
	rows := snap.Rows()
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{r.Label, onchain.FormatValue(r.Value)})
	}
	last := len(data) - 1

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(tableHeader...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1 && row == last:
				return indexStyle
			case col == 1:
				return valueStyle
			default:
				return cellStyle
			}
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// WriteCSV writes the snapshot transposed: one row of labels followed by one
// row of values. An existing file is overwritten.
func WriteCSV(path string, snap domain.IndicatorSnapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", domain.ErrIO, path, err)
	}
	defer f.Close()

	rows := snap.Rows()
	labels := make([]string, len(rows))
	values := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = r.Label
		values[i] = onchain.FormatValue(r.Value)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll([][]string{labels, values}); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", domain.ErrIO, path, err)
	}
	return nil
}

// ReadCSV parses a file produced by WriteCSV back into labelled rows.
func ReadCSV(path string) ([]domain.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrIO, path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrIO, path, err)
	}
	if len(records) != 2 {
		return nil, fmt.Errorf("read %s: expected 2 rows, got %d", path, len(records))
	}
	labels, values := records[0], records[1]
	if len(labels) != len(values) {
		return nil, fmt.Errorf("read %s: %d labels but %d values", path, len(labels), len(values))
	}

	rows := make([]domain.Row, len(labels))
	for i := range labels {
		v, err := strconv.ParseFloat(strings.TrimSpace(values[i]), 64)
		if err != nil {
			return nil, fmt.Errorf("read %s: value for %q: %w", path, labels[i], err)
		}
		rows[i] = domain.Row{Label: labels[i], Value: v}
	}
	return rows, nil
}

// SnapshotFromRows rebuilds a snapshot from rows keyed by report label.
// Unknown labels are ignored; missing labels are an error.
func SnapshotFromRows(rows []domain.Row) (domain.IndicatorSnapshot, error) {
	byLabel := make(map[string]float64, len(rows))
	for _, r := range rows {
		byLabel[r.Label] = r.Value
	}
	for _, label := range domain.ReportLabels {
		if _, ok := byLabel[label]; !ok {
			return domain.IndicatorSnapshot{}, fmt.Errorf("missing %q", label)
		}
	}
	return domain.IndicatorSnapshot{
		BTCPrice:      byLabel[domain.LabelBTCPrice],
		BTCRSI:        byLabel[domain.LabelBTCRSI],
		PuellMultiple: byLabel[domain.LabelPuellMultiple],
		NUPL:          byLabel[domain.LabelNUPL],
		MVRV:          byLabel[domain.LabelMVRV],
		UPDIShort:     byLabel[domain.LabelUPDIShort],
		UPDIMedium:    byLabel[domain.LabelUPDIMedium],
		UPDILong:      byLabel[domain.LabelUPDILong],
		OnChainIndex:  byLabel[domain.LabelOnChainIndex],
	}, nil
}
