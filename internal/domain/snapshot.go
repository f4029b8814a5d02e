package domain

import "time"

// Row labels, in report order.
const (
	LabelBTCPrice      = "BTC Price"
	LabelBTCRSI        = "BTC RSI"
	LabelPuellMultiple = "Puell Multiple"
	LabelNUPL          = "NUPL"
	LabelMVRV          = "MVRV"
	LabelUPDIShort     = "BTC UPDI Short"
	LabelUPDIMedium    = "BTC UPDI Medium"
	LabelUPDILong      = "BTC UPDI Long"
	LabelOnChainIndex  = "On-Chain Index"
)

// ReportLabels lists the nine indicator labels in the order they are rendered.
var ReportLabels = []string{
	LabelBTCPrice,
	LabelBTCRSI,
	LabelPuellMultiple,
	LabelNUPL,
	LabelMVRV,
	LabelUPDIShort,
	LabelUPDIMedium,
	LabelUPDILong,
	LabelOnChainIndex,
}

// IndicatorSnapshot holds one run's worth of fetched and derived indicators.
// Values are already rounded to two decimal places when the snapshot leaves
// the service layer.
type IndicatorSnapshot struct {
	BTCPrice      float64   `json:"btc_price"`
	BTCRSI        float64   `json:"btc_rsi"`
	PuellMultiple float64   `json:"puell_multiple"`
	NUPL          float64   `json:"nupl"`
	MVRV          float64   `json:"mvrv"`
	UPDIShort     float64   `json:"updi_short"`
	UPDIMedium    float64   `json:"updi_medium"`
	UPDILong      float64   `json:"updi_long"`
	OnChainIndex  float64   `json:"onchain_index"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// Row is a single labelled value of a rendered report.
type Row struct {
	Label string  `json:"indicator"`
	Value float64 `json:"value"`
}

// Rows returns the snapshot as labelled rows in ReportLabels order.
func (s IndicatorSnapshot) Rows() []Row {
	return []Row{
		{Label: LabelBTCPrice, Value: s.BTCPrice},
		{Label: LabelBTCRSI, Value: s.BTCRSI},
		{Label: LabelPuellMultiple, Value: s.PuellMultiple},
		{Label: LabelNUPL, Value: s.NUPL},
		{Label: LabelMVRV, Value: s.MVRV},
		{Label: LabelUPDIShort, Value: s.UPDIShort},
		{Label: LabelUPDIMedium, Value: s.UPDIMedium},
		{Label: LabelUPDILong, Value: s.UPDILong},
		{Label: LabelOnChainIndex, Value: s.OnChainIndex},
	}
}

// Reading is the raw result of one indicator source. Scalar sources return a
// single value; the UPDI source returns short, medium and long in that order.
type Reading struct {
	Source    string    `json:"source"`
	Values    []float64 `json:"values"`
	FetchedAt time.Time `json:"fetched_at"`
}
