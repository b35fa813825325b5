package lab

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Protocol is a pulse grinding protocol for one lab batch.
type Protocol struct {
	OnTimeSec         float64 `json:"on_time_sec"`
	OffTimeSec        float64 `json:"off_time_sec"`
	DutyCycle         float64 `json:"duty_cycle"`
	TotalBatchTimeMin float64 `json:"total_batch_time_min"`
	PeakTempC         float64 `json:"peak_temp_c"`
	ProteinDamage     float64 `json:"protein_damage"`
	Feasible          bool    `json:"feasible"`
}

// Records returns the exported metric/value pairs in file order.
// Feasible is not part of the exported record.
func (p *Protocol) Records() [][2]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return [][2]string{
		{"on_time_sec", f(p.OnTimeSec)},
		{"off_time_sec", f(p.OffTimeSec)},
		{"duty_cycle", f(p.DutyCycle)},
		{"total_batch_time_min", f(p.TotalBatchTimeMin)},
		{"peak_temp_c", f(p.PeakTempC)},
		{"protein_damage", f(p.ProteinDamage)},
	}
}

// WriteCSV writes the protocol as "metric,value" rows after a header row.
func (p *Protocol) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"metric", "value"}); err != nil {
		return err
	}
	for _, r := range p.Records() {
		if err := cw.Write(r[:]); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportProtocol writes p to path, replacing any existing file.
func ExportProtocol(path string, p *Protocol) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export protocol: %w", err)
	}
	if err := p.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("export protocol to %s: %w", path, err)
	}
	return f.Close()
}
