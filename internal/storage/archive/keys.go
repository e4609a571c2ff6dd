package archive

import (
	"path"
	"strings"
)

// Artifact layout. Every (symbol, strategy) pair owns distinct keys so
// concurrent workers never write the same object.
const (
	BarsPrefix    = "bars"
	SignalsPrefix = "signals"
	OrdersPrefix  = "orders"
	MetricsPrefix = "metrics"
	StatusKey     = "status/system_status.json"
)

// BarKey is bars/<SYMBOL>.csv
func BarKey(symbol string) string {
	return path.Join(BarsPrefix, safe(symbol)+".csv")
}

// SignalKey is signals/<SYMBOL>/<strategy>.csv
func SignalKey(symbol, strategy string) string {
	return path.Join(SignalsPrefix, safe(symbol), safe(strategy)+".csv")
}

// OrderKey is orders/<SYMBOL>/<strategy>.csv
func OrderKey(symbol, strategy string) string {
	return path.Join(OrdersPrefix, safe(symbol), safe(strategy)+".csv")
}

// PairMetricsKey is metrics/<date>/<SYMBOL>/<strategy>.csv
func PairMetricsKey(runDate, symbol, strategy string) string {
	return path.Join(MetricsPrefix, safe(runDate), safe(symbol), safe(strategy)+".csv")
}

// MetricsKey is the batch summary metrics/<date>/summary.csv
func MetricsKey(runDate string) string {
	return path.Join(MetricsPrefix, safe(runDate), "summary.csv")
}

var unsafe = strings.NewReplacer("/", "_", "\\", "_", "..", "_", " ", "_")

func safe(part string) string {
	return unsafe.Replace(part)
}
