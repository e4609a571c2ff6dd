package artifact

import (
	"strconv"

	"github.com/newthinker/tradelab/internal/core"
)

// EncodeOrders writes one row per closed order in simulation order
func EncodeOrders(orders []core.Order) ([]byte, error) {
	rows := make([][]string, len(orders))
	for i, o := range orders {
		rows[i] = []string{
			o.ID,
			o.Symbol,
			FormatTime(o.EntryTime),
			FormatFloat(o.EntryPrice),
			FormatTime(o.ExitTime),
			FormatFloat(o.ExitPrice),
			string(o.Side),
			o.Strategy,
			string(o.ExitReason),
			FormatFloat(o.Commission),
			FormatFloat(o.GrossReturn),
			FormatFloat(o.NetReturn),
			FormatFloat(o.PnL),
			strconv.Itoa(o.HoldingPeriod),
		}
	}
	return encode(OrderHeader, rows)
}
