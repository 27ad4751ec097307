// Package ledger persists executed fills to an append-only
// tab-separated file, the system of record for every purchase.
package ledger

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wimmeldj/gemini-dca/internal/models"
)

// Header is written exactly once, when the file is first created.
const Header = "tid\torderid\tts\ttsms\ttype\tpair\tprice\tamount\tfee_currency\tfee_amount\tcost_basis"

// Ledger appends fill rows to the file at path. At most one process
// may own a given path; concurrent writers are not synchronized.
type Ledger struct {
	path string
}

func New(path string) *Ledger {
	return &Ledger{path: path}
}

func (l *Ledger) Path() string {
	return l.path
}

// Append writes one row per fill, creating the file with its header on
// first use. The cost-basis column is fee_amount + price*amount in
// exact decimal arithmetic. A crash mid-write can leave a partial last
// line; that is a documented limitation.
func (l *Ledger) Append(fills []models.Fill) error {
	if len(fills) == 0 {
		return nil
	}

	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		if err := os.WriteFile(l.path, []byte(Header+"\n"), 0o644); err != nil {
			return fmt.Errorf("create ledger %s: %w", l.path, err)
		}
	} else if err != nil {
		return fmt.Errorf("stat ledger %s: %w", l.path, err)
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger %s: %w", l.path, err)
	}
	defer f.Close()

	var b strings.Builder
	for _, fill := range fills {
		b.WriteString(row(fill))
		b.WriteByte('\n')
	}
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("append to ledger %s: %w", l.path, err)
	}
	return nil
}

func row(f models.Fill) string {
	return strings.Join([]string{
		strconv.FormatInt(f.TradeID, 10),
		f.OrderID,
		strconv.FormatInt(f.Timestamp, 10),
		strconv.FormatInt(f.TimestampMS, 10),
		f.Type,
		f.Pair,
		f.Price.String(),
		f.Amount.String(),
		f.FeeCurrency,
		f.FeeAmount.String(),
		f.CostBasis().String(),
	}, "\t")
}
