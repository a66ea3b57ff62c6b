package google

import (
	"fmt"
	"strings"

	"pocketmoney/internal/core"
)

// Ledger sheet header names, matched case-insensitively.
const (
	colKid       = "Kid"
	colDate      = "Date"
	colAmount    = "Amount"
	colKind      = "Kind"
	colNarrative = "Narrative"
	colNotes     = "Notes"
	colID        = "ID"
)

// parseLedgerRows converts a values matrix (as returned by the Sheets API)
// into raw ledger records for kidID. The first row is the header; Kid, Date
// and Amount are required, the other columns are optional.
//
// Dates are kept verbatim so malformed ones reach the ledger index and get
// quarantined there. Rows with an unparsable amount or kind come back with
// Unreadable set so the index can report them. Rows without an ID get
// "row-<n>" (1-based sheet row).
func parseLedgerRows(values [][]interface{}, kidID string) ([]core.LedgerRecord, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cKid, cDate, cAmount := indexOf(headers, colKid), indexOf(headers, colDate), indexOf(headers, colAmount)
	if cKid == -1 || cDate == -1 || cAmount == -1 {
		missing := make([]string, 0, 3)
		if cKid == -1 {
			missing = append(missing, colKid)
		}
		if cDate == -1 {
			missing = append(missing, colDate)
		}
		if cAmount == -1 {
			missing = append(missing, colAmount)
		}
		return nil, fmt.Errorf("unexpected ledger header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}
	cKind, cNarrative := indexOf(headers, colKind), indexOf(headers, colNarrative)
	cNotes, cID := indexOf(headers, colNotes), indexOf(headers, colID)

	var records []core.LedgerRecord
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if !strings.EqualFold(safeGet(row, cKid), kidID) {
			continue
		}

		id := safeGet(row, cID)
		if id == "" {
			id = fmt.Sprintf("row-%d", i+1)
		}
		rec := core.LedgerRecord{
			ID:        id,
			KidID:     kidID,
			EntryDate: safeGet(row, cDate),
			Narrative: safeGet(row, cNarrative),
			Notes:     safeGet(row, cNotes),
		}
		unreadable := func(field, raw string, err error) {
			rec.Unreadable = &core.UnreadableRecordError{Kind: "ledger_entry", RecordID: id, Field: field, Raw: raw, Err: err}
		}

		amount, aerr := core.ParseAmount(safeGet(row, cAmount))
		kind := core.LedgerKind(strings.ToLower(safeGet(row, cKind)))
		switch {
		case aerr != nil:
			unreadable(colAmount, safeGet(row, cAmount), aerr)
		case kind == "" && amount.IsNegative():
			kind = core.Withdrawal
		case kind == "":
			kind = core.Deposit
		case !kind.IsValid():
			unreadable(colKind, string(kind), core.ErrInvalidKind)
		}
		switch kind {
		case core.Withdrawal:
			amount = amount.Abs().Neg()
		case core.Deposit:
			amount = amount.Abs()
		}
		rec.Amount = amount
		rec.Kind = kind
		records = append(records, rec)
	}
	return records, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
