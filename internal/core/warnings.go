package core

import (
	"errors"
	"fmt"
)

// Warning codes surfaced alongside otherwise successful results.
const (
	WarnDataFetchFailed = "data_fetch_failed"
	WarnMalformedDate   = "malformed_date"
	WarnSliceMismatch   = "slice_mismatch"
	WarnUnreadable      = "unreadable_record"
)

// Warning is a data-quality notice. Results carrying warnings are still
// usable but may be incomplete.
type Warning struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Count     int      `json:"count,omitempty"`
	RecordIDs []string `json:"recordIds,omitempty"`
}

// MalformedDateWarning groups quarantined records of one kind into a single
// warning.
func MalformedDateWarning(kind string, errs []*MalformedDateError) (Warning, bool) {
	if len(errs) == 0 {
		return Warning{}, false
	}
	w := Warning{
		Code:    WarnMalformedDate,
		Message: fmt.Sprintf("%d %s record(s) excluded: unparsable date", len(errs), kind),
		Count:   len(errs),
	}
	for _, e := range errs {
		id := e.RecordID
		if id == "" {
			id = e.Raw
		}
		w.RecordIDs = append(w.RecordIDs, id)
	}
	return w, true
}

// UnreadableWarning groups records excluded because a field could not be
// read.
func UnreadableWarning(kind string, errs []*UnreadableRecordError) (Warning, bool) {
	if len(errs) == 0 {
		return Warning{}, false
	}
	w := Warning{
		Code:    WarnUnreadable,
		Message: fmt.Sprintf("%d %s record(s) excluded: unreadable values", len(errs), kind),
		Count:   len(errs),
	}
	for _, e := range errs {
		w.RecordIDs = append(w.RecordIDs, e.RecordID)
	}
	return w, true
}

// FetchWarning describes a failed fetch that was replaced by empty data.
func FetchWarning(err error) Warning {
	var fe *DataFetchError
	if errors.As(err, &fe) {
		return Warning{
			Code:    WarnDataFetchFailed,
			Message: fmt.Sprintf("%s unavailable: %v", fe.Source, fe.Err),
		}
	}
	return Warning{Code: WarnDataFetchFailed, Message: err.Error()}
}
