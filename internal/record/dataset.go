package record

import "fmt"

// State is the lifecycle state of a Dataset.
type State int

const (
	// StateAbsent means nothing has been loaded, or the data was cleared.
	StateAbsent State = iota
	// StateEmpty means a load succeeded and returned zero records.
	StateEmpty
	// StatePopulated means a load returned at least one record.
	StatePopulated
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Dataset is the collection of records currently held by a loader.
// The zero Dataset is absent.
type Dataset struct {
	state   State
	records []Record
}

// Absent returns the dataset that stands for "never loaded" or "cleared".
func Absent() Dataset { return Dataset{} }

// Loaded returns the dataset produced by a successful load. A nil or empty
// slice yields an empty dataset, which is distinct from Absent.
func Loaded(records []Record) Dataset {
	if len(records) == 0 {
		return Dataset{state: StateEmpty, records: []Record{}}
	}
	return Dataset{state: StatePopulated, records: records}
}

// State returns the dataset state.
func (d Dataset) State() State { return d.state }

// Len returns the number of records.
func (d Dataset) Len() int { return len(d.records) }

// Records returns the records in source order.
func (d Dataset) Records() []Record { return d.records }

// First returns the record that determines the display schema.
func (d Dataset) First() (Record, bool) {
	if len(d.records) == 0 {
		return Record{}, false
	}
	return d.records[0], true
}

// String describes the dataset for logs and status lines.
func (d Dataset) String() string {
	if d.state == StatePopulated {
		return fmt.Sprintf("populated(%d)", len(d.records))
	}
	return d.state.String()
}
