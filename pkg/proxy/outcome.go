package proxy

// Status is the outcome of operations that either succeed or fail: set,
// setex, incr and the list, set and sorted-set families.
type Status int

const (
	StatusOK Status = iota
	StatusErr
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusErr:
		return "ERR"
	default:
		return "UNKNOWN"
	}
}

// Lookup is the outcome of reads that can find nothing: get, hget, zscore.
// LookupUnknown is returned when a reply arrived with a shape the operation
// does not expect.
type Lookup int

const (
	LookupOK Lookup = iota
	LookupNotFound
	LookupErr
	LookupUnknown Lookup = -1
)

func (l Lookup) String() string {
	switch l {
	case LookupOK:
		return "OK"
	case LookupNotFound:
		return "NOT_FOUND"
	case LookupErr:
		return "ERR"
	default:
		return "UNKNOWN"
	}
}

// Deletion is the outcome of del.
type Deletion int

const (
	DeletionOK Deletion = iota
	DeletionNotExist
	DeletionErr
	DeletionUnknown Deletion = -1
)

func (d Deletion) String() string {
	switch d {
	case DeletionOK:
		return "OK"
	case DeletionNotExist:
		return "NOT_EXIST"
	case DeletionErr:
		return "ERR"
	default:
		return "UNKNOWN"
	}
}

// Existence is the outcome of exists.
type Existence int

const (
	ExistsYes Existence = iota
	ExistsNo
	ExistsErr
)

func (e Existence) String() string {
	switch e {
	case ExistsYes:
		return "YES"
	case ExistsNo:
		return "NO"
	default:
		return "ERR"
	}
}
