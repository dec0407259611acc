package paystream

import "github.com/xraph/paystream/id"

// ID is the identifier type for events, transfers and audit records.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
