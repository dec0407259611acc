package paystream

import (
	"github.com/xraph/paystream/stream"
	"github.com/xraph/paystream/types"
)

// Re-export common types for convenience so users don't have to import the
// leaf packages.

// Address is re-exported from types package.
type Address = types.Address

// Entity is re-exported from types package.
type Entity = types.Entity

// Stream is re-exported from stream package.
type Stream = stream.Stream

// CreateParams is re-exported from stream package.
type CreateParams = stream.CreateParams

// Status is re-exported from stream package.
type Status = stream.Status

// Stream statuses.
const (
	StatusActive   = stream.StatusActive
	StatusPaused   = stream.StatusPaused
	StatusCanceled = stream.StatusCanceled
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
