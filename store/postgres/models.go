package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/paystream/protocol"
	"github.com/xraph/paystream/stream"
	"github.com/xraph/paystream/types"
)

// configRowID keys the single protocol config row.
const configRowID = 1

// ==================== Protocol models ====================

type configModel struct {
	grove.BaseModel `grove:"table:paystream_config"`

	ID           int       `grove:"id,pk"`
	Admin        string    `grove:"admin"`
	FeeCollector string    `grove:"fee_collector"`
	FeeRateBps   int64     `grove:"fee_rate_bps"`
	NextStreamID int64     `grove:"next_stream_id"`
	CreatedAt    time.Time `grove:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"`
}

func toConfigModel(c *protocol.Config) *configModel {
	return &configModel{
		ID:           configRowID,
		Admin:        string(c.Admin),
		FeeCollector: string(c.FeeCollector),
		FeeRateBps:   int64(c.FeeRateBps),
		NextStreamID: int64(c.NextStreamID),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func fromConfigModel(m *configModel) *protocol.Config {
	return &protocol.Config{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Admin:        types.Address(m.Admin),
		FeeCollector: types.Address(m.FeeCollector),
		FeeRateBps:   uint32(m.FeeRateBps),
		NextStreamID: uint64(m.NextStreamID),
	}
}

// ==================== Stream models ====================

type streamModel struct {
	grove.BaseModel `grove:"table:paystream_streams"`

	ID              int64     `grove:"id,pk"`
	Sender          string    `grove:"sender"`
	Recipient       string    `grove:"recipient"`
	Token           string    `grove:"token"`
	TotalAmount     int64     `grove:"total_amount"`
	Balance         int64     `grove:"balance"`
	WithdrawnAmount int64     `grove:"withdrawn_amount"`
	StartTime       int64     `grove:"start_time"`
	EndTime         int64     `grove:"end_time"`
	Status          string    `grove:"status"`
	ActiveElapsed   int64     `grove:"active_elapsed"`
	LastResumeTime  int64     `grove:"last_resume_time"`
	Delegate        *string   `grove:"delegate"`
	CreatedAt       time.Time `grove:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"`
}

func toStreamModel(s *stream.Stream) *streamModel {
	var delegate *string
	if s.Delegate != nil {
		d := string(*s.Delegate)
		delegate = &d
	}
	return &streamModel{
		ID:              int64(s.ID),
		Sender:          string(s.Sender),
		Recipient:       string(s.Recipient),
		Token:           string(s.Token),
		TotalAmount:     s.TotalAmount,
		Balance:         s.Balance,
		WithdrawnAmount: s.WithdrawnAmount,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		Status:          string(s.Status),
		ActiveElapsed:   s.ActiveElapsed,
		LastResumeTime:  s.LastResumeTime,
		Delegate:        delegate,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func fromStreamModel(m *streamModel) *stream.Stream {
	var delegate *types.Address
	if m.Delegate != nil && *m.Delegate != "" {
		delegate = types.AddressPtr(types.Address(*m.Delegate))
	}
	return &stream.Stream{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:              uint64(m.ID),
		Sender:          types.Address(m.Sender),
		Recipient:       types.Address(m.Recipient),
		Token:           types.Address(m.Token),
		TotalAmount:     m.TotalAmount,
		Balance:         m.Balance,
		WithdrawnAmount: m.WithdrawnAmount,
		StartTime:       m.StartTime,
		EndTime:         m.EndTime,
		Status:          stream.Status(m.Status),
		ActiveElapsed:   m.ActiveElapsed,
		LastResumeTime:  m.LastResumeTime,
		Delegate:        delegate,
	}
}
