package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/paystream/protocol"
	"github.com/xraph/paystream/stream"
	"github.com/xraph/paystream/types"
)

// configDocID keys the single protocol config document.
const configDocID = "protocol"

// ==================== Protocol models ====================

type configModel struct {
	grove.BaseModel `grove:"table:paystream_config"`

	ID           string    `grove:"id,pk"          bson:"_id"`
	Admin        string    `grove:"admin"          bson:"admin"`
	FeeCollector string    `grove:"fee_collector"  bson:"fee_collector"`
	FeeRateBps   int64     `grove:"fee_rate_bps"   bson:"fee_rate_bps"`
	NextStreamID int64     `grove:"next_stream_id" bson:"next_stream_id"`
	CreatedAt    time.Time `grove:"created_at"     bson:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"     bson:"updated_at"`
}

func toConfigModel(c *protocol.Config) *configModel {
	return &configModel{
		ID:           configDocID,
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

	ID              int64     `grove:"id,pk"            bson:"_id"`
	Sender          string    `grove:"sender"           bson:"sender"`
	Recipient       string    `grove:"recipient"        bson:"recipient"`
	Token           string    `grove:"token"            bson:"token"`
	TotalAmount     int64     `grove:"total_amount"     bson:"total_amount"`
	Balance         int64     `grove:"balance"          bson:"balance"`
	WithdrawnAmount int64     `grove:"withdrawn_amount" bson:"withdrawn_amount"`
	StartTime       int64     `grove:"start_time"       bson:"start_time"`
	EndTime         int64     `grove:"end_time"         bson:"end_time"`
	Status          string    `grove:"status"           bson:"status"`
	ActiveElapsed   int64     `grove:"active_elapsed"   bson:"active_elapsed"`
	LastResumeTime  int64     `grove:"last_resume_time" bson:"last_resume_time"`
	Delegate        string    `grove:"delegate"         bson:"delegate"`
	CreatedAt       time.Time `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"       bson:"updated_at"`
}

func toStreamModel(s *stream.Stream) *streamModel {
	m := &streamModel{
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
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.Delegate != nil {
		m.Delegate = string(*s.Delegate)
	}
	return m
}

func fromStreamModel(m *streamModel) *stream.Stream {
	s := &stream.Stream{
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
	}
	if m.Delegate != "" {
		s.Delegate = types.AddressPtr(types.Address(m.Delegate))
	}
	return s
}
