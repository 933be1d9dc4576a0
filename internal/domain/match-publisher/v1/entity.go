package matchpublisherv1

import (
	"encoding/json"
	"io"
	"time"

	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
	"github.com/oklog/ulid/v2"
)

// MatchEvent is published for every fill of an accepted intent.
type MatchEvent struct {
	MatchID      string               `json:"matchID"`
	Pair         string               `json:"pair"`
	MakerOrderID uint64               `json:"makerOrderID"`
	TakerOrderID uint64               `json:"takerOrderID"`
	MakerAccount exchangev1.AccountID `json:"makerAccount"`
	TakerAccount exchangev1.AccountID `json:"takerAccount"`
	TakerSide    exchangev1.Side      `json:"takerSide"`
	Quantity     uint64               `json:"quantity"`
	Price        uint64               `json:"price"`
	Timestamp    time.Time            `json:"timestamp"`
}

// CreateFromFill creates a match event from a fill. The id is a ULID drawn
// from entropy at time at, so ids sort by match time.
func CreateFromFill(pair string, fill exchangev1.Fill, at time.Time, entropy io.Reader) *MatchEvent {
	return &MatchEvent{
		MatchID:      ulid.MustNew(ulid.Timestamp(at), entropy).String(),
		Pair:         pair,
		MakerOrderID: fill.Maker.ID,
		TakerOrderID: fill.Taker.ID,
		MakerAccount: fill.Maker.Account,
		TakerAccount: fill.Taker.Account,
		TakerSide:    fill.Taker.Side,
		Quantity:     fill.Quantity,
		Price:        fill.Price,
		Timestamp:    at.UTC(),
	}
}

// ToBytes converts the match event to a byte array.
func ToBytes(matchEvent *MatchEvent) []byte {
	data, err := json.Marshal(matchEvent)
	if err != nil {
		return nil
	}

	return data
}

// FromBytes converts a byte array to a match event.
func FromBytes(data []byte) *MatchEvent {
	var matchEvent MatchEvent
	if err := json.Unmarshal(data, &matchEvent); err != nil {
		return nil
	}
	return &matchEvent
}
