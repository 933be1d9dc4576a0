package intentreaderv1

import (
	"encoding/json"
	"fmt"

	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
	"github.com/muhammadchandra19/matcha/pkg/errors"
)

// IntentType tells which intent an IntentMessage carries.
type IntentType string

const (
	// TypeOrder carries an OrderIntent.
	TypeOrder IntentType = "order"
	// TypeCancel carries a CancelIntent.
	TypeCancel IntentType = "cancel"
)

// IntentMessage is one record of the intent topic.
type IntentMessage struct {
	Type      IntentType           `json:"type"`
	RequestID string               `json:"request_id,omitempty"`
	Account   exchangev1.AccountID `json:"account"`
	Amount    uint64               `json:"amount,omitempty"`
	Side      exchangev1.Side      `json:"side"`
	Price     uint64               `json:"price,omitempty"`
	OrderID   uint64               `json:"order_id,omitempty"`

	// Offset is the position of the record in its partition.
	Offset int64 `json:"-"`
}

// Intent returns the intent the message carries.
func (m IntentMessage) Intent() (exchangev1.Intent, error) {
	switch m.Type {
	case TypeOrder:
		return exchangev1.OrderIntent{
			Account: m.Account,
			Amount:  m.Amount,
			Side:    m.Side,
			Price:   m.Price,
		}, nil
	case TypeCancel:
		return exchangev1.CancelIntent{
			Account: m.Account,
			OrderID: m.OrderID,
		}, nil
	default:
		return nil, errors.New(errors.GeneralBadRequestError, fmt.Sprintf("unknown intent type %q", m.Type), "type")
	}
}

// ToBytes converts the message to JSON.
func (m *IntentMessage) ToBytes() ([]byte, error) {
	return json.Marshal(m)
}

// FromBytes decodes a record value into an IntentMessage.
func FromBytes(data []byte) (*IntentMessage, error) {
	var m IntentMessage
	if err := json.Unmarshal(data, &m); err != nil {
		if errors.CodeOf(err) != errors.GeneralInternalServerError {
			return nil, err
		}
		return nil, errors.New(errors.GeneralBadRequestError, fmt.Sprintf("invalid intent message: %s", err.Error()), "value")
	}
	return &m, nil
}
