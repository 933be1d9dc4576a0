package exchangev1

import (
	"encoding/json"
	"fmt"
)

// ActionKind tags the variants of Action.
type ActionKind string

const (
	// KindTransaction tags a Transaction.
	KindTransaction ActionKind = "transaction"
	// KindFill tags a Fill.
	KindFill ActionKind = "fill"
	// KindBlock tags a Block.
	KindBlock ActionKind = "block"
)

// Action is a ledger entry and settlement instruction. The set of
// implementations is closed: Transaction, Fill and Block.
type Action interface {
	Kind() ActionKind
	// Parties returns the accounts whose logs record the action, without House and without duplicates.
	Parties() []AccountID
	sealed()
}

// Transaction moves collateral between two accounts.
type Transaction struct {
	From    AccountID `json:"from"`
	To      AccountID `json:"to"`
	Balance Balance   `json:"balance"`
}

// Fill records that a resting (maker) order was matched by an incoming
// (taker) order. Maker and Taker are the orders as they stood when matched.
type Fill struct {
	Maker    Order  `json:"maker"`
	Taker    Order  `json:"taker"`
	Quantity uint64 `json:"quantity"`
	Price    uint64 `json:"price"`
}

// Block holds collateral for a resting order that has no counterparty yet.
type Block struct {
	From    AccountID `json:"from"`
	Balance Balance   `json:"balance"`
}

func (Transaction) Kind() ActionKind { return KindTransaction }
func (Fill) Kind() ActionKind        { return KindFill }
func (Block) Kind() ActionKind       { return KindBlock }

func (Transaction) sealed() {}
func (Fill) sealed()        {}
func (Block) sealed()       {}

func (t Transaction) Parties() []AccountID { return parties(t.From, t.To) }
func (f Fill) Parties() []AccountID        { return parties(f.Maker.Account, f.Taker.Account) }
func (b Block) Parties() []AccountID       { return parties(b.From) }

func parties(ids ...AccountID) []AccountID {
	out := make([]AccountID, 0, len(ids))
	for _, id := range ids {
		if id == House {
			continue
		}
		dup := false
		for _, seen := range out {
			if seen == id {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, id)
		}
	}
	return out
}

// Actions is a log of actions, encoded in JSON as a list of tagged objects.
type Actions []Action

type taggedAction struct {
	Type ActionKind      `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON implements json.Marshaler.
func (a Actions) MarshalJSON() ([]byte, error) {
	out := make([]taggedAction, 0, len(a))
	for _, action := range a {
		data, err := json.Marshal(action)
		if err != nil {
			return nil, err
		}
		out = append(out, taggedAction{Type: action.Kind(), Data: data})
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Actions) UnmarshalJSON(data []byte) error {
	var tagged []taggedAction
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}

	out := make(Actions, 0, len(tagged))
	for i, t := range tagged {
		var (
			action Action
			err    error
		)
		switch t.Type {
		case KindTransaction:
			var v Transaction
			err = json.Unmarshal(t.Data, &v)
			action = v
		case KindFill:
			var v Fill
			err = json.Unmarshal(t.Data, &v)
			action = v
		case KindBlock:
			var v Block
			err = json.Unmarshal(t.Data, &v)
			action = v
		default:
			return fmt.Errorf("action %d: unknown type %q", i, t.Type)
		}
		if err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
		out = append(out, action)
	}
	*a = out
	return nil
}
