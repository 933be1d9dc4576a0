package exchangev1

// Intent is an unvalidated request from an account. The set of
// implementations is closed: OrderIntent and CancelIntent.
type Intent interface {
	Owner() AccountID
	intent()
}

// OrderIntent asks to place an order.
type OrderIntent struct {
	Account AccountID `json:"account"`
	Amount  uint64    `json:"amount"`
	Side    Side      `json:"side"`
	Price   uint64    `json:"price"`
}

// CancelIntent asks to withdraw a resting order.
type CancelIntent struct {
	Account AccountID `json:"account"`
	OrderID uint64    `json:"order_id"`
}

func (i OrderIntent) Owner() AccountID  { return i.Account }
func (i CancelIntent) Owner() AccountID { return i.Account }

func (OrderIntent) intent()  {}
func (CancelIntent) intent() {}

// IntentState is a step of the intake state machine.
type IntentState string

const (
	StateReceived     IntentState = "received"
	StateAuthorizing  IntentState = "authorizing"
	StateAuthorized   IntentState = "authorized"
	StateUnauthorized IntentState = "unauthorized"
	StateMatching     IntentState = "matching"
	StateSettling     IntentState = "settling"
	StateAccepted     IntentState = "accepted"
	StateRejected     IntentState = "rejected"
)

// Terminal reports whether no further transition follows s.
func (s IntentState) Terminal() bool {
	return s == StateAccepted || s == StateRejected
}

// Receipt acknowledges an accepted intent.
type Receipt struct {
	OrderID uint64      `json:"order_id"`
	State   IntentState `json:"state"`
	Actions Actions     `json:"actions"`
}

// Candidate is what the ledger needs to pre-authorize an order.
type Candidate struct {
	Account AccountID
	Amount  uint64
	Price   uint64
}

// Authorization is the ledger's permission to proceed with a candidate.
type Authorization struct {
	Account        AccountID `json:"account"`
	Total          Balance   `json:"total"`
	FreeCollateral Balance   `json:"free_collateral"`
}
