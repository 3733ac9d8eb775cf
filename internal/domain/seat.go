package domain

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	// SeatStatusSelected only ever exists on the client.
	SeatStatusSelected SeatStatus = "selected"
	SeatStatusBooked   SeatStatus = "booked"
)

type Deck string

const (
	DeckLower Deck = "lower"
	DeckUpper Deck = "upper"
)

type Seat struct {
	ID     string `json:"id"`
	Deck   Deck   `json:"deck"`
	Row    int    `json:"row"`
	Column int    `json:"column"`
	Label  string `json:"label"`
}

type SeatView struct {
	Seat
	Status SeatStatus `json:"status"`
}

// Principal is the caller identity passed explicitly into every ledger
// operation that depends on who is asking.
type Principal struct {
	UserID string
	Name   string
	Role   Role
}

type Role string

const (
	RoleRider    Role = "rider"
	RoleOperator Role = "operator"
)

func (p Principal) IsOperator() bool {
	return p.Role == RoleOperator
}
