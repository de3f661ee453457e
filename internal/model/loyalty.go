package model

// LoyaltyAccount is the points balance for one customer account.
type LoyaltyAccount struct {
	AccountRef    string `json:"accountRef"`
	PointsBalance int    `json:"pointsBalance"`
}

// BalanceSource records which collaborator produced a balance value.
// The fallback (derived from transaction history) is only trusted until
// the authoritative account service has answered.
type BalanceSource string

const (
	BalanceAuthoritative BalanceSource = "authoritative"
	BalanceDerived       BalanceSource = "derived"
)
