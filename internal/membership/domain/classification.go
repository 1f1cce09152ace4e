package domain

// Outcome is the tagged result of classifying an order.
type Outcome string

const (
	Qualified    Outcome = "qualified"
	NotQualified Outcome = "not_qualified"
)

// Classification explains why an order was or was not treated as a
// membership purchase. Only an authoritative rule can qualify an order;
// advisory rules are reported but never activate.
type Classification struct {
	Outcome    Outcome
	Reason     string
	MatchedSKU string
	Advisories []string
}

func (c Classification) Qualifies() bool { return c.Outcome == Qualified }

// VerifiedOrder is an order whose signature, source and topic were checked.
type VerifiedOrder struct {
	ID             string
	Email          string
	CustomerRef    string
	Classification Classification
}
