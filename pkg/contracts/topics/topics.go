package topics

const (
	// Bets, published by the authority once a submission settles.
	BetAccepted = "bet_accepted"
	BetRejected = "bet_rejected"
)
