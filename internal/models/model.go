package models

import "time"

// AuctionStatus is the lifecycle state of an auction.
type AuctionStatus string

const (
	StatusActive    AuctionStatus = "active"
	StatusWaiting   AuctionStatus = "waiting"
	StatusEnded     AuctionStatus = "ended"
	StatusCancelled AuctionStatus = "cancelled"
)

// LedgerKind classifies a balance-affecting event.
type LedgerKind string

const (
	KindParticipationFee LedgerKind = "participation_fee"
	KindRefund           LedgerKind = "refund"
	KindOther            LedgerKind = "other"
)

// LedgerStatus marks whether a ledger entry took effect.
type LedgerStatus string

const (
	LedgerSucceeded LedgerStatus = "succeeded"
	LedgerFailed    LedgerStatus = "failed"
)

// Auction represents a time-bound sale owned by a seller.
// Status and WinningBidderID are mutated only through guarded
// state-machine operations, never by a bare update.
type Auction struct {
	AuctionID       string        `json:"auction_id"`
	SellerID        string        `json:"seller_id"`
	ProductRef      string        `json:"product_ref"`
	Status          AuctionStatus `json:"status"`
	EndTime         time.Time     `json:"end_time"`
	WinningBidderID string        `json:"winning_bidder_id,omitempty"`
}

// Bid is a historical bid on an auction. Immutable once recorded.
type Bid struct {
	BidID       string    `json:"bid_id"`
	AuctionID   string    `json:"auction_id"`
	BidderID    string    `json:"bidder_id"`
	AmountCents int64     `json:"amount_cents"`
	PlacedAt    time.Time `json:"placed_at"`
}

// Participant records that a user paid the fee to join an auction.
// At most one row exists per (auction, user).
type Participant struct {
	AuctionID       string    `json:"auction_id"`
	UserID          string    `json:"user_id"`
	FeeChargedCents int64     `json:"fee_charged_cents"`
	JoinedAt        time.Time `json:"joined_at"`
}

// LedgerEntry is an append-only record of a balance-affecting event.
// A succeeded entry for (UserID, RelatedID, Kind) is the idempotency
// witness that prevents charging the same fee twice.
type LedgerEntry struct {
	EntryID     string       `json:"entry_id"`
	UserID      string       `json:"user_id"`
	AmountCents int64        `json:"amount_cents"` // signed: debits negative, credits positive
	Kind        LedgerKind   `json:"kind"`
	Status      LedgerStatus `json:"status"`
	RelatedID   string       `json:"related_id"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Wallet holds a user's balance in cents. The balance never goes
// negative and is only mutated together with a ledger entry.
type Wallet struct {
	UserID       string `json:"user_id"`
	BalanceCents int64  `json:"balance_cents"`
}

// SweepFailure reports one auction the sweeper could not settle.
type SweepFailure struct {
	AuctionID string `json:"auction_id"`
	Reason    string `json:"reason"`
}

// SweepReport summarizes one sweep invocation.
type SweepReport struct {
	Processed int            `json:"processed"`
	Failures  []SweepFailure `json:"failures"`
}
