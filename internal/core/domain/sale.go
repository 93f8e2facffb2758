package domain

import "time"

// SaleRecord is one row of append-only sale history. CommitID groups every
// record written by the same checkout transaction.
type SaleRecord struct {
	ID        string
	CommitID  string
	Seq       int
	ItemName  string
	Quantity  int
	UnitPrice int
	SoldAt    time.Time
}

// ReceiptLine mirrors a cart line priced at commit time.
type ReceiptLine struct {
	Seq       int
	ItemName  string
	Quantity  int
	UnitPrice int
	Subtotal  int
}

// CommitResult is the receipt of one committed checkout. SoldAt is shared by
// every sale record in the commit.
type CommitResult struct {
	CommitID string
	Total    int
	SoldAt   time.Time
	Lines    []ReceiptLine
}
