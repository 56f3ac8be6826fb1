package domain

// Table is a mongo collection name
type Table string

const (
	TableAccounts          Table = "accounts"
	TableActivityHistories Table = "activity_histories"
)
