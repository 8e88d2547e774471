package events

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Journal appends notifications to the engine_events table so callers can
// poll an audit trail. Insert failures are logged, never surfaced: the
// mutation the event reports has already committed.
type Journal struct {
	db *pgxpool.Pool
}

func NewJournal(db *pgxpool.Pool) *Journal {
	return &Journal{db: db}
}

func (j *Journal) insert(kind, account, counterparty string, amount int64, index int) {
	_, err := j.db.Exec(context.Background(),
		"INSERT INTO engine_events (kind, account, counterparty, amount, stake_index) VALUES ($1, $2, $3, $4, $5)",
		kind, account, counterparty, amount, index,
	)
	if err != nil {
		log.Printf("event journal insert failed: %v", err)
	}
}

func (j *Journal) StakeAdded(account, packageName string, amount int64, index int) {
	j.insert("stake_added", account, packageName, amount, index)
}

func (j *Journal) StakeWithdrawn(account string, index int, paid int64) {
	j.insert("stake_withdrawn", account, "", paid, index)
}

func (j *Journal) Released(beneficiary string, amount int64) {
	j.insert("vesting_released", beneficiary, "", amount, 0)
}

func (j *Journal) Revoked(owner, refundTo string, refunded int64) {
	j.insert("vesting_revoked", owner, refundTo, refunded, 0)
}
