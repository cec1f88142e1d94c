package storage

import (
	"sort"

	"github.com/mmynk/settleup/internal/models"
)

// MergeEntries interleaves expenses and payments into ledger entries by
// recording time. Both inputs must already be in ascending order; entries
// recorded in the same second keep expenses ahead of payments.
func MergeEntries(expenses []*models.Expense, payments []*models.Payment) []models.ExpenseShare {
	type timed struct {
		at    int64
		entry models.ExpenseShare
	}
	all := make([]timed, 0, len(expenses)+len(payments))
	for _, e := range expenses {
		all = append(all, timed{e.CreatedAt, e.Entry()})
	}
	for _, p := range payments {
		all = append(all, timed{p.SettledAt, p.Entry()})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].at < all[j].at })

	entries := make([]models.ExpenseShare, len(all))
	for i, t := range all {
		entries[i] = t.entry
	}
	return entries
}
