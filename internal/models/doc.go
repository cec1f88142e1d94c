// Package models defines the core domain models for settleup.
//
// # Ledger
//
// A group's ledger is the list of money movements recorded against it:
//   - Expense: one member paid for something shared by several members
//   - Payment: one member paid another back (a recorded settlement)
//
// Both are reduced to ExpenseShare entries (payer plus per-participant share)
// before balances are computed, so the calculator only knows one entry shape.
//
// # Derived values
//
// NetBalance and Settlement are recomputed from the ledger on every request and
// are never stored.
//
// # Design Principles
//
//  1. **Exact money**: every amount is money.Amount (integer minor units)
//  2. **IDs, not pointers**: relationships are expressed with ID strings
//  3. **Members are snapshots**: a Member copies name and email when it joins a
//     group and is not edited afterwards
package models
