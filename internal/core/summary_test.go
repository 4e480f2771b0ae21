package core

import (
	"reflect"
	"testing"
	"time"
)

func txn(typ TransactionType, cat Category, cents int64, date time.Time) Transaction {
	return Transaction{
		Amount:   Money{Cents: cents},
		Type:     typ,
		Category: cat,
		Date:     date,
	}
}

func TestSummarize(t *testing.T) {
	accounts := []Account{
		{Name: "Checking", Balance: Money{Cents: 100000}},
		{Name: "Savings", Balance: Money{Cents: 50000}},
	}
	aug := func(day int) time.Time { return time.Date(2026, 8, day, 12, 0, 0, 0, time.UTC) }
	txns := []Transaction{
		txn(Income, CategorySalary, 300000, aug(1)),
		txn(Expense, CategoryFood, 20000, aug(3)),
		txn(Expense, CategoryFood, 90000, aug(20)),
		txn(Expense, CategoryTransport, 5000, aug(3)),
		txn(Transfer, CategoryTransfer, 40000, aug(5)),
		// Different month, must be ignored.
		txn(Expense, CategoryFood, 777, time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)),
	}

	s := Summarize(accounts, txns, 2026, 8)

	if s.NetWorth.Cents != 150000 {
		t.Fatalf("net worth: got %d", s.NetWorth.Cents)
	}
	if s.Income.Cents != 300000 {
		t.Fatalf("income: got %d", s.Income.Cents)
	}
	if s.Expense.Cents != 115000 {
		t.Fatalf("expense: got %d", s.Expense.Cents)
	}
	if len(s.Trend) != 31 {
		t.Fatalf("august has 31 days, got %d", len(s.Trend))
	}
	if s.Trend[2].Expense.Cents != 25000 {
		t.Fatalf("day 3 expense: got %d", s.Trend[2].Expense.Cents)
	}
	if s.Trend[0].Income.Cents != 300000 {
		t.Fatalf("day 1 income: got %d", s.Trend[0].Income.Cents)
	}

	// Transfers never show up in the expense breakdown.
	want := []CategoryAmount{
		{Category: CategoryFood, Amount: Money{Cents: 110000}},
		{Category: CategoryTransport, Amount: Money{Cents: 5000}},
	}
	if !reflect.DeepEqual(s.ByCategory, want) {
		t.Fatalf("by category: got %+v, want %+v", s.ByCategory, want)
	}
}

func TestSummarizeIsPure(t *testing.T) {
	txns := []Transaction{
		txn(Expense, CategoryFood, 20000, time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)),
	}
	first := Summarize(nil, txns, 2026, 8)
	second := Summarize(nil, txns, 2026, 8)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("recomputing with no writes must yield the same summary")
	}
}

func TestEvaluateBudget(t *testing.T) {
	b := Budget{Category: CategoryFood, Limit: Money{Cents: 100000}}
	aug := func(day int) time.Time { return time.Date(2026, 8, day, 0, 0, 0, 0, time.UTC) }
	txns := []Transaction{
		txn(Expense, CategoryFood, 20000, aug(2)),
		txn(Expense, CategoryFood, 90000, aug(15)),
		txn(Expense, CategoryTransport, 5000, aug(2)),                                 // other category
		txn(Income, CategoryFood, 5000, aug(2)),                                       // not an expense
		txn(Expense, CategoryFood, 5000, time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC)), // other month
	}

	status := EvaluateBudget(b, txns, 2026, 8)
	if status.Spent.Cents != 110000 {
		t.Fatalf("spent: got %d, want 110000", status.Spent.Cents)
	}
	if !status.Over {
		t.Fatalf("expected over-budget flag")
	}

	// Derivation is idempotent.
	again := EvaluateBudget(b, txns, 2026, 8)
	if again.Spent != status.Spent {
		t.Fatalf("spent derivation must be stable: %d vs %d", again.Spent.Cents, status.Spent.Cents)
	}

	under := EvaluateBudget(Budget{Category: CategoryTransport, Limit: Money{Cents: 10000}}, txns, 2026, 8)
	if under.Spent.Cents != 5000 || under.Over {
		t.Fatalf("transport: got spent=%d over=%v", under.Spent.Cents, under.Over)
	}
}

func TestCalendarMonth(t *testing.T) {
	aug := func(day int) time.Time { return time.Date(2026, 8, day, 9, 30, 0, 0, time.UTC) }
	txns := []Transaction{
		txn(Income, CategorySalary, 100000, aug(1)),
		txn(Expense, CategoryFood, 30000, aug(1)),
		txn(Transfer, CategoryTransfer, 50000, aug(1)), // transfers do not move the net
		txn(Expense, CategoryFood, 1500, aug(28)),
	}

	days := CalendarMonth(txns, 2026, 8)
	if len(days) != 31 {
		t.Fatalf("expected 31 days, got %d", len(days))
	}
	if days[0].Net.Cents != 70000 {
		t.Fatalf("day 1 net: got %d, want 70000", days[0].Net.Cents)
	}
	if len(days[0].Transactions) != 3 {
		t.Fatalf("day 1 transactions: got %d", len(days[0].Transactions))
	}
	if days[27].Net.Cents != -1500 {
		t.Fatalf("day 28 net: got %d", days[27].Net.Cents)
	}
	if len(days[14].Transactions) != 0 {
		t.Fatalf("empty day should have no transactions")
	}
}
