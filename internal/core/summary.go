package core

import (
	"sort"
	"time"
)

// CategoryAmount is an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// DayFlow holds the income and expense totals of one day of the month.
type DayFlow struct {
	Day     int
	Income  Money
	Expense Money
}

// MonthSummary is the dashboard aggregate for one year+month: net worth
// across all accounts, monthly income/expense totals, expense breakdown by
// category and the daily flow trend.
type MonthSummary struct {
	Year      int
	Month     int // 1-12
	NetWorth  Money
	Income    Money
	Expense   Money
	ByCategory []CategoryAmount
	Trend      []DayFlow
}

// BudgetStatus pairs a budget with its derived spent amount. Spent is never
// stored; it is recomputed from transactions on every read.
type BudgetStatus struct {
	Budget
	Spent Money
	Over  bool
}

// CalendarDay groups the transactions of one day with the day's net flow.
// Transfers move money between own accounts, so they do not affect the net.
type CalendarDay struct {
	Day          int
	Net          Money
	Transactions []Transaction
}

func inMonth(t time.Time, year, month int) bool {
	return t.Year() == year && int(t.Month()) == month
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Summarize derives the dashboard aggregate from account states and the
// transaction history. It is a pure function of its inputs: recomputing with
// no intervening writes yields the same value.
func Summarize(accounts []Account, txns []Transaction, year, month int) MonthSummary {
	s := MonthSummary{
		Year:  year,
		Month: month,
		Trend: make([]DayFlow, daysIn(year, month)),
	}
	for i := range s.Trend {
		s.Trend[i].Day = i + 1
	}
	for _, a := range accounts {
		s.NetWorth = s.NetWorth.Add(a.Balance)
	}

	byCategory := make(map[Category]int64)
	for _, t := range txns {
		if !inMonth(t.Date, year, month) {
			continue
		}
		day := t.Date.Day()
		switch t.Type {
		case Income:
			s.Income = s.Income.Add(t.Amount)
			s.Trend[day-1].Income = s.Trend[day-1].Income.Add(t.Amount)
		case Expense:
			s.Expense = s.Expense.Add(t.Amount)
			s.Trend[day-1].Expense = s.Trend[day-1].Expense.Add(t.Amount)
			byCategory[t.Category] += t.Amount.Cents
		}
	}

	for cat, cents := range byCategory {
		s.ByCategory = append(s.ByCategory, CategoryAmount{Category: cat, Amount: Money{Cents: cents}})
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		if s.ByCategory[i].Amount.Cents != s.ByCategory[j].Amount.Cents {
			return s.ByCategory[i].Amount.Cents > s.ByCategory[j].Amount.Cents
		}
		return s.ByCategory[i].Category < s.ByCategory[j].Category
	})

	return s
}

// EvaluateBudget derives the spent amount for one budget: the sum of the
// given month's expense transactions matching the budget's category.
func EvaluateBudget(b Budget, txns []Transaction, year, month int) BudgetStatus {
	status := BudgetStatus{Budget: b}
	for _, t := range txns {
		if t.Type != Expense || t.Category != b.Category || !inMonth(t.Date, year, month) {
			continue
		}
		status.Spent = status.Spent.Add(t.Amount)
	}
	status.Over = status.Spent.Cents > b.Limit.Cents
	return status
}

// CalendarMonth buckets a month's transactions by day. Every day of the
// month appears, including empty ones, so the caller can lay out a grid.
func CalendarMonth(txns []Transaction, year, month int) []CalendarDay {
	days := make([]CalendarDay, daysIn(year, month))
	for i := range days {
		days[i].Day = i + 1
	}
	for _, t := range txns {
		if !inMonth(t.Date, year, month) {
			continue
		}
		d := &days[t.Date.Day()-1]
		d.Transactions = append(d.Transactions, t)
		switch t.Type {
		case Income:
			d.Net = d.Net.Add(t.Amount)
		case Expense:
			d.Net = d.Net.Sub(t.Amount)
		}
	}
	return days
}
