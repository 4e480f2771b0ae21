package http

import (
	"time"

	"fintrack/internal/core"
)

// API representations. Monetary fields travel as integer cents; the clients
// own the formatting.

type userJSON struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserJSON(u core.User) userJSON {
	return userJSON{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, CreatedAt: u.CreatedAt}
}

type accountJSON struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	BalanceCents int64     `json:"balance_cents"`
	CreatedAt    time.Time `json:"created_at"`
}

func toAccountJSON(a core.Account) accountJSON {
	return accountJSON{
		ID:           a.ID,
		Name:         a.Name,
		Type:         a.Type,
		BalanceCents: a.Balance.Cents,
		CreatedAt:    a.CreatedAt,
	}
}

type transactionJSON struct {
	ID              string    `json:"id"`
	AmountCents     int64     `json:"amount_cents"`
	Type            string    `json:"type"`
	Category        string    `json:"category"`
	AccountID       string    `json:"account_id"`
	ToAccountID     string    `json:"to_account_id,omitempty"`
	Date            time.Time `json:"date"`
	Description     string    `json:"description,omitempty"`
	ServiceFeeCents int64     `json:"service_fee_cents,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:              t.ID,
		AmountCents:     t.Amount.Cents,
		Type:            string(t.Type),
		Category:        string(t.Category),
		AccountID:       t.AccountID,
		ToAccountID:     t.ToAccountID,
		Date:            t.Date,
		Description:     t.Description,
		ServiceFeeCents: t.ServiceFee.Cents,
		CreatedAt:       t.CreatedAt,
	}
}

func toTransactionListJSON(txns []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionJSON(t))
	}
	return out
}

type budgetStatusJSON struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	LimitCents int64     `json:"limit_cents"`
	SpentCents int64     `json:"spent_cents"`
	Over       bool      `json:"over"`
	CreatedAt  time.Time `json:"created_at"`
}

func toBudgetStatusJSON(b core.BudgetStatus) budgetStatusJSON {
	return budgetStatusJSON{
		ID:         b.ID,
		Category:   string(b.Category),
		LimitCents: b.Limit.Cents,
		SpentCents: b.Spent.Cents,
		Over:       b.Over,
		CreatedAt:  b.CreatedAt,
	}
}

type categoryAmountJSON struct {
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
}

type dayFlowJSON struct {
	Day          int   `json:"day"`
	IncomeCents  int64 `json:"income_cents"`
	ExpenseCents int64 `json:"expense_cents"`
}

type dashboardJSON struct {
	Year          int                  `json:"year"`
	Month         int                  `json:"month"`
	NetWorthCents int64                `json:"net_worth_cents"`
	IncomeCents   int64                `json:"income_cents"`
	ExpenseCents  int64                `json:"expense_cents"`
	ByCategory    []categoryAmountJSON `json:"by_category"`
	Trend         []dayFlowJSON        `json:"trend"`
}

func toDashboardJSON(s core.MonthSummary) dashboardJSON {
	out := dashboardJSON{
		Year:          s.Year,
		Month:         s.Month,
		NetWorthCents: s.NetWorth.Cents,
		IncomeCents:   s.Income.Cents,
		ExpenseCents:  s.Expense.Cents,
		ByCategory:    make([]categoryAmountJSON, 0, len(s.ByCategory)),
		Trend:         make([]dayFlowJSON, 0, len(s.Trend)),
	}
	for _, c := range s.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryAmountJSON{Category: string(c.Category), AmountCents: c.Amount.Cents})
	}
	for _, d := range s.Trend {
		out.Trend = append(out.Trend, dayFlowJSON{Day: d.Day, IncomeCents: d.Income.Cents, ExpenseCents: d.Expense.Cents})
	}
	return out
}

type calendarDayJSON struct {
	Day          int               `json:"day"`
	NetCents     int64             `json:"net_cents"`
	Transactions []transactionJSON `json:"transactions"`
}

func toCalendarJSON(days []core.CalendarDay) []calendarDayJSON {
	out := make([]calendarDayJSON, 0, len(days))
	for _, d := range days {
		out = append(out, calendarDayJSON{
			Day:          d.Day,
			NetCents:     d.Net.Cents,
			Transactions: toTransactionListJSON(d.Transactions),
		})
	}
	return out
}

type categoryJSON struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}
