package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

// hours renders an amount with the ledger's two decimal places.
func hours(d decimal.Decimal) string {
	return d.StringFixed(domain.MaxHoursPrecision)
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Balance     string    `json:"balance"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		Balance:     hours(a.Balance),
		Active:      a.Active,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Count    int                `json:"count"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// ListingResponse represents a listing in API responses.
type ListingResponse struct {
	ID            string    `json:"id"`
	CreatorID     string    `json:"creator_id"`
	Kind          string    `json:"kind"`
	Title         string    `json:"title"`
	Capacity      int       `json:"capacity"`
	AcceptedCount int       `json:"accepted_count"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListingFromDomain converts domain listing to response.
func ListingFromDomain(l *domain.Listing) *ListingResponse {
	return &ListingResponse{
		ID:            l.ID,
		CreatorID:     l.CreatorID,
		Kind:          string(l.Kind),
		Title:         l.Title,
		Capacity:      l.Capacity,
		AcceptedCount: l.AcceptedCount,
		Status:        string(l.Status),
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

// ParticipationResponse represents a participation in API responses.
type ParticipationResponse struct {
	ID                 string    `json:"id"`
	ListingID          string    `json:"listing_id"`
	HelperID           string    `json:"helper_id"`
	CreatorID          string    `json:"creator_id"`
	ProviderID         string    `json:"provider_id"`
	RequesterID        string    `json:"requester_id"`
	Role               string    `json:"role"`
	Status             string    `json:"status"`
	Hours              string    `json:"hours"`
	ProviderConfirmed  bool      `json:"provider_confirmed"`
	RequesterConfirmed bool      `json:"requester_confirmed"`
	Message            string    `json:"message,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ParticipationFromDomain converts domain participation to response.
func ParticipationFromDomain(p *domain.Participation) *ParticipationResponse {
	return &ParticipationResponse{
		ID:                 p.ID,
		ListingID:          p.ListingID,
		HelperID:           p.HelperID,
		CreatorID:          p.CreatorID,
		ProviderID:         p.ProviderID(),
		RequesterID:        p.RequesterID(),
		Role:               string(p.Role),
		Status:             string(p.Status),
		Hours:              hours(p.Hours),
		ProviderConfirmed:  p.ProviderConfirmed,
		RequesterConfirmed: p.RequesterConfirmed,
		Message:            p.Message,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// ParticipationsFromDomain converts domain participations to responses.
func ParticipationsFromDomain(ps []*domain.Participation) []*ParticipationResponse {
	result := make([]*ParticipationResponse, len(ps))
	for i, p := range ps {
		result[i] = ParticipationFromDomain(p)
	}
	return result
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID              int64     `json:"id"`
	AccountID       string    `json:"account_id"`
	Type            string    `json:"type"`
	Description     string    `json:"description"`
	Debit           string    `json:"debit"`
	Credit          string    `json:"credit"`
	RunningBalance  string    `json:"running_balance"`
	ParticipationID *string   `json:"participation_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	return &EntryResponse{
		ID:              e.ID,
		AccountID:       e.AccountID,
		Type:            string(e.Type),
		Description:     e.Description,
		Debit:           hours(e.Debit),
		Credit:          hours(e.Credit),
		RunningBalance:  hours(e.RunningBalance),
		ParticipationID: e.ParticipationID,
		CreatedAt:       e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// HistoryResponse represents one page of an account's ledger.
type HistoryResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// HistoryFromUseCase converts a history page to response.
func HistoryFromUseCase(p *usecase.HistoryPage) *HistoryResponse {
	return &HistoryResponse{
		Entries: EntriesFromDomain(p.Entries),
		Total:   p.Total,
		Limit:   p.Limit,
		Offset:  p.Offset,
	}
}

// TransferResponse represents a settlement transfer in API responses.
type TransferResponse struct {
	ID              string    `json:"id"`
	SenderID        string    `json:"sender_id"`
	ReceiverID      string    `json:"receiver_id"`
	ParticipationID string    `json:"participation_id"`
	Amount          string    `json:"amount"`
	Type            string    `json:"type"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// TransferFromDomain converts domain transfer to response.
func TransferFromDomain(t *domain.Transfer) *TransferResponse {
	return &TransferResponse{
		ID:              t.ID,
		SenderID:        t.SenderID,
		ReceiverID:      t.ReceiverID,
		ParticipationID: t.ParticipationID,
		Amount:          hours(t.Amount),
		Type:            string(t.Type),
		Notes:           t.Notes,
		CreatedAt:       t.CreatedAt,
	}
}

// TransfersFromDomain converts domain transfers to responses.
func TransfersFromDomain(transfers []*domain.Transfer) []*TransferResponse {
	result := make([]*TransferResponse, len(transfers))
	for i, t := range transfers {
		result[i] = TransferFromDomain(t)
	}
	return result
}

// SpendDecisionResponse represents a reciprocity check.
type SpendDecisionResponse struct {
	Balance string `json:"balance"`
	Amount  string `json:"amount"`
	Debt    string `json:"debt"`
	Limit   string `json:"limit"`
	Allowed bool   `json:"allowed"`
	Warning bool   `json:"warning"`
	Message string `json:"message,omitempty"`
}

// SpendDecisionFromDomain converts a guard decision to response.
func SpendDecisionFromDomain(d domain.SpendDecision) *SpendDecisionResponse {
	return &SpendDecisionResponse{
		Balance: hours(d.Balance),
		Amount:  hours(d.Amount),
		Debt:    hours(d.Debt),
		Limit:   hours(d.Limit),
		Allowed: d.Allowed,
		Warning: d.Warning,
		Message: d.Message,
	}
}

// IntegrityResponse represents an integrity check.
type IntegrityResponse struct {
	AccountID       string    `json:"account_id"`
	CachedBalance   string    `json:"cached_balance"`
	ComputedBalance string    `json:"computed_balance"`
	Difference      string    `json:"difference"`
	TotalCredits    string    `json:"total_credits"`
	TotalDebits     string    `json:"total_debits"`
	OK              bool      `json:"ok"`
	CheckedAt       time.Time `json:"checked_at"`
}

// IntegrityFromUseCase converts an integrity report to response.
func IntegrityFromUseCase(r *usecase.IntegrityReport) *IntegrityResponse {
	return &IntegrityResponse{
		AccountID:       r.AccountID,
		CachedBalance:   hours(r.CachedBalance),
		ComputedBalance: hours(r.ComputedBalance),
		Difference:      hours(r.Difference),
		TotalCredits:    hours(r.TotalCredits),
		TotalDebits:     hours(r.TotalDebits),
		OK:              r.OK,
		CheckedAt:       r.CheckedAt,
	}
}

// ReconciliationResponse represents a ledger-wide reconciliation.
type ReconciliationResponse struct {
	OK                 bool                 `json:"ok"`
	LedgerConsistent   bool                 `json:"ledger_consistent"`
	TotalAccounts      int                  `json:"total_accounts"`
	ReconciledAccounts int                  `json:"reconciled_accounts"`
	ExchangeCredits    string               `json:"exchange_credits"`
	ExchangeDebits     string               `json:"exchange_debits"`
	Discrepancies      []*IntegrityResponse `json:"discrepancies"`
	CheckedAt          time.Time            `json:"checked_at"`
}

// ReconciliationFromUseCase converts a reconciliation report to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationReport) *ReconciliationResponse {
	discrepancies := make([]*IntegrityResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = IntegrityFromUseCase(d)
	}

	return &ReconciliationResponse{
		OK:                 r.OK(),
		LedgerConsistent:   r.LedgerConsistent,
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		ExchangeCredits:    hours(r.ExchangeCredits),
		ExchangeDebits:     hours(r.ExchangeDebits),
		Discrepancies:      discrepancies,
		CheckedAt:          r.CheckedAt,
	}
}

// SettlementResponse describes the ledger side of a completed exchange.
type SettlementResponse struct {
	TransferID       string `json:"transfer_id"`
	ProviderID       string `json:"provider_id"`
	RequesterID      string `json:"requester_id"`
	Hours            string `json:"hours"`
	ProviderBalance  string `json:"provider_balance"`
	RequesterBalance string `json:"requester_balance"`
	Warning          string `json:"warning,omitempty"`
}

// ConfirmResponse is returned by every completion vote.
type ConfirmResponse struct {
	Status        string                 `json:"status"`
	Participation *ParticipationResponse `json:"participation"`
	Settlement    *SettlementResponse    `json:"settlement,omitempty"`
}

// ConfirmFromUseCase converts a settlement outcome to response.
func ConfirmFromUseCase(o *usecase.SettlementOutcome) *ConfirmResponse {
	resp := &ConfirmResponse{
		Status:        string(o.Status),
		Participation: ParticipationFromDomain(o.Participation),
	}

	if s := o.Settlement; s != nil {
		resp.Settlement = &SettlementResponse{
			TransferID:       s.TransferID,
			ProviderID:       s.ProviderID,
			RequesterID:      s.RequesterID,
			Hours:            hours(s.Hours),
			ProviderBalance:  hours(s.ProviderBalance),
			RequesterBalance: hours(s.RequesterBalance),
			Warning:          s.Warning,
		}
	}

	return resp
}

// SettlementDetailResponse is the audit view of a settled participation.
type SettlementDetailResponse struct {
	Participation *ParticipationResponse `json:"participation"`
	Transfer      *TransferResponse      `json:"transfer"`
	Entries       []*EntryResponse       `json:"entries"`
}

// SettlementDetailFromUseCase converts a settlement detail to response.
func SettlementDetailFromUseCase(d *usecase.SettlementDetail) *SettlementDetailResponse {
	resp := &SettlementDetailResponse{
		Participation: ParticipationFromDomain(d.Participation),
		Entries:       EntriesFromDomain(d.Entries),
	}
	if d.Transfer != nil {
		resp.Transfer = TransferFromDomain(d.Transfer)
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error       string                 `json:"error"`
	Message     string                 `json:"message,omitempty"`
	Kind        string                 `json:"kind,omitempty"`
	Reciprocity *SpendDecisionResponse `json:"reciprocity,omitempty"`
}
