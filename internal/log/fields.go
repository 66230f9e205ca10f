package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"

	FieldUserID      = "user_id"
	FieldAccountID   = "account_id"
	FieldCategoryID  = "category_id"
	FieldBudgetID    = "budget_id"
	FieldLoanID      = "loan_id"
	FieldTxID        = "transaction_id"
	FieldTransferID  = "transfer_id"
	FieldAmount      = "amount"
	FieldBalance     = "balance"
	FieldCurrency    = "currency"
	FieldRemaining   = "remaining"
	FieldSpent       = "spent"
	FieldCeiling     = "ceiling"
	FieldRecipient   = "recipient"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentLedger    = "ledger"
	ComponentLoans     = "loans"
	ComponentBudgets   = "budgets"
	ComponentAnalytics = "analytics"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentRates     = "rates"
)
