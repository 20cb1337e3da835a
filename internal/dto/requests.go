package dto

// RegisterStudentRequest represents the request to register a student account
type RegisterStudentRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	StudentID string `json:"student_id" binding:"required"`
	Campus    string `json:"campus" binding:"required"`
	Phone     string `json:"phone"`
	Dormitory string `json:"dormitory"`
}

// RegisterCollectorRequest represents the request to register a collector account
type RegisterCollectorRequest struct {
	Username      string `json:"username" binding:"required"`
	Password      string `json:"password" binding:"required"`
	CollectorID   string `json:"collector_id" binding:"required"`
	RealName      string `json:"real_name" binding:"required"`
	Phone         string `json:"phone" binding:"required"`
	Campus        string `json:"campus"`
	PaymentMethod string `json:"payment_method"`
}

// LoginRequest represents the login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the token refresh request
type RefreshRequest struct {
	Token string `json:"token" binding:"required"`
}

// AddSealedBookRequest represents the request to list a sealed book for sale
type AddSealedBookRequest struct {
	Campus string  `json:"campus" binding:"required"`
	Weight float64 `json:"weight" binding:"required"`
}

// CreateOrderRequest represents the request to create a collect order;
// the payee and campus are derived from the listed book, not the request
type CreateOrderRequest struct {
	SealedBookID string `json:"sealed_book_id" binding:"required,uuid"`
}

// CompleteOrderRequest represents the collector's weighing results
type CompleteOrderRequest struct {
	ActualWeight float64 `json:"actual_weight" binding:"required"`
	PricePerKg   float64 `json:"price_per_kg"`
}

// SubmitReportRequest represents the request to report a listing
type SubmitReportRequest struct {
	ReportedID string `json:"reported_id" binding:"required"`
	BookID     string `json:"book_id" binding:"required,uuid"`
	BookType   string `json:"book_type" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

// HandleReportRequest represents an admin verdict on a report
type HandleReportRequest struct {
	Result       string `json:"result" binding:"required"`
	Opinion      string `json:"opinion"`
	DeductCredit bool   `json:"deduct_credit"`
	DiffScore    int    `json:"diff_score"`
}

// BatchHandleReportsRequest represents a batch verdict on several reports
type BatchHandleReportsRequest struct {
	ReportIDs    []string `json:"report_ids" binding:"required"`
	Result       string   `json:"result" binding:"required"`
	Opinion      string   `json:"opinion"`
	DeductCredit bool     `json:"deduct_credit"`
}

// RevertReportRequest represents the request to revert a processed report
type RevertReportRequest struct {
	Opinion string `json:"opinion"`
}

// AdjustReputationRequest represents a manual reputation adjustment
type AdjustReputationRequest struct {
	Points int    `json:"points" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// UpdateStudentProfileRequest represents a student profile update;
// empty fields keep their current values
type UpdateStudentProfileRequest struct {
	Phone         string `json:"phone"`
	Campus        string `json:"campus"`
	Dormitory     string `json:"dormitory"`
	PaymentMethod string `json:"payment_method"`
}

// UpdateCollectorContactRequest represents a collector contact update;
// empty fields keep their current values
type UpdateCollectorContactRequest struct {
	Phone         string `json:"phone"`
	Campus        string `json:"campus"`
	PaymentMethod string `json:"payment_method"`
}
