package model

import "time"

// FeePayment is one entry in a semester's payment history.
type FeePayment struct {
	TransactionID string    `json:"transactionId" bson:"transactionId"`
	Amount        int       `json:"amount" bson:"amount"`
	Date          time.Time `json:"date" bson:"date"`
	Method        string    `json:"method" bson:"method"`
	Notes         string    `json:"notes" bson:"notes"`
}

// FeeSemester is the fee breakdown for one semester.
type FeeSemester struct {
	Semester       int            `json:"semester" bson:"semester"`
	Status         string         `json:"status" bson:"status"`
	DueDate        time.Time      `json:"dueDate" bson:"dueDate"`
	FeeBreakdown   map[string]int `json:"feeBreakdown" bson:"feeBreakdown"`
	TotalAmount    int            `json:"totalAmount" bson:"totalAmount"`
	AmountPaid     int            `json:"amountPaid" bson:"amountPaid"`
	DueAmount      int            `json:"dueAmount" bson:"dueAmount"`
	PaymentHistory []FeePayment   `json:"paymentHistory" bson:"paymentHistory"`
}

// FeeRecord is a student's full fee document.
type FeeRecord struct {
	StudentID        string        `json:"studentId" bson:"_id"`
	OverallDueAmount int           `json:"overallDueAmount" bson:"overallDueAmount"`
	Semesters        []FeeSemester `json:"semesters" bson:"semesters"`
}

// FeeSummary is the aggregated view the assistant answers fee questions from.
type FeeSummary struct {
	TotalFees       int          `json:"totalFees"`
	PaidAmount      int          `json:"paidAmount"`
	OutstandingFees int          `json:"outstandingFees"`
	PaymentHistory  []FeePayment `json:"paymentHistory,omitempty"`
}
