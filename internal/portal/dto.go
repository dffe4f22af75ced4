package portal

import (
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/school"
)

// FeeView is the payer-facing shape of one fee assignment.
type FeeView struct {
	ID             int64   `json:"id"`
	StructureName  string  `json:"structure_name"`
	OriginalAmount float64 `json:"original_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalAmount    float64 `json:"final_amount"`
	PaidAmount     float64 `json:"paid_amount"`
	BalanceAmount  float64 `json:"balance_amount"`
	Status         string  `json:"status"`
}

// FeeSummary is the portal dashboard payload: every fee for the active
// academic year plus the running totals.
type FeeSummary struct {
	AcademicYearID string    `json:"academic_year_id"`
	Fees           []FeeView `json:"fees"`
	TotalDue       float64   `json:"total_due"`
	TotalPaid      float64   `json:"total_paid"`
	TotalBalance   float64   `json:"total_balance"`
}

func toFeeView(f *school.StudentFee) FeeView {
	return FeeView{
		ID:             f.ID,
		StructureName:  f.StructureName,
		OriginalAmount: f.OriginalAmount,
		DiscountAmount: f.DiscountAmount,
		FinalAmount:    f.FinalAmount,
		PaidAmount:     f.PaidAmount,
		BalanceAmount:  f.BalanceAmount,
		Status:         f.Status,
	}
}
