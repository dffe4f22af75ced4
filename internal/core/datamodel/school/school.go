package school

import "time"

// Student is the subset of the student record the payment portal needs.
type Student struct {
	ID             int64     `gorm:"primaryKey"`
	SchoolID       string    `gorm:"column:school_id;not null;index:idx_students_school_admission,unique"`
	AdmissionNo    string    `gorm:"column:admission_no;not null;index:idx_students_school_admission,unique"`
	Name           string    `gorm:"column:name;not null"`
	ClassName      string    `gorm:"column:class_name"`
	SectionName    string    `gorm:"column:section_name"`
	Email          string    `gorm:"column:email"`
	ContactNumber  string    `gorm:"column:contact_number"`
	PasswordHash   string    `gorm:"column:password_hash;not null"`
	IsActive       bool      `gorm:"column:is_active;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt      time.Time `gorm:"column:updated_at;default:now()"`
}

func (Student) TableName() string {
	return "students"
}

const (
	FeeStatusUnpaid  = "UNPAID"
	FeeStatusPartial = "PARTIAL"
	FeeStatusPaid    = "PAID"
)

// StudentFee is the yearly fee assignment a payment is recorded against.
type StudentFee struct {
	ID             int64     `gorm:"primaryKey"`
	StudentID      int64     `gorm:"column:student_id;not null;index"`
	SchoolID       string    `gorm:"column:school_id;not null;index"`
	AcademicYearID string    `gorm:"column:academic_year_id;not null"`
	StructureName  string    `gorm:"column:structure_name"`
	OriginalAmount float64   `gorm:"column:original_amount;not null"`
	DiscountAmount float64   `gorm:"column:discount_amount;default:0"`
	FinalAmount    float64   `gorm:"column:final_amount;not null"`
	PaidAmount     float64   `gorm:"column:paid_amount;default:0"`
	BalanceAmount  float64   `gorm:"column:balance_amount;not null"`
	Status         string    `gorm:"column:status;default:UNPAID"`
	CreatedAt      time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt      time.Time `gorm:"column:updated_at;default:now()"`
}

func (StudentFee) TableName() string {
	return "student_fees"
}

// AcademicYear scopes fee assignments. One row per school is active at
// a time; logins and fee listings resolve against it.
type AcademicYear struct {
	ID        string    `gorm:"primaryKey"`
	SchoolID  string    `gorm:"column:school_id;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	IsActive  bool      `gorm:"column:is_active;default:false"`
	StartsOn  time.Time `gorm:"column:starts_on"`
	EndsOn    time.Time `gorm:"column:ends_on"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()"`
}

func (AcademicYear) TableName() string {
	return "academic_years"
}
