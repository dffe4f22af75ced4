package session

import (
	"time"

	"github.com/KinzixInfotech/edutemp-sub018/internal/core/common/validation"
)

// LoginRequest is the payer portal login payload. Students authenticate
// with their school code and admission number, not an email.
type LoginRequest struct {
	SchoolID    string `json:"school_id"`
	AdmissionNo string `json:"admission_no"`
	Password    string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	validator := validation.NewValidator()
	validator.Field("school_id", r.SchoolID).Required()
	validator.Field("admission_no", r.AdmissionNo).Required()
	validator.Field("password", r.Password).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// LoginResponse returns the opaque session token plus enough student
// context for the portal shell.
type LoginResponse struct {
	Token       string    `json:"token"`
	StudentID   int64     `json:"student_id"`
	StudentName string    `json:"student_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SessionView is the read shape for GET session checks.
type SessionView struct {
	StudentID      int64     `json:"student_id"`
	SchoolID       string    `json:"school_id"`
	AcademicYearID string    `json:"academic_year_id"`
	StudentName    string    `json:"student_name"`
	ExpiresAt      time.Time `json:"expires_at"`
}

func ToView(s *Session) *SessionView {
	if s == nil {
		return nil
	}
	return &SessionView{
		StudentID:      s.StudentID,
		SchoolID:       s.SchoolID,
		AcademicYearID: s.AcademicYearID,
		StudentName:    s.StudentName,
		ExpiresAt:      s.ExpiresAt,
	}
}
