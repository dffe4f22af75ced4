package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "github.com/KinzixInfotech/edutemp-sub018/internal"
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/school"
)

// StudentDirectory resolves payer identities at login time.
type StudentDirectory interface {
	GetStudentByAdmission(schoolID, admissionNo string) (*school.Student, error)
	ActiveAcademicYearID(schoolID string) (string, error)
}

type ServiceAPI interface {
	Login(ctx context.Context, req *LoginRequest) (*Session, error)
	Validate(ctx context.Context, token string) (*Session, error)
	Logout(ctx context.Context, token string) error
}

type Service struct {
	store    Store
	students StudentDirectory
	ttl      time.Duration
	logger   *slog.Logger
}

func NewService(store Store, students StudentDirectory, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		students: students,
		ttl:      ttl,
		logger:   logger,
	}
}

// Login authenticates a student against the school roster and opens a
// portal session. The token is opaque; everything the portal needs is
// stored server side.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	student, err := s.students.GetStudentByAdmission(req.SchoolID, req.AdmissionNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.NewInternalError("failed to look up student", err)
	}
	if !student.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	yearID, err := s.students.ActiveAcademicYearID(req.SchoolID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to resolve academic year", err)
	}

	token, err := generateToken()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to generate session token", err)
	}

	now := time.Now()
	sess := &Session{
		Token:          token,
		StudentID:      student.ID,
		SchoolID:       student.SchoolID,
		AcademicYearID: yearID,
		StudentName:    student.Name,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.ttl),
	}

	if err := s.store.Put(ctx, sess, s.ttl); err != nil {
		return nil, apperrors.NewInternalError("failed to persist session", err)
	}

	s.logger.Info("payer session opened",
		"school_id", sess.SchoolID,
		"student_id", sess.StudentID,
		"expires_at", sess.ExpiresAt)

	return sess, nil
}

// Validate resolves a token into its session. A session past its
// deadline is deleted on read and treated as expired.
func (s *Service) Validate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, apperrors.ErrSessionExpired
	}

	sess, err := s.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.ErrSessionExpired
		}
		return nil, apperrors.NewInternalError("failed to load session", err)
	}

	if sess.Expired(time.Now()) {
		if delErr := s.store.Delete(ctx, token); delErr != nil {
			s.logger.Warn("failed to delete expired session", "error", delErr)
		}
		return nil, apperrors.ErrSessionExpired
	}

	return sess, nil
}

// Logout drops the session. Unknown tokens are a no-op so logout is
// idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.Delete(ctx, token); err != nil && !errors.Is(err, ErrNotFound) {
		return apperrors.NewInternalError("failed to delete session", err)
	}
	return nil
}

// generateToken returns a cryptographically random 64-character hex token.
func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
