package session_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "github.com/KinzixInfotech/edutemp-sub018/internal"
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/school"
	sessionPkg "github.com/KinzixInfotech/edutemp-sub018/internal/session"
)

func TestSession(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Session Suite")
}

// In-memory store standing in for Redis
type memoryStore struct {
	sessions map[string]*sessionPkg.Session
	putError error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[string]*sessionPkg.Session)}
}

func (s *memoryStore) Put(_ context.Context, sess *sessionPkg.Session, _ time.Duration) error {
	if s.putError != nil {
		return s.putError
	}
	copied := *sess
	s.sessions[sess.Token] = &copied
	return nil
}

func (s *memoryStore) Get(_ context.Context, token string) (*sessionPkg.Session, error) {
	sess, exists := s.sessions[token]
	if !exists {
		return nil, sessionPkg.ErrNotFound
	}
	copied := *sess
	return &copied, nil
}

func (s *memoryStore) Delete(_ context.Context, token string) error {
	delete(s.sessions, token)
	return nil
}

type mockDirectory struct {
	students map[string]*school.Student
	yearID   string
}

func (d *mockDirectory) GetStudentByAdmission(schoolID, admissionNo string) (*school.Student, error) {
	student, exists := d.students[schoolID+"/"+admissionNo]
	if !exists {
		return nil, gorm.ErrRecordNotFound
	}
	return student, nil
}

func (d *mockDirectory) ActiveAcademicYearID(string) (string, error) {
	return d.yearID, nil
}

var _ = Describe("SessionService", func() {
	var (
		service *sessionPkg.Service
		store   *memoryStore
		dir     *mockDirectory
		ctx     context.Context
	)

	const (
		schoolID    = "sch_001"
		admissionNo = "ADM-1001"
		password    = "secret-pass"
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		Expect(err).ToNot(HaveOccurred())

		store = newMemoryStore()
		dir = &mockDirectory{
			yearID: "ay_2026",
			students: map[string]*school.Student{
				schoolID + "/" + admissionNo: {
					ID:           7,
					SchoolID:     schoolID,
					AdmissionNo:  admissionNo,
					Name:         "Aarav Sharma",
					PasswordHash: string(hash),
					IsActive:     true,
				},
			},
		}

		service = sessionPkg.NewService(store, dir, 8*time.Hour, logger)
	})

	login := func() (*sessionPkg.Session, error) {
		return service.Login(ctx, &sessionPkg.LoginRequest{
			SchoolID:    schoolID,
			AdmissionNo: admissionNo,
			Password:    password,
		})
	}

	Describe("Login", func() {
		Context("with valid credentials", func() {
			It("opens a session with an opaque token", func() {
				sess, err := login()

				Expect(err).ToNot(HaveOccurred())
				Expect(sess.Token).To(HaveLen(64))
				Expect(sess.StudentID).To(Equal(int64(7)))
				Expect(sess.SchoolID).To(Equal(schoolID))
				Expect(sess.AcademicYearID).To(Equal("ay_2026"))
				Expect(sess.ExpiresAt).To(BeTemporally("~", time.Now().Add(8*time.Hour), time.Minute))

				stored, err := store.Get(ctx, sess.Token)
				Expect(err).ToNot(HaveOccurred())
				Expect(stored.StudentID).To(Equal(int64(7)))
			})

			It("issues a distinct token per login", func() {
				first, err := login()
				Expect(err).ToNot(HaveOccurred())
				second, err := login()
				Expect(err).ToNot(HaveOccurred())

				Expect(first.Token).ToNot(Equal(second.Token))
			})
		})

		Context("with a wrong password", func() {
			It("rejects without revealing which field failed", func() {
				_, err := service.Login(ctx, &sessionPkg.LoginRequest{
					SchoolID:    schoolID,
					AdmissionNo: admissionNo,
					Password:    "wrong",
				})

				Expect(err).To(Equal(apperrors.ErrInvalidCredentials))
			})
		})

		Context("with an unknown admission number", func() {
			It("rejects with the same error as a wrong password", func() {
				_, err := service.Login(ctx, &sessionPkg.LoginRequest{
					SchoolID:    schoolID,
					AdmissionNo: "ADM-9999",
					Password:    password,
				})

				Expect(err).To(Equal(apperrors.ErrInvalidCredentials))
			})
		})

		Context("with an inactive student", func() {
			It("rejects the login", func() {
				dir.students[schoolID+"/"+admissionNo].IsActive = false

				_, err := login()

				Expect(err).To(Equal(apperrors.ErrInvalidCredentials))
			})
		})

		Context("with missing fields", func() {
			It("fails validation", func() {
				_, err := service.Login(ctx, &sessionPkg.LoginRequest{SchoolID: schoolID})
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Validate", func() {
		It("returns the session for a live token", func() {
			sess, err := login()
			Expect(err).ToNot(HaveOccurred())

			resolved, err := service.Validate(ctx, sess.Token)

			Expect(err).ToNot(HaveOccurred())
			Expect(resolved.StudentID).To(Equal(sess.StudentID))
		})

		It("treats an unknown token as expired", func() {
			_, err := service.Validate(ctx, "no-such-token")

			Expect(err).To(Equal(apperrors.ErrSessionExpired))
		})

		It("deletes a session past its deadline on read", func() {
			sess, err := login()
			Expect(err).ToNot(HaveOccurred())

			store.sessions[sess.Token].ExpiresAt = time.Now().Add(-time.Minute)

			_, err = service.Validate(ctx, sess.Token)
			Expect(err).To(Equal(apperrors.ErrSessionExpired))

			_, storeErr := store.Get(ctx, sess.Token)
			Expect(storeErr).To(Equal(sessionPkg.ErrNotFound))
		})
	})

	Describe("Logout", func() {
		It("drops the session", func() {
			sess, err := login()
			Expect(err).ToNot(HaveOccurred())

			Expect(service.Logout(ctx, sess.Token)).To(Succeed())

			_, err = service.Validate(ctx, sess.Token)
			Expect(err).To(Equal(apperrors.ErrSessionExpired))
		})

		It("is a no-op for unknown tokens", func() {
			Expect(service.Logout(ctx, "no-such-token")).To(Succeed())
		})
	})
})
