package auth_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "github.com/KinzixInfotech/edutemp-sub018/internal"
	authPkg "github.com/KinzixInfotech/edutemp-sub018/internal/auth"
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/user"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

type mockUserRepository struct {
	users map[string]*user.User
}

func (m *mockUserRepository) GetByEmail(email string) (*user.User, error) {
	account, exists := m.users[email]
	if !exists {
		return nil, gorm.ErrRecordNotFound
	}
	return account, nil
}

func (m *mockUserRepository) GetByID(id int64) (*user.User, error) {
	for _, account := range m.users {
		if account.ID == id {
			return account, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

var _ = Describe("AuthService", func() {
	var (
		service *authPkg.Service
		repo    *mockUserRepository
		tokens  *authPkg.JWTTokenGenerator
	)

	const (
		email    = "admin@demo.school"
		password = "admin-pass"
	)

	BeforeEach(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		Expect(err).ToNot(HaveOccurred())

		repo = &mockUserRepository{
			users: map[string]*user.User{
				email: {
					ID:           1,
					SchoolID:     "sch_001",
					Email:        email,
					Name:         "Demo Admin",
					PasswordHash: string(hash),
					IsActive:     true,
				},
			},
		}
		tokens = authPkg.NewJWTTokenGenerator("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
		service = authPkg.NewService(repo, tokens, bcrypt.MinCost)
	})

	Describe("Authenticate", func() {
		It("issues a token pair for valid credentials", func() {
			pair, err := service.Authenticate(authPkg.LoginDTO{Email: email, Password: password})

			Expect(err).ToNot(HaveOccurred())
			Expect(pair.AccessToken).ToNot(BeEmpty())
			Expect(pair.RefreshToken).ToNot(BeEmpty())

			claims, err := service.ValidateAccessToken(pair.AccessToken)
			Expect(err).ToNot(HaveOccurred())
			Expect(claims.UserID).To(Equal("1"))
			Expect(claims.SchoolID).To(Equal("sch_001"))
			Expect(claims.Email).To(Equal(email))
		})

		It("rejects a wrong password", func() {
			_, err := service.Authenticate(authPkg.LoginDTO{Email: email, Password: "wrong"})

			Expect(err).To(Equal(apperrors.ErrInvalidCredentials))
		})

		It("rejects an unknown email with the same error", func() {
			_, err := service.Authenticate(authPkg.LoginDTO{Email: "ghost@demo.school", Password: password})

			Expect(err).To(Equal(apperrors.ErrInvalidCredentials))
		})

		It("rejects a deactivated account", func() {
			repo.users[email].IsActive = false

			_, err := service.Authenticate(authPkg.LoginDTO{Email: email, Password: password})

			Expect(err).To(Equal(apperrors.ErrInvalidCredentials))
		})

		It("fails validation on a missing email", func() {
			_, err := service.Authenticate(authPkg.LoginDTO{Password: password})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("RefreshTokens", func() {
		It("rotates the pair from a valid refresh token", func() {
			pair, err := service.Authenticate(authPkg.LoginDTO{Email: email, Password: password})
			Expect(err).ToNot(HaveOccurred())

			rotated, err := service.RefreshTokens(pair.RefreshToken)

			Expect(err).ToNot(HaveOccurred())
			Expect(rotated.AccessToken).ToNot(BeEmpty())

			claims, err := service.ValidateAccessToken(rotated.AccessToken)
			Expect(err).ToNot(HaveOccurred())
			Expect(claims.SchoolID).To(Equal("sch_001"))
		})

		It("rejects garbage tokens", func() {
			_, err := service.RefreshTokens("not-a-token")

			Expect(err).To(Equal(apperrors.ErrInvalidToken))
		})
	})

	Describe("ValidateToken", func() {
		It("rejects an expired access token", func() {
			expired := authPkg.NewJWTTokenGenerator("access-secret", "refresh-secret", -time.Minute, 7*24*time.Hour)
			token, err := expired.GenerateAccessToken("1", "sch_001", email)
			Expect(err).ToNot(HaveOccurred())

			_, err = tokens.ValidateToken(token)

			Expect(err).To(Equal(apperrors.ErrTokenExpired))
		})

		It("rejects a token signed with a different secret", func() {
			other := authPkg.NewJWTTokenGenerator("other-secret", "other-refresh", 15*time.Minute, 7*24*time.Hour)
			token, err := other.GenerateAccessToken("1", "sch_001", email)
			Expect(err).ToNot(HaveOccurred())

			_, err = tokens.ValidateToken(token)

			Expect(err).To(Equal(apperrors.ErrInvalidToken))
		})
	})

	Describe("GetAdmin", func() {
		It("returns the account view", func() {
			admin, err := service.GetAdmin(1)

			Expect(err).ToNot(HaveOccurred())
			Expect(admin.SchoolID).To(Equal("sch_001"))
			Expect(admin.Name).To(Equal("Demo Admin"))
		})

		It("rejects a deactivated account", func() {
			repo.users[email].IsActive = false

			_, err := service.GetAdmin(1)

			Expect(err).To(Equal(apperrors.ErrInvalidCredentials))
		})
	})
})
