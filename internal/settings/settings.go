package settings

import (
	settingsmodel "github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/settings"
	"github.com/KinzixInfotech/edutemp-sub018/internal/gateway"
)

// RepositoryAPI is the settings persistence contract.
type RepositoryAPI interface {
	GetBySchoolID(schoolID string) (*settingsmodel.PaymentSettings, error)
	Upsert(s *settingsmodel.PaymentSettings) error
}

// GatewayCredentials maps a stored settings row onto the adapter
// credential set.
func GatewayCredentials(s *settingsmodel.PaymentSettings) gateway.Credentials {
	return gateway.Credentials{
		MerchantID: s.MerchantID,
		AccessCode: s.AccessCode,
		SecretKey:  s.SecretKey,
		WorkingKey: s.WorkingKey,
		TestMode:   s.TestMode,
	}
}

// maskSecret hides all but the last four characters of a stored secret
// for admin-facing reads.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
