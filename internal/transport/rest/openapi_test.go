package rest_test

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Rest Suite")
}

var _ = Describe("OpenAPI contract", func() {
	var doc *openapi3.T

	BeforeEach(func() {
		loader := openapi3.NewLoader()
		var err error
		doc, err = loader.LoadFromFile("../../../api/openapi.yml")
		Expect(err).ToNot(HaveOccurred())
	})

	It("is a valid OpenAPI 3 document", func() {
		Expect(doc.Validate(context.Background())).To(Succeed())
	})

	It("documents every mounted route group", func() {
		for _, path := range []string{
			"/health",
			"/ping",
			"/portal/login",
			"/portal/session",
			"/portal/fees",
			"/portal/fees/{feeID}/payments",
			"/portal/payments",
			"/portal/payments/{orderID}",
			"/payment/callback/{provider}",
			"/auth/login",
			"/auth/refresh",
			"/auth/logout",
			"/schools/payment-settings",
			"/schools/payment-settings/verify",
		} {
			Expect(doc.Paths.Find(path)).ToNot(BeNil(), "missing path %s", path)
		}
	})

	It("secures the portal fee routes with the bearer scheme", func() {
		item := doc.Paths.Find("/portal/fees")
		Expect(item).ToNot(BeNil())
		Expect(item.Get.Security).ToNot(BeNil())
		Expect(*item.Get.Security).To(HaveLen(1))
		Expect(*item.Get.Security).To(ContainElement(HaveKey("bearerAuth")))
	})
})
