package swagger_test

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestOpenAPISpec(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "OpenAPI Spec Suite")
}

var _ = Describe("OpenAPI document", func() {
	var doc *openapi3.T

	BeforeEach(func() {
		loader := openapi3.NewLoader()
		var err error
		doc, err = loader.LoadFromFile("../../../api/openapi.yml")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should be a valid OpenAPI 3 document", func() {
		Expect(doc.Validate(context.Background())).To(Succeed())
	})

	It("should document every route the server registers", func() {
		for _, path := range []string{
			"/api/users/signup",
			"/api/users/login",
			"/api/users/logout",
			"/api/users/profile",
			"/api/users/password",
			"/api/users/",
			"/api/internships/",
			"/api/internships/my-internships",
			"/api/internships/my-applications",
			"/api/internships/{id}",
			"/api/internships/{id}/apply",
			"/api/internships/{id}/applications",
			"/api/internships/{id}/application-status",
			"/api/geocode",
			"/api/geocode/reverse",
			"/api/geocode/search",
			"/api/health",
			"/api/ping",
		} {
			Expect(doc.Paths.Find(path)).NotTo(BeNil(), "missing path %s", path)
		}
	})
})
