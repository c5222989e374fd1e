package e2e_test

import (
	"context"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "mountebank-client/matchers"
	"mountebank-client/models"
)

var _ = Describe("Hello World SOAP imposter", Ordered, func() {
	const imposterPort = 4547
	ctx := context.Background()

	BeforeAll(func() {
		_ = testFramework.Client.DeleteImposter(ctx, imposterPort)

		imp, err := models.NewHTTPImposter(imposterPort)
		Expect(err).NotTo(HaveOccurred())
		imp.Name = "hello-world-soap"
		imp.RecordRequests = true
		imp.AddStub().
			On(
				models.Equals(models.Path("/soap"), models.Method(http.MethodPost)),
				models.Exists(models.Body(true)).WithXPath("//tem:Name", map[string]string{"tem": temNamespace}),
			).
			Returns(models.Is(models.IsResponse{
				StatusCode: http.StatusOK,
				Headers:    map[string]any{"Content-Type": "text/xml"},
				Body: `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:tem="http://tempuri.org/">` +
					`<soapenv:Body><tem:HelloWorldResponse><tem:Result>Hello from Mountebank!</tem:Result></tem:HelloWorldResponse></soapenv:Body></soapenv:Envelope>`,
			}))
		imp.DefaultResponse = &models.IsResponse{StatusCode: http.StatusBadRequest}

		_, err = testFramework.Client.CreateImposter(ctx, imp)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			Expect(testFramework.Client.DeleteImposter(ctx, imposterPort)).To(Succeed())
		})
	})

	It("answers a HelloWorld request", func() {
		resp, err := sendSOAPRequest(imposterURL(imposterPort, "/soap"), temNamespace+"HelloWorld", generateHelloWorldSOAPRequest("Gopher"))
		Expect(err).NotTo(HaveOccurred(), "Failed to send SOAP request")
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(body).To(ContainXMLElementWithValue("//tem:Result", "Hello from Mountebank!"))
	})

	It("records the request it received", func() {
		snapshot, err := testFramework.Client.GetHTTPImposter(ctx, imposterPort)
		Expect(err).NotTo(HaveOccurred())

		soapCalls := snapshot.Filter(func(r models.HTTPRequest) bool { return r.Path == "/soap" })
		Expect(soapCalls).NotTo(BeEmpty())
		Expect(soapCalls[0]).To(ContainXMLElementWithValue("//tem:Name", "Gopher"))

		name, found, err := soapCalls[0].XMLBody("//tem:Name")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(name).To(Equal("Gopher"))
	})

	It("falls back to the default response", func() {
		resp, err := sendSOAPRequest(imposterURL(imposterPort, "/other"), temNamespace+"HelloWorld", generateHelloWorldSOAPRequest("Gopher"))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})
})
