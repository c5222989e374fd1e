package e2e_test

import (
	"context"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mountebank-client/models"
)

var _ = Describe("Key-value JSON imposter", Ordered, func() {
	const imposterPort = 4545
	ctx := context.Background()

	BeforeAll(func() {
		_ = testFramework.Client.DeleteImposter(ctx, imposterPort)

		imp, err := models.NewHTTPImposter(imposterPort)
		Expect(err).NotTo(HaveOccurred())
		imp.Name = "key-value-json"
		imp.RecordRequests = true
		imp.AddStub().
			On(models.Equals(models.Path("/store"), models.Method(http.MethodPost))).
			On(models.Equals(models.Body("testKey")).WithJSONPath("$.key")).
			ReturnsJSON(http.StatusOK, map[string]any{"message": "Stored successfully", "key": "testKey", "value": "testValue"})
		imp.AddStub().
			OnPathAndMethodEqual("/retrieve", http.MethodGet).
			On(models.Equals(models.Query("key", "anotherKey"))).
			ReturnsJSON(http.StatusOK, map[string]any{"key": "anotherKey", "value": "anotherValue"})
		imp.AddStub().
			OnPathEquals("/retrieve").
			ReturnsJSON(http.StatusNotFound, map[string]any{"error": "Key not found"})

		Expect(testFramework.Client.Submit(ctx, imp)).To(Succeed())
		DeferCleanup(func() {
			Expect(testFramework.Client.DeleteImposter(ctx, imposterPort)).To(Succeed())
		})
	})

	It("stores a key-value pair", func() {
		resp, err := sendJSONRequest(http.MethodPost, imposterURL(imposterPort, "/store"), `{"key": "testKey", "value": "testValue"}`)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(body).To(MatchJSON(`{"message":"Stored successfully","key":"testKey","value":"testValue"}`))
	})

	It("retrieves a stored value", func() {
		resp, err := sendJSONRequest(http.MethodGet, imposterURL(imposterPort, "/retrieve?key=anotherKey"), "")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(body).To(MatchJSON(`{"key":"anotherKey","value":"anotherValue"}`))
	})

	It("returns 404 for an unknown key", func() {
		resp, err := sendJSONRequest(http.MethodGet, imposterURL(imposterPort, "/retrieve?key=nonExistentKey"), "")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("records the stored key", func() {
		snapshot, err := testFramework.Client.GetHTTPImposter(ctx, imposterPort)
		Expect(err).NotTo(HaveOccurred())
		Expect(snapshot.NumberOfRequests).To(BeNumerically(">=", 3))

		stores := snapshot.Filter(func(r models.HTTPRequest) bool { return r.Path == "/store" })
		Expect(stores).NotTo(BeEmpty())
		Expect(stores[0].JSONBody("key").String()).To(Equal("testKey"))

		Expect(testFramework.Client.DeleteSavedRequests(ctx, imposterPort)).To(Succeed())
		snapshot, err = testFramework.Client.GetHTTPImposter(ctx, imposterPort)
		Expect(err).NotTo(HaveOccurred())
		Expect(snapshot.Requests).To(BeEmpty())
	})
})
