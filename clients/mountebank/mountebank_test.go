package mountebank_test

import (
	"context"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mountebank-client/clients/mountebank"
	"mountebank-client/clients/transport"
	. "mountebank-client/matchers"
	"mountebank-client/models"
	"mountebank-client/services/providers/fakemb"
)

var _ = Describe("Client against the admin API", func() {
	var (
		server *fakemb.Server
		client *mountebank.Client
		ctx    context.Context
	)

	BeforeEach(func() {
		server = fakemb.NewServer()
		DeferCleanup(server.Close)
		client = mountebank.New(transport.NewHTTPTransport(server.URL))
		ctx = context.Background()
	})

	newTestImposter := func() *models.Imposter {
		imp, err := models.NewHTTPImposter(4545)
		Expect(err).NotTo(HaveOccurred())
		imp.Name = "users"
		imp.AddStub().OnPathEquals("/test").ReturnsBody(http.StatusOK, "hello")
		return imp
	}

	Context("creating imposters", func() {
		It("creates an imposter and retrieves it by port", func() {
			created, err := client.CreateImposter(ctx, newTestImposter())
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Port).To(Equal(4545))

			snapshot, err := client.GetHTTPImposter(ctx, 4545)
			Expect(err).NotTo(HaveOccurred())
			Expect(snapshot.Port).To(Equal(4545))
			Expect(snapshot.Protocol).To(Equal(models.ProtocolHTTP))
			Expect(snapshot.Name).To(Equal("users"))
			Expect(snapshot.Stubs).To(HaveLen(1))
			Expect(snapshot.Stubs[0].Predicates[0].Fields()).To(HaveKeyWithValue("path", "/test"))
		})

		It("rejects a second imposter on the same port", func() {
			Expect(client.Submit(ctx, newTestImposter())).To(Succeed())

			_, err := client.CreateImposter(ctx, newTestImposter())
			Expect(err).To(HaveStatusCode(http.StatusBadRequest))

			var mbErr *mountebank.MountebankError
			Expect(errors.As(err, &mbErr)).To(BeTrue())
			Expect(mbErr.Errors).To(ContainElement(HaveField("Code", "resource conflict")))
		})
	})

	Context("retrieving imposters", func() {
		It("reports an unknown port as not found", func() {
			_, err := client.GetHTTPImposter(ctx, 9999)
			Expect(err).To(HaveStatusCode(http.StatusNotFound))
			Expect(mountebank.IsNotFound(err)).To(BeTrue())
		})

		It("exposes recorded requests", func() {
			imp := newTestImposter()
			imp.RecordRequests = true
			Expect(client.Submit(ctx, imp)).To(Succeed())
			Expect(server.RecordRequest(4545, models.HTTPRequest{
				Method: http.MethodPost,
				Path:   "/soap",
				Body:   `<Envelope><Body><Name>Gopher</Name></Body></Envelope>`,
			})).To(Succeed())

			snapshot, err := client.GetHTTPImposter(ctx, 4545)
			Expect(err).NotTo(HaveOccurred())
			Expect(snapshot.NumberOfRequests).To(Equal(1))
			posts := snapshot.Filter(func(r models.HTTPRequest) bool { return r.Method == http.MethodPost })
			Expect(posts).To(HaveLen(1))
			Expect(posts[0]).To(ContainXMLElementWithValue("//Name", "Gopher"))

			Expect(client.DeleteSavedRequests(ctx, 4545)).To(Succeed())
			snapshot, err = client.GetHTTPImposter(ctx, 4545)
			Expect(err).NotTo(HaveOccurred())
			Expect(snapshot.Requests).To(BeEmpty())
		})

		It("refuses a snapshot of another protocol family", func() {
			imp, err := models.NewTCPImposter(5555)
			Expect(err).NotTo(HaveOccurred())
			imp.AddStub().ReturnsData("pong")
			Expect(client.Submit(ctx, imp)).To(Succeed())

			_, err = client.GetHTTPImposter(ctx, 5555)
			Expect(err).To(MatchError(models.ErrMalformedResponse))

			tcp, err := client.GetTCPImposter(ctx, 5555)
			Expect(err).NotTo(HaveOccurred())
			Expect(tcp.Protocol).To(Equal(models.ProtocolTCP))
		})

		It("round-trips a replayable definition", func() {
			Expect(client.Submit(ctx, newTestImposter())).To(Succeed())

			replayable, err := client.GetReplayableImposter(ctx, 4545)
			Expect(err).NotTo(HaveOccurred())
			Expect(replayable.Port()).To(Equal(4545))

			Expect(client.DeleteImposter(ctx, 4545)).To(Succeed())
			Expect(client.Submit(ctx, replayable)).To(Succeed())

			list, err := client.ListImposters(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(ConsistOf(models.ImposterSummary{Protocol: models.ProtocolHTTP, Port: 4545, Name: "users"}))
		})
	})

	Context("changing stubs", func() {
		BeforeEach(func() {
			Expect(client.Submit(ctx, newTestImposter())).To(Succeed())
		})

		It("inserts a stub ahead of the existing ones", func() {
			Expect(client.AddStub(ctx, 4545, models.NewStub().OnPathEquals("/first").ReturnsNotFound(), 0)).To(Succeed())

			snapshot, err := client.GetHTTPImposter(ctx, 4545)
			Expect(err).NotTo(HaveOccurred())
			Expect(snapshot.Stubs).To(HaveLen(2))
			Expect(snapshot.Stubs[0].Predicates[0].Fields()).To(HaveKeyWithValue("path", "/first"))
		})

		It("replaces every stub", func() {
			Expect(client.ReplaceStubs(ctx, 4545, []*models.Stub{models.NewStub().ReturnsStatus(http.StatusTeapot)})).To(Succeed())

			snapshot, err := client.GetHTTPImposter(ctx, 4545)
			Expect(err).NotTo(HaveOccurred())
			Expect(snapshot.Stubs).To(HaveLen(1))
			is, ok := snapshot.Stubs[0].Responses[0].IsPayload()
			Expect(ok).To(BeTrue())
			Expect(is.StatusCode).To(Equal(http.StatusTeapot))
		})

		It("clears saved proxy responses", func() {
			Expect(client.DeleteSavedProxyResponses(ctx, 4545)).To(Succeed())
			Expect(client.DeleteSavedProxyResponses(ctx, 9999)).To(HaveStatusCode(http.StatusNotFound))
		})
	})

	Context("deleting imposters", func() {
		It("succeeds on an empty service", func() {
			Expect(client.DeleteAllImposters(ctx)).To(Succeed())
		})

		It("removes every imposter", func() {
			Expect(client.Submit(ctx, newTestImposter())).To(Succeed())
			Expect(client.DeleteAllImposters(ctx)).To(Succeed())

			list, err := client.ListImposters(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
		})

		It("tolerates deleting an unknown port", func() {
			Expect(client.DeleteImposter(ctx, 9999)).To(Succeed())
		})
	})

	It("surfaces a stopped service as a transport failure", func() {
		server.Close()
		_, err := client.ListImposters(ctx)
		Expect(err).To(HaveStatusCode(mountebank.StatusTransportFailure))
	})
})
