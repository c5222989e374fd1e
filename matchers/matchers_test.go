package matchers_test

import (
	"errors"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mountebank-client/clients/mountebank"
	. "mountebank-client/matchers"
	"mountebank-client/models"
)

const helloWorld = `<?xml version="1.0" encoding="utf-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:tem="http://tempuri.org/">
  <soapenv:Header/>
  <soapenv:Body>
    <tem:HelloWorld>
      <tem:Name>Gopher</tem:Name>
    </tem:HelloWorld>
  </soapenv:Body>
</soapenv:Envelope>`

var _ = Describe("ContainXMLElement", func() {
	It("finds elements in strings and bytes", func() {
		Expect(helloWorld).To(ContainXMLElement("//tem:HelloWorld"))
		Expect([]byte(helloWorld)).To(ContainXMLElementWithValue("//tem:Name", "Gopher"))
		Expect(helloWorld).NotTo(ContainXMLElement("//tem:Goodbye"))
		Expect(helloWorld).NotTo(ContainXMLElementWithValue("//tem:Name", "Ferris"))
	})

	It("reads the body of a recorded request", func() {
		req := models.HTTPRequest{Method: http.MethodPost, Path: "/soap", Body: helloWorld}
		Expect(req).To(ContainXMLElementWithValue("//tem:Name", "Gopher"))
		Expect(&req).To(ContainXMLElement("//soapenv:Body"))
	})

	It("reports unsupported input and broken XPath", func() {
		_, err := ContainXMLElement("//a").Match(42)
		Expect(err).To(HaveOccurred())

		_, err = ContainXMLElement("//tem:Name[").Match(helloWorld)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("HaveStatusCode", func() {
	It("matches wrapped mountebank errors", func() {
		err := fmt.Errorf("setup: %w", &mountebank.MountebankError{Op: "get imposter", StatusCode: http.StatusNotFound})
		Expect(err).To(HaveStatusCode(http.StatusNotFound))
		Expect(err).NotTo(HaveStatusCode(http.StatusBadRequest))
	})

	It("does not match other errors or nil", func() {
		Expect(errors.New("plain")).NotTo(HaveStatusCode(http.StatusNotFound))
		Expect(nil).NotTo(HaveStatusCode(http.StatusNotFound))
	})

	It("treats transport failures as status zero", func() {
		err := &mountebank.MountebankError{Op: "list imposters", Err: errors.New("connection refused")}
		Expect(err).To(HaveStatusCode(mountebank.StatusTransportFailure))
	})
})
