package e2e_test

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	. "github.com/onsi/gomega"
)

const (
	soapEnvNamespace = "http://schemas.xmlsoap.org/soap/envelope/"
	temNamespace     = "http://tempuri.org/"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// SoapEnvelope is a SOAP 1.1 envelope using the tempuri.org operations.
type SoapEnvelope struct {
	XMLName      xml.Name `xml:"soapenv:Envelope"`
	XmlnsSoapEnv string   `xml:"xmlns:soapenv,attr"`
	XmlnsTem     string   `xml:"xmlns:tem,attr"`
	Header       struct{} `xml:"soapenv:Header"`
	Body         SoapBody `xml:"soapenv:Body"`
}

type SoapBody struct {
	HelloWorld *HelloWorldOperation `xml:"tem:HelloWorld,omitempty"`
}

type HelloWorldOperation struct {
	Name string `xml:"tem:Name"`
}

func generateHelloWorldSOAPRequest(name string) string {
	envelope := SoapEnvelope{
		XmlnsSoapEnv: soapEnvNamespace,
		XmlnsTem:     temNamespace,
		Body:         SoapBody{HelloWorld: &HelloWorldOperation{Name: name}},
	}
	output, err := xml.MarshalIndent(envelope, "", "  ")
	Expect(err).NotTo(HaveOccurred(), "Failed to marshal HelloWorld SOAP request")
	return xml.Header + string(output)
}

func imposterURL(port int, path string) string {
	return fmt.Sprintf("http://%s:%d%s", imposterHost, port, path)
}

func sendSOAPRequest(url, soapAction, requestBody string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBufferString(requestBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", soapAction)
	return httpClient.Do(req)
}

func sendJSONRequest(method, url, requestBody string) (*http.Response, error) {
	var body io.Reader
	if requestBody != "" {
		body = strings.NewReader(requestBody)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return httpClient.Do(req)
}
