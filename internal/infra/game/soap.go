package game

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SoapExecutor runs GM commands through the game server's remote console
// SOAP endpoint. Commands execute with the credentials' account security,
// so the bridge's own permission gate runs before anything reaches here.
type SoapExecutor struct {
	endpoint string
	username string
	password string
	http     *http.Client
}

// NewSoapExecutor creates an executor for the given SOAP endpoint,
// e.g. "http://127.0.0.1:7878/".
func NewSoapExecutor(endpoint, username, password string) *SoapExecutor {
	return &SoapExecutor{
		endpoint: endpoint,
		username: username,
		password: password,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

const soapEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/" xmlns:ns1="urn:AC">
<SOAP-ENV:Body>
<ns1:executeCommand>
<command>%s</command>
</ns1:executeCommand>
</SOAP-ENV:Body>
</SOAP-ENV:Envelope>`

// Execute runs the command asynchronously. The SOAP endpoint returns the
// full output in one response, so print fires at most once before done.
func (e *SoapExecutor) Execute(command string, print func(text string), done func(success bool)) {
	go func() {
		output, err := e.call(command)
		if err != nil {
			fmt.Printf("[Game] SOAP command failed: %v\n", err)
			if output != "" {
				print(output)
			} else {
				print(err.Error())
			}
			done(false)
			return
		}
		if output != "" {
			print(output)
		}
		done(true)
	}()
}

func (e *SoapExecutor) call(command string) (string, error) {
	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(command)); err != nil {
		return "", fmt.Errorf("failed to escape command: %w", err)
	}
	body := fmt.Sprintf(soapEnvelope, escaped.String())

	req, err := http.NewRequest(http.MethodPost, e.endpoint, bytes.NewBufferString(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(e.username, e.password)
	req.Header.Set("Content-Type", "application/xml")

	resp, err := e.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	result, faultText, err := parseSoapResponse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if faultText != "" {
			return faultText, fmt.Errorf("command rejected: %s", faultText)
		}
		return "", fmt.Errorf("SOAP endpoint returned %d", resp.StatusCode)
	}
	return result, nil
}

// parseSoapResponse pulls the command output (or fault string) out of the
// response envelope.
func parseSoapResponse(r io.Reader) (result, fault string, err error) {
	decoder := xml.NewDecoder(r)
	var current string
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = t.Name.Local
		case xml.CharData:
			switch current {
			case "result":
				result += string(t)
			case "faultstring":
				fault += string(t)
			}
		case xml.EndElement:
			current = ""
		}
	}
	return result, fault, nil
}
