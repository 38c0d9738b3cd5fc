package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/getmockd/ewsoap/pkg/soap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resolveNamesBody = `<m:ResolveNames xmlns:m="http://schemas.microsoft.com/exchange/services/2006/messages" ReturnFullContactData="true"><m:UnresolvedEntry>alice</m:UnresolvedEntry></m:ResolveNames>`

const resolveNamesResponse = `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <m:ResolveNamesResponse xmlns:m="http://schemas.microsoft.com/exchange/services/2006/messages"
        xmlns:t="http://schemas.microsoft.com/exchange/services/2006/types">
      <m:ResponseMessages>
        <m:ResolveNamesResponseMessage ResponseClass="Success">
          <m:ResolutionSet TotalItemsInView="1">
            <t:Resolution><t:Mailbox><t:Name>Alice</t:Name><t:EmailAddress>alice@example.com</t:EmailAddress></t:Mailbox></t:Resolution>
          </m:ResolutionSet>
        </m:ResolveNamesResponseMessage>
      </m:ResponseMessages>
    </m:ResolveNamesResponse>
  </s:Body>
</s:Envelope>`

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// ewsServer answers every request with response and records the last request.
type ewsServer struct {
	*httptest.Server
	calls    atomic.Int32
	lastBody atomic.Value
	lastHdr  atomic.Value
}

func newEWSServer(t *testing.T, status int, response string) *ewsServer {
	t.Helper()
	s := &ewsServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		s.lastBody.Store(string(body))
		s.lastHdr.Store(r.Header.Clone())
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(s.Close)
	return s
}

func TestSend_PrintsResponse(t *testing.T) {
	srv := newEWSServer(t, http.StatusOK, resolveNamesResponse)
	body := writeTemp(t, "body.xml", resolveNamesBody)

	stdout, _, err := runCLI(t, "", "send", "--endpoint", srv.URL, "-H", "X-AnchorMailbox: alice@example.com", body)
	require.NoError(t, err)

	assert.Contains(t, stdout, "<t:Name>Alice</t:Name>")
	assert.Equal(t, int32(1), srv.calls.Load())

	sent := srv.lastBody.Load().(string)
	assert.Contains(t, sent, `<t:RequestServerVersion Version="Exchange2010"/>`)
	assert.Contains(t, sent, "<m:UnresolvedEntry>alice</m:UnresolvedEntry>")
	assert.NotContains(t, sent, "TimeZoneContext")

	hdr := srv.lastHdr.Load().(http.Header)
	assert.Equal(t, "alice@example.com", hdr.Get("X-AnchorMailbox"))
	assert.Equal(t, soap.ContentType, hdr.Get("Content-Type"))
}

func TestSend_Availability(t *testing.T) {
	srv := newEWSServer(t, http.StatusOK, resolveNamesResponse)

	_, _, err := runCLI(t, resolveNamesBody, "send", "--endpoint", srv.URL, "--availability", "-")
	require.NoError(t, err)
	assert.Contains(t, srv.lastBody.Load().(string), "<t:TimeZoneContext>")
}

func TestSend_ExtractJSON(t *testing.T) {
	srv := newEWSServer(t, http.StatusOK, resolveNamesResponse)
	body := writeTemp(t, "body.xml", resolveNamesBody)
	fields := writeTemp(t, "fields.yaml", `
root: //t:Resolution
fields:
  name: t:Mailbox/t:Name
  email: t:Mailbox/t:EmailAddress
  phone: t:Contact/t:PhoneNumber
`)

	stdout, _, err := runCLI(t, "", "--json", "send", "--endpoint", srv.URL, "--map", fields, body)
	require.NoError(t, err)

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Alice", results[0]["name"])
	assert.Equal(t, "alice@example.com", results[0]["email"])
	assert.NotContains(t, results[0], "phone")
}

func TestSend_ConfigFile(t *testing.T) {
	var user, pass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ = r.BasicAuth()
		_, _ = io.WriteString(w, resolveNamesResponse)
	}))
	defer srv.Close()

	cfg := writeTemp(t, "client.yaml", "endpoint: "+srv.URL+"\nusername: svc\npassword: pw\nversion: Exchange2013\n")
	body := writeTemp(t, "body.xml", resolveNamesBody)

	_, _, err := runCLI(t, "", "--config", cfg, "send", body)
	require.NoError(t, err)
	assert.Equal(t, "svc", user)
	assert.Equal(t, "pw", pass)
}

func TestSend_Fault(t *testing.T) {
	srv := newEWSServer(t, http.StatusInternalServerError,
		`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><s:Fault>`+
			`<faultcode>s:Client</faultcode><faultstring>Access is denied.</faultstring></s:Fault></s:Body></s:Envelope>`)
	body := writeTemp(t, "body.xml", resolveNamesBody)

	stdout, _, err := runCLI(t, "", "send", "--endpoint", srv.URL, body)
	require.Error(t, err)
	assert.ErrorIs(t, err, soap.ErrProtocolFault)
	assert.Contains(t, err.Error(), "Access is denied.")
	assert.Empty(t, stdout)
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestSend_Malformed(t *testing.T) {
	srv := newEWSServer(t, http.StatusOK, "<html><body>Login")
	body := writeTemp(t, "body.xml", resolveNamesBody)

	_, _, err := runCLI(t, "", "send", "--endpoint", srv.URL, body)
	require.Error(t, err)
	assert.ErrorIs(t, err, soap.ErrMalformedResponse)
}

func TestSend_Validation(t *testing.T) {
	body := writeTemp(t, "body.xml", resolveNamesBody)

	_, _, err := runCLI(t, "", "send", body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint is required")

	_, _, err = runCLI(t, "", "send", "--endpoint", "not a url", body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absolute URL")

	_, _, err = runCLI(t, "", "send", "--endpoint", "http://localhost", "-H", "broken", body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid header")
}

func TestSend_DebugLogsEnvelope(t *testing.T) {
	srv := newEWSServer(t, http.StatusOK, resolveNamesResponse)
	body := writeTemp(t, "body.xml", resolveNamesBody)

	_, stderr, err := runCLI(t, "", "--log-level", "debug", "send", "--endpoint", srv.URL, body)
	require.NoError(t, err)
	assert.Contains(t, stderr, "SOAP request")
	assert.Contains(t, stderr, "RequestServerVersion")
}

func TestExtract_Text(t *testing.T) {
	resp := writeTemp(t, "response.xml", resolveNamesResponse)
	fields := writeTemp(t, "fields.json", `{"fields": {"total": {"query": "//m:ResolutionSet/@TotalItemsInView", "cast": "int"}, "class": "//m:ResolveNamesResponseMessage/@ResponseClass"}}`)

	stdout, _, err := runCLI(t, "", "extract", "--map", fields, resp)
	require.NoError(t, err)
	assert.Equal(t, "class: Success\ntotal: 1\n", stdout)
}

func TestExtract_RootMatchesNothing(t *testing.T) {
	resp := writeTemp(t, "response.xml", resolveNamesResponse)
	fields := writeTemp(t, "fields.yaml", "root: //t:CalendarEvent\nfields:\n  start: t:StartTime\n")

	_, _, err := runCLI(t, "", "extract", "--map", fields, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matched nothing")
}

func TestExtract_RequiresMap(t *testing.T) {
	resp := writeTemp(t, "response.xml", resolveNamesResponse)
	_, _, err := runCLI(t, "", "extract", resp)
	require.Error(t, err)
}

func TestEnvelope_JSON(t *testing.T) {
	stdout, _, err := runCLI(t, resolveNamesBody, "--json", "envelope", "--availability", "-")
	require.NoError(t, err)

	var out struct {
		Availability bool   `json:"availability"`
		Envelope     string `json:"envelope"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.True(t, out.Availability)
	assert.True(t, strings.HasPrefix(out.Envelope, "<s:Envelope"))
	assert.Contains(t, out.Envelope, "Pacific Standard Time")
}

func TestVersion(t *testing.T) {
	stdout, _, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ewsoap "+Version)
}

func TestFormatValue(t *testing.T) {
	ts, err := soap.ParseTimestamp("2013-05-01T00:00:00Z")
	require.NoError(t, err)

	assert.Equal(t, "2013-05-01T00:00:00Z", formatValue(ts))
	assert.Equal(t, "2013-05-01", formatValue(soap.Date{Year: 2013, Month: 5, Day: 1}))
	assert.Equal(t, "[a, 2, true]", formatValue([]any{"a", 2, true}))
}

func TestSend_EnvFile(t *testing.T) {
	var user string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, _ = r.BasicAuth()
		_, _ = io.WriteString(w, resolveNamesResponse)
	}))
	defer srv.Close()

	env := writeTemp(t, "creds.env", "EWSOAP_ENDPOINT="+srv.URL+"\nEWSOAP_USERNAME=svc\nEWSOAP_PASSWORD=pw\n")
	body := writeTemp(t, "body.xml", resolveNamesBody)

	_, _, err := runCLI(t, "", "--env-file", env, "send", body)
	require.NoError(t, err)
	assert.Equal(t, "svc", user)
}
