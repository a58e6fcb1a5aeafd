package httpapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPSettings_NotFoundUntilSet(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signupAndLogin("person@example.com", "hunter2")
	warehouseID := ts.createWarehouse(token, "Acme")

	resp := ts.do(http.MethodGet, "/warehouses/"+warehouseID+"/settings/smtp", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestSMTPSettings_PutThenGetMasksPassword(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signupAndLogin("person@example.com", "hunter2")
	warehouseID := ts.createWarehouse(token, "Acme")

	resp := ts.do(http.MethodPut, "/warehouses/"+warehouseID+"/settings/smtp", token, putSMTPSettingsRequest{
		Host: "smtp.example.com", Port: 587, Username: "mailer", Password: "super-secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(http.MethodGet, "/warehouses/"+warehouseID+"/settings/smtp", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got smtpSettingWire
	decodeBody(t, resp, &got)
	assert.Equal(t, "smtp.example.com", got.Host)
	assert.Equal(t, 587, got.Port)
}

func TestLLMSettings_PutThenGetReturnsProviderOnly(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signupAndLogin("person@example.com", "hunter2")
	warehouseID := ts.createWarehouse(token, "Acme")

	resp := ts.do(http.MethodPut, "/warehouses/"+warehouseID+"/settings/llm", token, putLLMSettingsRequest{
		Provider: "openai", APIKey: "sk-abcdef1234567890",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(http.MethodGet, "/warehouses/"+warehouseID+"/settings/llm", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got llmSettingWire
	decodeBody(t, resp, &got)
	assert.Equal(t, "openai", got.Provider)
}
