// internal/common/zoho/crm_test.go
package zoho

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRMClient_CreateLead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/crm/v3/Leads", r.URL.Path)
		assert.Equal(t, "Zoho-oauthtoken tok", r.Header.Get("Authorization"))

		var payload struct {
			Data []Lead `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Data, 1)
		assert.Equal(t, "9876543210", payload.Data[0].Mobile)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":[{"code":"SUCCESS","status":"success","details":{"id":"z-1"}}]}`))
	}))
	defer server.Close()

	c := NewCRMClient(server.URL+"/crm/v3/", "", "tok", time.Second)
	id, err := c.CreateLead(context.Background(), &Lead{LastName: "Rao", Mobile: "9876543210"})

	require.NoError(t, err)
	assert.Equal(t, "z-1", id)
}

func TestCRMClient_CreateLead_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"code":"MANDATORY_NOT_FOUND","status":"error","message":"required field not found"}]}`))
	}))
	defer server.Close()

	c := NewCRMClient(server.URL, "", "tok", time.Second)
	_, err := c.CreateLead(context.Background(), &Lead{Mobile: "9876543210"})
	assert.ErrorContains(t, err, "required field not found")
}

func TestCRMClient_CreateLead_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"INVALID_TOKEN"}`))
	}))
	defer server.Close()

	c := NewCRMClient(server.URL, "", "tok", time.Second)
	_, err := c.CreateLead(context.Background(), &Lead{Mobile: "9876543210"})
	assert.ErrorContains(t, err, "status 401")
}

func TestCRMClient_SearchLeadsByMobile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Leads/search", r.URL.Path)
		if r.URL.Query().Get("criteria") == "(Mobile:equals:9876543210)" {
			_, _ = w.Write([]byte(`{"data":[{"id":"z-9","Last_Name":"Rao","Mobile":"9876543210"}]}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := NewCRMClient(server.URL, "", "tok", time.Second)

	leads, err := c.SearchLeadsByMobile(context.Background(), "9876543210")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "z-9", leads[0].ID)

	leads, err = c.SearchLeadsByMobile(context.Background(), "9000000000")
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestCRMClient_UpdateLead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/Leads/z-9", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[{"status":"success","details":{"id":"z-9"}}]}`))
	}))
	defer server.Close()

	c := NewCRMClient(server.URL, "", "tok", time.Second)
	assert.NoError(t, c.UpdateLead(context.Background(), "z-9", &Lead{Mobile: "9876543210"}))
}
