// internal/handlers/lead/push-crm-lead/handler_test.go
package pushcrmlead

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	apperrors "infinz-leadgen/internal/common/errors"
	"infinz-leadgen/internal/common/logger"
	"infinz-leadgen/internal/common/zoho"
	"infinz-leadgen/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockCRMClient struct {
	CreateLeadFunc func(ctx context.Context, lead *zoho.Lead) (string, error)
	UpdateLeadFunc func(ctx context.Context, leadID string, lead *zoho.Lead) error
	SearchFunc     func(ctx context.Context, mobile string) ([]zoho.Lead, error)
}

func (m *MockCRMClient) CreateLead(ctx context.Context, lead *zoho.Lead) (string, error) {
	return m.CreateLeadFunc(ctx, lead)
}

func (m *MockCRMClient) UpdateLead(ctx context.Context, leadID string, lead *zoho.Lead) error {
	return m.UpdateLeadFunc(ctx, leadID, lead)
}

func (m *MockCRMClient) SearchLeadsByMobile(ctx context.Context, mobile string) ([]zoho.Lead, error) {
	return m.SearchFunc(ctx, mobile)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	cfg := DefaultConfig()
	cfg.ZohoOAuthToken = "test-token"
	cfg.Timeout = 5 * time.Second
	return cfg
}

func createTestLead() *models.Lead {
	return &models.Lead{
		DraftID:      "d-1",
		LoanType:     models.LoanTypeBusiness,
		FullName:     "Ravi Shankar Rao",
		Email:        "ravi@example.com",
		MobileNumber: "9876543210",
		Pincode:      "400001",
		LoanAmount:   1500000,
		BusinessName: "Rao Traders",
		Offer:        &models.MatchedOffer{BankName: "ICICI Bank"},
		SubmittedAt:  time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
	}
}

// ==========================
// Tests
// ==========================

func TestHandler_CreatesLeadAgainstZoho(t *testing.T) {
	var mu sync.Mutex
	var created []zoho.Lead

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/Leads/search":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPost && r.URL.Path == "/Leads":
			var payload struct {
				Data []zoho.Lead `json:"data"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			mu.Lock()
			created = append(created, payload.Data...)
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data":[{"code":"SUCCESS","status":"success","details":{"id":"z-100"}}]}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	cfg := createTestConfig()
	cfg.BaseURL = server.URL
	h, err := NewHandler(cfg, nil, logger.NewTestLogger(t))
	require.NoError(t, err)

	output, err := h.Execute(context.Background(), &Input{Lead: createTestLead()})
	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.False(t, output.Updated)
	assert.Equal(t, "z-100", output.LeadID)

	require.Len(t, created, 1)
	assert.Equal(t, "Ravi", created[0].FirstName)
	assert.Equal(t, "Shankar Rao", created[0].LastName)
	assert.Equal(t, "Rao Traders", created[0].Company)
	assert.Equal(t, "ICICI Bank", created[0].MatchedBank)
	assert.Equal(t, "Infinz Website", created[0].Source)
}

func TestHandler_UpdatesExistingLead(t *testing.T) {
	var updatedID string
	client := &MockCRMClient{
		SearchFunc: func(ctx context.Context, mobile string) ([]zoho.Lead, error) {
			assert.Equal(t, "9876543210", mobile)
			return []zoho.Lead{{ID: "z-7", Mobile: mobile}}, nil
		},
		UpdateLeadFunc: func(ctx context.Context, leadID string, lead *zoho.Lead) error {
			updatedID = leadID
			return nil
		},
		CreateLeadFunc: func(ctx context.Context, lead *zoho.Lead) (string, error) {
			t.Fatal("create must not be called for an existing lead")
			return "", nil
		},
	}
	h, err := NewHandler(createTestConfig(), client, logger.NewTestLogger(t))
	require.NoError(t, err)

	output, err := h.Execute(context.Background(), &Input{Lead: createTestLead()})
	require.NoError(t, err)
	assert.True(t, output.Updated)
	assert.Equal(t, "z-7", updatedID)
}

func TestHandler_SearchFailureFallsBackToCreate(t *testing.T) {
	client := &MockCRMClient{
		SearchFunc: func(ctx context.Context, mobile string) ([]zoho.Lead, error) {
			return nil, errors.New("search unavailable")
		},
		CreateLeadFunc: func(ctx context.Context, lead *zoho.Lead) (string, error) {
			return "z-2", nil
		},
	}
	h, err := NewHandler(createTestConfig(), client, logger.NewTestLogger(t))
	require.NoError(t, err)

	output, err := h.Execute(context.Background(), &Input{Lead: createTestLead()})
	require.NoError(t, err)
	assert.Equal(t, "z-2", output.LeadID)
}

func TestHandler_CreateFailure(t *testing.T) {
	client := &MockCRMClient{
		SearchFunc: func(ctx context.Context, mobile string) ([]zoho.Lead, error) { return nil, nil },
		CreateLeadFunc: func(ctx context.Context, lead *zoho.Lead) (string, error) {
			return "", errors.New("lead write failed (status 500)")
		},
	}
	h, err := NewHandler(createTestConfig(), client, logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, SinkName, h.Name())

	err = h.Deliver(context.Background(), createTestLead())
	stdErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeCRMAPI, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandler_RequiresMobile(t *testing.T) {
	h, err := NewHandler(createTestConfig(), &MockCRMClient{}, logger.NewNoOpLogger())
	require.NoError(t, err)

	lead := createTestLead()
	lead.MobileNumber = ""
	_, err = h.Execute(context.Background(), &Input{Lead: lead})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
}

func TestNewHandler_InvalidConfig(t *testing.T) {
	cfg := createTestConfig()
	cfg.ZohoOAuthToken = ""
	_, err := NewHandler(cfg, nil, logger.NewNoOpLogger())
	assert.ErrorContains(t, err, "zoho_oauth_token is required")
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		full, first, last string
	}{
		{"", "", "Unknown"},
		{"Asha", "", "Asha"},
		{"Asha Kumar", "Asha", "Kumar"},
		{"  Ravi  Shankar Rao ", "Ravi", "Shankar Rao"},
	}
	for _, tt := range tests {
		first, last := splitName(tt.full)
		assert.Equal(t, tt.first, first, tt.full)
		assert.Equal(t, tt.last, last, tt.full)
	}
}
