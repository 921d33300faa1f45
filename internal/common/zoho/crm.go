// internal/common/zoho/crm.go
package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://www.zohoapis.in/crm/v3"

type CRMClient struct {
	apiKey     string
	oauthToken string
	baseURL    string
	httpClient *http.Client
}

// Lead is the subset of the Zoho Leads module the site writes.
type Lead struct {
	ID          string  `json:"id,omitempty"`
	LastName    string  `json:"Last_Name"`
	FirstName   string  `json:"First_Name,omitempty"`
	Email       string  `json:"Email,omitempty"`
	Mobile      string  `json:"Mobile"`
	Company     string  `json:"Company,omitempty"`
	ZipCode     string  `json:"Zip_Code,omitempty"`
	Source      string  `json:"Lead_Source,omitempty"`
	LoanType    string  `json:"Loan_Type,omitempty"`
	LoanAmount  float64 `json:"Loan_Amount,omitempty"`
	MatchedBank string  `json:"Matched_Bank,omitempty"`
	Description string  `json:"Description,omitempty"`
}

type writeResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

func NewCRMClient(baseURL, apiKey, oauthToken string, timeout time.Duration) *CRMClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CRMClient{
		apiKey:     apiKey,
		oauthToken: oauthToken,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateLead inserts a lead and returns its Zoho ID.
func (c *CRMClient) CreateLead(ctx context.Context, lead *Lead) (string, error) {
	return c.write(ctx, http.MethodPost, c.baseURL+"/Leads", lead)
}

// UpdateLead overwrites the given fields of an existing lead.
func (c *CRMClient) UpdateLead(ctx context.Context, leadID string, lead *Lead) error {
	_, err := c.write(ctx, http.MethodPut, fmt.Sprintf("%s/Leads/%s", c.baseURL, url.PathEscape(leadID)), lead)
	return err
}

// SearchLeadsByMobile returns leads whose Mobile matches exactly.
func (c *CRMClient) SearchLeadsByMobile(ctx context.Context, mobile string) ([]Lead, error) {
	query := url.Values{}
	query.Set("criteria", fmt.Sprintf("(Mobile:equals:%s)", mobile))
	endpoint := fmt.Sprintf("%s/Leads/search?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	// Zoho answers an empty search with 204 and no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to search leads (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Data []Lead `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Data, nil
}

func (c *CRMClient) write(ctx context.Context, method, endpoint string, lead *Lead) (string, error) {
	payload := map[string]interface{}{
		"data": []Lead{*lead},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lead write failed (status %d): %s", resp.StatusCode, string(body))
	}

	var writeResp writeResponse
	if err := json.Unmarshal(body, &writeResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(writeResp.Data) == 0 {
		return "", fmt.Errorf("no data in response")
	}
	if writeResp.Data[0].Status != "success" {
		return "", fmt.Errorf("lead write rejected: %s", writeResp.Data[0].Message)
	}

	return writeResp.Data[0].Details.ID, nil
}

func (c *CRMClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.oauthToken)
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}
