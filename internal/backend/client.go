// Package backend is the typed client for the Infinz backend REST API.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "infinz-leadgen/internal/common/errors"
	commonhttp "infinz-leadgen/internal/common/http"
	"infinz-leadgen/internal/common/logger"
	"infinz-leadgen/internal/common/metrics"
	"infinz-leadgen/internal/common/observability"
	"infinz-leadgen/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Endpoint names, used for metrics, spans and error metadata.
const (
	EndpointSendOTP      = "send-otp"
	EndpointVerifyOTP    = "verify-otp"
	EndpointSaveUser     = "save-user"
	EndpointPersonalLoan = "personal-loan"
	EndpointBusinessLoan = "business-loan"
	EndpointPresign      = "presign-upload"
	EndpointUpload       = "upload"
	EndpointPosts        = "posts"
)

const (
	pathSendOTP      = "/api/v1/auth/send-otp"
	pathVerifyOTP    = "/api/v1/auth/verify-otp"
	pathUsers        = "/api/v1/users"
	pathPersonalLoan = "/api/v1/personal-loan/create"
	pathBusinessLoan = "/api/v1/business/create"
	pathPresign      = "/api/v1/uploads/presign"
)

// envelope is the response shape of every backend endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type Client struct {
	http   *commonhttp.Client
	logger logger.Logger
	tracer trace.Tracer
}

func NewClient(httpClient *commonhttp.Client, log logger.Logger) *Client {
	return &Client{
		http:   httpClient,
		logger: log.WithFields(map[string]interface{}{"component": "backend"}),
		tracer: observability.Tracer("infinz-leadgen/backend"),
	}
}

// SendOTP asks the backend to dispatch an OTP to mobile.
func (c *Client) SendOTP(ctx context.Context, mobile string) error {
	_, err := c.call(ctx, EndpointSendOTP, http.MethodPost, pathSendOTP, "", &sendOTPRequest{MobileNumber: mobile}, nil)
	return err
}

// VerifyOTP confirms the code and returns the bearer token for later calls.
func (c *Client) VerifyOTP(ctx context.Context, mobile, otp string) (*VerifyOTPResult, error) {
	var result VerifyOTPResult
	if _, err := c.call(ctx, EndpointVerifyOTP, http.MethodPost, pathVerifyOTP, "", &verifyOTPRequest{MobileNumber: mobile, OTP: otp}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SaveUser creates or updates the applicant record.
func (c *Client) SaveUser(ctx context.Context, token string, req *UserRequest) error {
	_, err := c.call(ctx, EndpointSaveUser, http.MethodPost, pathUsers, token, req, nil)
	return err
}

func (c *Client) CreatePersonalLoan(ctx context.Context, token string, req *PersonalLoanRequest) (*LoanResult, error) {
	return c.createLoan(ctx, EndpointPersonalLoan, pathPersonalLoan, token, req)
}

func (c *Client) CreateBusinessLoan(ctx context.Context, token string, req *BusinessLoanRequest) (*LoanResult, error) {
	return c.createLoan(ctx, EndpointBusinessLoan, pathBusinessLoan, token, req)
}

func (c *Client) createLoan(ctx context.Context, endpoint, path, token string, req interface{}) (*LoanResult, error) {
	var result LoanResult
	message, err := c.call(ctx, endpoint, http.MethodPost, path, token, req, &result)
	if err != nil {
		return nil, err
	}
	if result.Offer != nil && result.Offer.BankName == "" {
		result.Offer = nil
	}
	result.Message = message
	return &result, nil
}

// PresignUpload requests a presigned PUT URL for fileName.
func (c *Client) PresignUpload(ctx context.Context, token, fileName, contentType string) (*PresignResult, error) {
	var result PresignResult
	if _, err := c.call(ctx, EndpointPresign, http.MethodPost, pathPresign, token, &presignRequest{FileName: fileName, ContentType: contentType}, &result); err != nil {
		return nil, apperrors.NewUploadFailedError(err)
	}
	if result.URL == "" {
		return nil, apperrors.NewUploadFailedError(errors.New("presign response without url"))
	}
	return &result, nil
}

// Upload PUTs data to a presigned URL. Any failure is an upload error.
func (c *Client) Upload(ctx context.Context, presignedURL, contentType string, data []byte) error {
	ctx, span := c.tracer.Start(ctx, "backend."+EndpointUpload,
		trace.WithAttributes(attribute.Int("upload.bytes", len(data))))
	start := time.Now()

	err := c.http.Put(ctx, presignedURL, contentType, data)
	c.observe(EndpointUpload, start, err)
	observability.EndSpan(span, err)

	if err != nil {
		c.logger.Warn("salary slip upload failed", map[string]interface{}{"error": err})
		return apperrors.NewUploadFailedError(err)
	}
	return nil
}

// ListPosts fetches one page of blogs or news.
func (c *Client) ListPosts(ctx context.Context, kind models.ContentKind, page, pageSize int) (*models.PostPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(pageSize))
	path := fmt.Sprintf("/api/v1/%s?%s", kind, query.Encode())

	var data struct {
		Items []models.Post `json:"items"`
		Total int           `json:"total"`
	}
	if _, err := c.call(ctx, EndpointPosts, http.MethodGet, path, "", nil, &data); err != nil {
		return nil, err
	}
	if data.Items == nil {
		data.Items = []models.Post{}
	}
	return &models.PostPage{Items: data.Items, Page: page, PageSize: pageSize, Total: data.Total}, nil
}

// call performs one request and unwraps the envelope. It returns the
// envelope message on success.
func (c *Client) call(ctx context.Context, endpoint, method, path, token string, body, out interface{}) (string, error) {
	ctx, span := c.tracer.Start(ctx, "backend."+endpoint, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("backend.endpoint", endpoint),
	))
	start := time.Now()

	message, err := c.roundTrip(ctx, endpoint, method, path, token, body, out)

	c.observe(endpoint, start, err)
	observability.EndSpan(span, err)

	if err != nil {
		c.logger.Warn("backend call failed", map[string]interface{}{
			"endpoint": endpoint,
			"error":    err,
		})
	}
	return message, err
}

func (c *Client) roundTrip(ctx context.Context, endpoint, method, path, token string, body, out interface{}) (string, error) {
	var env envelope
	if err := c.http.DoJSON(ctx, method, path, token, body, &env); err != nil {
		return "", toNetworkError(endpoint, err)
	}

	if !env.Success {
		return "", apperrors.NewRequestRejectedError(endpoint, env.Message)
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", apperrors.NewNetworkError(endpoint, fmt.Errorf("decode data: %w", err))
		}
	}
	return env.Message, nil
}

// toNetworkError keeps the backend's own message when a non-2xx body carries one.
func toNetworkError(endpoint string, err error) error {
	stdErr := apperrors.NewNetworkError(endpoint, err)

	var statusErr *commonhttp.StatusError
	if errors.As(err, &statusErr) {
		stdErr.Metadata["status"] = statusErr.StatusCode
		var env envelope
		if json.Unmarshal(statusErr.Body, &env) == nil && env.Message != "" {
			stdErr.Message = env.Message
		}
	}
	return stdErr
}

func (c *Client) observe(endpoint string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
		if errors.Is(err, context.Canceled) {
			outcome = "canceled"
		}
	}
	metrics.BackendCalls.WithLabelValues(endpoint, outcome).Inc()
	metrics.BackendCallDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
