// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinz-leadgen/internal/api"
	"infinz-leadgen/internal/backend"
	"infinz-leadgen/internal/common/auth"
	apperrors "infinz-leadgen/internal/common/errors"
	commonhttp "infinz-leadgen/internal/common/http"
	"infinz-leadgen/internal/common/logger"
	"infinz-leadgen/internal/common/validation"
	"infinz-leadgen/internal/draft"
	calculateemi "infinz-leadgen/internal/handlers/calculator/calculate-emi"
	fetchposts "infinz-leadgen/internal/handlers/content/fetch-posts"
	searchdictionary "infinz-leadgen/internal/handlers/content/search-dictionary"
	pushcrmlead "infinz-leadgen/internal/handlers/lead/push-crm-lead"
	"infinz-leadgen/internal/wizard"
)

const validOTP = "123456"

// ==========================
// Fake backend
// ==========================

// fakeBackend plays the Infinz backend and the Zoho CRM on one server.
type fakeBackend struct {
	t      *testing.T
	server *httptest.Server
	offer  bool

	mu       sync.Mutex
	calls    []string
	tokens   map[string]string
	bodies   map[string]map[string]interface{}
	uploads  [][]byte
	crmLeads []map[string]interface{}
}

func newFakeBackend(t *testing.T) *fakeBackend {
	f := &fakeBackend{
		t:      t,
		tokens: map[string]string{},
		bodies: map[string]map[string]interface{}{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	f.tokens[r.URL.Path] = r.Header.Get("Authorization")
	if len(raw) > 0 && strings.HasPrefix(r.URL.Path, "/api/") {
		var body map[string]interface{}
		if json.Unmarshal(raw, &body) == nil {
			f.bodies[r.URL.Path] = body
		}
	}
	f.mu.Unlock()

	switch {
	case r.URL.Path == "/api/v1/auth/send-otp":
		envelope(w, true, "OTP sent", nil)

	case r.URL.Path == "/api/v1/auth/verify-otp":
		var req struct {
			OTP string `json:"otp"`
		}
		_ = json.Unmarshal(raw, &req)
		if req.OTP != validOTP {
			envelope(w, false, "Invalid OTP", nil)
			return
		}
		envelope(w, true, "verified", map[string]interface{}{"token": "backend-token", "userId": "u-42"})

	case r.URL.Path == "/api/v1/users":
		envelope(w, true, "saved", nil)

	case r.URL.Path == "/api/v1/uploads/presign":
		envelope(w, true, "", map[string]interface{}{
			"url": f.server.URL + "/upload/slip.pdf?sig=abc",
			"key": "uploads/slip.pdf",
		})

	case r.Method == http.MethodPut && r.URL.Path == "/upload/slip.pdf":
		f.mu.Lock()
		f.uploads = append(f.uploads, raw)
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)

	case r.URL.Path == "/api/v1/personal-loan/create" || r.URL.Path == "/api/v1/business/create":
		var data interface{}
		if f.offer {
			data = map[string]interface{}{"offer": map[string]interface{}{
				"bankName":     "HDFC Bank",
				"bankLogo":     "https://cdn.infinz.com/hdfc.png",
				"trackingLink": "https://t.infinz.com/hdfc",
			}}
		}
		envelope(w, true, "Application received", data)

	case r.URL.Path == "/api/v1/blogs" || r.URL.Path == "/api/v1/news":
		envelope(w, true, "", map[string]interface{}{
			"items": []map[string]interface{}{{"id": "p-1", "title": "Managing EMIs", "slug": "managing-emis"}},
			"total": 1,
		})

	case r.Method == http.MethodGet && r.URL.Path == "/crm/v3/Leads/search":
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodPost && r.URL.Path == "/crm/v3/Leads":
		var payload struct {
			Data []map[string]interface{} `json:"data"`
		}
		_ = json.Unmarshal(raw, &payload)
		f.mu.Lock()
		f.crmLeads = append(f.crmLeads, payload.Data...)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":[{"code":"SUCCESS","status":"success","details":{"id":"z-1"}}]}`))

	default:
		f.t.Errorf("unexpected backend request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func envelope(w http.ResponseWriter, success bool, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": success,
		"message": message,
		"data":    data,
	})
}

func (f *fakeBackend) apiCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if strings.Contains(c, "/api/v1/auth/") || strings.Contains(c, "/api/v1/users") ||
			strings.Contains(c, "/create") || strings.Contains(c, "/upload") {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeBackend) countCalls(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

// ==========================
// Test Helper Functions
// ==========================

type testApp struct {
	server  *httptest.Server
	backend *fakeBackend
	wizard  *wizard.Service
}

func newTestApp(t *testing.T, store draft.Store, rdb *redis.Client) *testApp {
	log := logger.NewTestLogger(t)
	fake := newFakeBackend(t)
	be := backend.NewClient(commonhttp.NewClient(fake.server.URL, 5*time.Second, log), log)

	crmCfg := pushcrmlead.DefaultConfig()
	crmCfg.BaseURL = fake.server.URL + "/crm/v3"
	crmCfg.ZohoOAuthToken = "zoho-token"
	crm, err := pushcrmlead.NewHandler(crmCfg, nil, log)
	require.NoError(t, err)

	svc := wizard.NewService(store, be, []wizard.LeadSink{crm}, wizard.Options{
		ResendCooldown: 30 * time.Second,
		StepTimeout:    5 * time.Second,
		LeadTimeout:    5 * time.Second,
	}, log, nil)

	schemas, err := validation.NewSchemaValidator()
	require.NoError(t, err)
	dict, err := searchdictionary.NewHandler(searchdictionary.DefaultConfig(), log)
	require.NoError(t, err)

	contentCfg := &fetchposts.Config{PageSize: 9, MaxPage: 10, KeyPrefix: "infinz:content:", CacheTTL: time.Minute}
	if rdb != nil {
		contentCfg.CacheEnabled = true
	}

	router := api.NewRouter(api.Dependencies{
		Wizard:         svc,
		Sessions:       auth.NewSessionIssuer("e2e-session-secret", "infinz-e2e", time.Hour),
		Schemas:        schemas,
		Calculator:     calculateemi.NewHandler(calculateemi.LoadConfig(), nil, log),
		Dictionary:     dict,
		Content:        fetchposts.NewHandler(contentCfg, be, rdb, log),
		Version:        "e2e",
		UploadMaxBytes: 1 << 20,
		AllowedOrigins: []string{"https://infinz.com"},
		Logger:         log,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testApp{server: srv, backend: fake, wizard: svc}
}

func (a *testApp) do(t *testing.T, method, path, token, body string) (int, []byte) {
	req, err := http.NewRequest(method, a.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(t, req)
}

func (a *testApp) upload(t *testing.T, token, fileName, contentType string, data []byte) (int, []byte) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="salarySlip"; filename="`+fileName+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, a.server.URL+"/api/wizard/salary-slip", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return send(t, req)
}

func send(t *testing.T, req *http.Request) (int, []byte) {
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func (a *testApp) startSession(t *testing.T, body string) (string, wizard.View) {
	status, raw := a.do(t, http.MethodPost, "/api/wizard/sessions", "", body)
	require.Equal(t, http.StatusCreated, status, string(raw))

	var resp api.StartSessionResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.Draft)
	return resp.Token, *resp.Draft
}

func (a *testApp) step(t *testing.T, path, token, body string) wizard.View {
	status, raw := a.do(t, http.MethodPost, path, token, body)
	require.Equal(t, http.StatusOK, status, string(raw))
	return decodeView(t, raw)
}

func decodeView(t *testing.T, raw []byte) wizard.View {
	var view wizard.View
	require.NoError(t, json.Unmarshal(raw, &view))
	return view
}

func decodeError(t *testing.T, raw []byte) apperrors.ErrorBody {
	var body apperrors.ErrorBody
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

const personalDetailsBody = `{"fullName":"Asha Kumar","email":"asha@example.com","dateOfBirth":"1992-04-18","panCardNumber":"abcpe1234f","pincode":"560001"}`

// ==========================
// Personal loan
// ==========================

func TestE2E_PersonalLoanFlow(t *testing.T) {
	app := newTestApp(t, draft.NewMemoryStore(time.Hour), nil)

	token, view := app.startSession(t, `{"loanType":"personal","applyData":{"loanAmount":300000}}`)
	assert.Equal(t, "mobile_entry", string(view.State))

	view = app.step(t, "/api/wizard/mobile", token, `{"mobileNumber":"9876543210"}`)
	assert.Equal(t, "otp_verification", string(view.State))
	assert.Equal(t, "9876543210", view.MobileNumber)
	assert.Equal(t, 30, view.ResendAvailableInSeconds)

	// A resend inside the cooldown is refused.
	status, raw := app.do(t, http.MethodPost, "/api/wizard/otp/resend", token, "")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, apperrors.ErrCodeOTPResendCooldown, decodeError(t, raw).Code)

	// A wrong code keeps the draft on the OTP step.
	status, raw = app.do(t, http.MethodPost, "/api/wizard/otp/verify", token, `{"otp":"000000"}`)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, apperrors.ErrCodeRequestRejected, decodeError(t, raw).Code)

	status, raw = app.do(t, http.MethodGet, "/api/wizard", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "otp_verification", string(decodeView(t, raw).State))
	assert.Empty(t, decodeView(t, raw).Pending)

	view = app.step(t, "/api/wizard/otp/verify", token, `{"otp":"`+validOTP+`"}`)
	assert.Equal(t, "personal_details", string(view.State))

	view = app.step(t, "/api/wizard/personal-details", token, personalDetailsBody)
	assert.Equal(t, "loan_form", string(view.State))
	require.NotNil(t, view.PersonalDetails)
	assert.Equal(t, "ABCPE1234F", view.PersonalDetails.PANCardNumber)

	slip := []byte("%PDF-1.4 salary slip")
	status, raw = app.upload(t, token, "slip.pdf", "application/pdf", slip)
	require.Equal(t, http.StatusOK, status, string(raw))
	view = decodeView(t, raw)
	assert.Equal(t, app.backend.server.URL+"/upload/slip.pdf", view.SalarySlipReference)

	view = app.step(t, "/api/wizard/loan", token,
		`{"loanAmount":300000,"monthlyIncome":65000,"paymentMode":"bank_transfer","employer":"Acme Pvt Ltd","employerPincode":"560034"}`)
	assert.Equal(t, "success", string(view.State))
	assert.Equal(t, wizard.SuccessMessage, view.Message)
	assert.Nil(t, view.Offer)

	// The submitted draft is gone.
	status, raw = app.do(t, http.MethodGet, "/api/wizard", token, "")
	assert.Equal(t, http.StatusPreconditionFailed, status)
	assert.Equal(t, apperrors.ErrCodeSessionExpired, decodeError(t, raw).Code)

	app.wizard.Wait()

	assert.Equal(t, []string{
		"POST /api/v1/auth/send-otp",
		"POST /api/v1/auth/verify-otp",
		"POST /api/v1/auth/verify-otp",
		"POST /api/v1/users",
		"POST /api/v1/uploads/presign",
		"PUT /upload/slip.pdf",
		"POST /api/v1/personal-loan/create",
	}, app.backend.apiCalls())

	app.backend.mu.Lock()
	defer app.backend.mu.Unlock()

	assert.Equal(t, "Bearer backend-token", app.backend.tokens["/api/v1/users"])
	assert.Equal(t, "Bearer backend-token", app.backend.tokens["/api/v1/personal-loan/create"])
	require.Len(t, app.backend.uploads, 1)
	assert.Equal(t, slip, app.backend.uploads[0])

	loan := app.backend.bodies["/api/v1/personal-loan/create"]
	assert.Equal(t, app.backend.server.URL+"/upload/slip.pdf", loan["salarySlip"])
	assert.Equal(t, "Acme Pvt Ltd", loan["employerName"])
	assert.Equal(t, float64(300000), loan["loanAmount"])

	require.Len(t, app.backend.crmLeads, 1)
	assert.Equal(t, "9876543210", app.backend.crmLeads[0]["Mobile"])
	assert.Equal(t, "Kumar", app.backend.crmLeads[0]["Last_Name"])
}

func TestE2E_RejectsUnsupportedSalarySlip(t *testing.T) {
	app := newTestApp(t, draft.NewMemoryStore(time.Hour), nil)

	token, _ := app.startSession(t, `{"loanType":"personal"}`)
	app.step(t, "/api/wizard/mobile", token, `{"mobileNumber":"9876543210"}`)
	app.step(t, "/api/wizard/otp/verify", token, `{"otp":"`+validOTP+`"}`)
	app.step(t, "/api/wizard/personal-details", token, personalDetailsBody)

	status, raw := app.upload(t, token, "slip.txt", "text/plain", []byte("not a payslip"))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, decodeError(t, raw).Errors, "salarySlip")
	assert.Zero(t, app.backend.countCalls("POST /api/v1/uploads/presign"))
}

// ==========================
// Business loan
// ==========================

func TestE2E_BusinessLoanWithOfferOnRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	app := newTestApp(t, draft.NewRedisStore(rdb, "infinz:draft:", time.Hour), nil)
	app.backend.offer = true

	token, view := app.startSession(t, `{"loanType":"business","applyData":{"loanAmount":1500000,"registrationTypes":["GST"]}}`)
	assert.True(t, mr.Exists("infinz:draft:"+view.ID))

	app.step(t, "/api/wizard/mobile", token, `{"mobileNumber":"9123456780"}`)
	app.step(t, "/api/wizard/otp/verify", token, `{"otp":"`+validOTP+`"}`)
	app.step(t, "/api/wizard/personal-details", token, personalDetailsBody)

	view = app.step(t, "/api/wizard/loan", token,
		`{"loanAmount":1500000,"businessName":"Kumar Traders","annualTurnover":9000000,"industryType":"Retail","incorporationDate":"2018-06-01","businessPincode":"400001","registrationTypes":["GST"]}`)
	assert.Equal(t, "success", string(view.State))
	require.NotNil(t, view.Offer)
	assert.Equal(t, "HDFC Bank", view.Offer.BankName)
	assert.Equal(t, "https://t.infinz.com/hdfc", view.Offer.TrackingLink)

	assert.False(t, mr.Exists("infinz:draft:"+view.ID))
	app.wizard.Wait()

	app.backend.mu.Lock()
	defer app.backend.mu.Unlock()
	loan := app.backend.bodies["/api/v1/business/create"]
	assert.Equal(t, "Kumar Traders", loan["businessName"])
	assert.Equal(t, []interface{}{"GST"}, loan["registrationTypes"])
	require.Len(t, app.backend.crmLeads, 1)
	assert.Equal(t, "HDFC Bank", app.backend.crmLeads[0]["Matched_Bank"])
}

// ==========================
// Reset
// ==========================

func TestE2E_ResetKeepsPrefill(t *testing.T) {
	app := newTestApp(t, draft.NewMemoryStore(time.Hour), nil)

	token, _ := app.startSession(t, `{"loanType":"personal","applyData":{"loanAmount":250000}}`)
	app.step(t, "/api/wizard/mobile", token, `{"mobileNumber":"9876543210"}`)
	app.step(t, "/api/wizard/otp/verify", token, `{"otp":"`+validOTP+`"}`)

	view := app.step(t, "/api/wizard/reset", token, "")
	assert.Equal(t, "mobile_entry", string(view.State))
	assert.Empty(t, view.MobileNumber)
	require.NotNil(t, view.ApplyData)
	assert.Equal(t, float64(250000), view.ApplyData.LoanAmount)

	// The backend token is dropped with the rest of the progress.
	status, raw := app.do(t, http.MethodPost, "/api/wizard/personal-details", token, personalDetailsBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, apperrors.ErrCodeInvalidTransition, decodeError(t, raw).Code)
	assert.Zero(t, app.backend.countCalls("POST /api/v1/users"))
}

func TestE2E_LoanBeforePersonalDetailsRestarts(t *testing.T) {
	app := newTestApp(t, draft.NewMemoryStore(time.Hour), nil)

	token, _ := app.startSession(t, `{"loanType":"personal"}`)
	app.step(t, "/api/wizard/mobile", token, `{"mobileNumber":"9876543210"}`)
	app.step(t, "/api/wizard/otp/verify", token, `{"otp":"`+validOTP+`"}`)

	status, raw := app.do(t, http.MethodPost, "/api/wizard/loan", token,
		`{"loanAmount":300000,"monthlyIncome":65000,"paymentMode":"bank_transfer","employer":"Acme Pvt Ltd","employerPincode":"560034"}`)
	assert.Equal(t, http.StatusPreconditionFailed, status)
	assert.Equal(t, apperrors.ErrCodeSessionExpired, decodeError(t, raw).Code)
	assert.Zero(t, app.backend.countCalls("POST /api/v1/personal-loan/create"))
}

func TestE2E_WizardRequiresSession(t *testing.T) {
	app := newTestApp(t, draft.NewMemoryStore(time.Hour), nil)

	status, raw := app.do(t, http.MethodPost, "/api/wizard/mobile", "", `{"mobileNumber":"9876543210"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, apperrors.ErrCodeUnauthorized, decodeError(t, raw).Code)
	assert.Empty(t, app.backend.apiCalls())
}

// ==========================
// Public surfaces
// ==========================

func TestE2E_ContentIsCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	app := newTestApp(t, draft.NewMemoryStore(time.Hour), rdb)

	var first, second fetchposts.Output
	status, raw := app.do(t, http.MethodGet, "/api/content/blogs?page=1", "", "")
	require.Equal(t, http.StatusOK, status, string(raw))
	require.NoError(t, json.Unmarshal(raw, &first))

	status, raw = app.do(t, http.MethodGet, "/api/content/blogs?page=1", "", "")
	require.Equal(t, http.StatusOK, status, string(raw))
	require.NoError(t, json.Unmarshal(raw, &second))

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "Managing EMIs", second.Items[0].Title)
	assert.Equal(t, 1, app.backend.countCalls("GET /api/v1/blogs"))
}

func TestE2E_CalculatorAndDictionary(t *testing.T) {
	app := newTestApp(t, draft.NewMemoryStore(time.Hour), nil)

	status, raw := app.do(t, http.MethodPost, "/api/calculator/emi", "",
		`{"principal":1000000,"annualRate":15,"tenureMonths":24}`)
	require.Equal(t, http.StatusOK, status, string(raw))
	var emi calculateemi.Output
	require.NoError(t, json.Unmarshal(raw, &emi))
	assert.Equal(t, float64(48487), emi.EMI)

	status, raw = app.do(t, http.MethodGet, "/api/dictionary?q=emi&category=Loans", "", "")
	require.Equal(t, http.StatusOK, status, string(raw))
	var dict searchdictionary.Output
	require.NoError(t, json.Unmarshal(raw, &dict))
	require.NotEmpty(t, dict.Terms)
	for _, term := range dict.Terms {
		assert.Equal(t, "Loans", string(term.Category))
	}
}
