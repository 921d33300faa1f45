// internal/api/wizard.go
package api

import (
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"time"

	"infinz-leadgen/internal/common/errors"
	"infinz-leadgen/internal/common/validation"
	"infinz-leadgen/internal/models"
	"infinz-leadgen/internal/wizard"

	"github.com/gin-gonic/gin"
)

const salarySlipField = "salarySlip"

var salarySlipContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

type startSessionRequest struct {
	LoanType  models.LoanType   `json:"loanType"`
	ApplyData *models.ApplyData `json:"applyData,omitempty"`
}

type StartSessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Draft     *wizard.View `json:"draft"`
}

type mobileRequest struct {
	MobileNumber string `json:"mobileNumber"`
}

type otpRequest struct {
	OTP string `json:"otp"`
}

func (s *Server) startSession(c *gin.Context) {
	var req startSessionRequest
	if !s.bind(c, validation.SchemaSessionStart, &req) {
		return
	}

	view, err := s.deps.Wizard.Start(c.Request.Context(), req.LoanType, req.ApplyData)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}

	token, expiresAt, err := s.deps.Sessions.Issue(view.ID, string(view.LoanType))
	if err != nil {
		s.errors.Respond(c, errors.NewInternalError(err))
		return
	}

	c.JSON(http.StatusCreated, StartSessionResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
		Draft:     view,
	})
}

func (s *Server) getDraft(c *gin.Context) {
	view, err := s.deps.Wizard.Get(c.Request.Context(), sessionClaims(c).SessionID)
	s.respond(c, http.StatusOK, view, err)
}

func (s *Server) submitMobile(c *gin.Context) {
	var req mobileRequest
	if !s.bind(c, validation.SchemaMobile, &req) {
		return
	}
	view, err := s.deps.Wizard.SubmitMobile(c.Request.Context(), sessionClaims(c).SessionID, req.MobileNumber)
	s.respond(c, http.StatusOK, view, err)
}

func (s *Server) resendOTP(c *gin.Context) {
	view, err := s.deps.Wizard.ResendOTP(c.Request.Context(), sessionClaims(c).SessionID)
	s.respond(c, http.StatusOK, view, err)
}

func (s *Server) verifyOTP(c *gin.Context) {
	var req otpRequest
	if !s.bind(c, validation.SchemaOTPVerify, &req) {
		return
	}
	view, err := s.deps.Wizard.VerifyOTP(c.Request.Context(), sessionClaims(c).SessionID, req.OTP)
	s.respond(c, http.StatusOK, view, err)
}

func (s *Server) submitPersonalDetails(c *gin.Context) {
	var req models.PersonalDetails
	if !s.bind(c, validation.SchemaPersonalDetails, &req) {
		return
	}
	view, err := s.deps.Wizard.SubmitPersonalDetails(c.Request.Context(), sessionClaims(c).SessionID, req)
	s.respond(c, http.StatusOK, view, err)
}

func (s *Server) submitLoan(c *gin.Context) {
	var req wizard.LoanForm
	if !s.bind(c, validation.SchemaLoan, &req) {
		return
	}
	view, err := s.deps.Wizard.SubmitLoan(c.Request.Context(), sessionClaims(c).SessionID, &req)
	s.respond(c, http.StatusOK, view, err)
}

func (s *Server) reset(c *gin.Context) {
	claims := sessionClaims(c)
	view, err := s.deps.Wizard.Reset(c.Request.Context(), claims.SessionID, models.LoanType(claims.LoanType))
	s.respond(c, http.StatusOK, view, err)
}

// uploadSalarySlip reads the multipart file field "salarySlip", capped at
// UploadMaxBytes.
func (s *Server) uploadSalarySlip(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.deps.UploadMaxBytes+(1<<20))

	file, header, err := c.Request.FormFile(salarySlipField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.errors.Respond(c, errors.NewFieldValidationError(salarySlipField, "File is too large"))
			return
		}
		s.errors.Respond(c, errors.NewFieldValidationError(salarySlipField, "Select a file to upload"))
		return
	}
	defer file.Close()

	if header.Size > s.deps.UploadMaxBytes {
		s.errors.Respond(c, errors.NewFieldValidationError(salarySlipField, "File is too large"))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.deps.UploadMaxBytes+1))
	if err != nil {
		s.errors.Respond(c, errors.NewFieldValidationError(salarySlipField, "File could not be read"))
		return
	}
	if int64(len(data)) > s.deps.UploadMaxBytes {
		s.errors.Respond(c, errors.NewFieldValidationError(salarySlipField, "File is too large"))
		return
	}

	contentType := strings.TrimSpace(strings.Split(header.Header.Get("Content-Type"), ";")[0])
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = strings.Split(http.DetectContentType(data), ";")[0]
	}
	if !salarySlipContentTypes[contentType] {
		s.errors.Respond(c, errors.NewFieldValidationError(salarySlipField, "Upload a PDF, JPEG or PNG file"))
		return
	}

	view, err := s.deps.Wizard.UploadSalarySlip(c.Request.Context(), sessionClaims(c).SessionID, &wizard.SalarySlip{
		FileName:    header.Filename,
		ContentType: contentType,
		Data:        data,
	})
	s.respond(c, http.StatusOK, view, err)
}
