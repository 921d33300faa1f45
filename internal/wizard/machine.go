// internal/wizard/machine.go
package wizard

import (
	"errors"
	"time"

	"infinz-leadgen/internal/backend"
	apperrors "infinz-leadgen/internal/common/errors"
	"infinz-leadgen/internal/common/validation"
	"infinz-leadgen/internal/models"
)

// ErrStaleOutcome marks an outcome issued under an older generation or for
// a step that is no longer pending. The outcome is dropped.
var ErrStaleOutcome = errors.New("stale wizard outcome")

// SuccessMessage is shown when a submission succeeds without a matched offer.
const SuccessMessage = "Thank you! Your application has been submitted. Our team will contact you shortly."

const DefaultResendCooldown = 60 * time.Second

// Machine is the wizard transition function. It holds no draft state.
type Machine struct {
	resendCooldown time.Duration
	// pendingTimeout releases a draft whose effect never reported back.
	pendingTimeout time.Duration
}

func NewMachine(resendCooldown, pendingTimeout time.Duration) *Machine {
	if resendCooldown <= 0 {
		resendCooldown = DefaultResendCooldown
	}
	return &Machine{resendCooldown: resendCooldown, pendingTimeout: pendingTimeout}
}

func (m *Machine) ResendCooldown() time.Duration {
	return m.resendCooldown
}

// ResendRemaining is how long until a new OTP may be requested.
func (m *Machine) ResendRemaining(d *models.Draft, now time.Time) time.Duration {
	if d.OTPSentAt == nil {
		return 0
	}
	remaining := d.OTPSentAt.Add(m.resendCooldown).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Transition applies ev to d at now. It never mutates d.
//
// On a validation failure the returned Result still carries the draft with
// its field errors set so the caller can persist them.
func (m *Machine) Transition(d *models.Draft, ev Event, now time.Time) (Result, error) {
	if d == nil {
		return Result{}, apperrors.NewSessionExpiredError("no draft")
	}
	next := d.Clone()
	next.UpdatedAt = now

	if ev.Kind == EventReset {
		return m.reset(d, now), nil
	}

	if expected, ok := outcomePending[ev.Kind]; ok {
		if d.Pending != expected || ev.Generation != d.Generation {
			return Result{}, ErrStaleOutcome
		}
		next.Pending = models.PendingNone
		return m.applyOutcome(next, ev, now)
	}

	if d.Pending != models.PendingNone {
		if m.pendingTimeout <= 0 || now.Sub(d.UpdatedAt) < m.pendingTimeout {
			return Result{}, apperrors.NewRequestInFlightError(string(d.Pending))
		}
		// Abandoned step: release it and make any late outcome stale.
		next.Pending = models.PendingNone
		next.Generation++
	}

	switch ev.Kind {
	case EventSubmitMobile:
		return m.submitMobile(next, ev)
	case EventResendOTP:
		return m.resendOTP(next, now)
	case EventSubmitOTP:
		return m.submitOTP(next, ev)
	case EventSubmitPersonalDetails:
		return m.submitPersonalDetails(next, ev, now)
	case EventUploadSalarySlip:
		return m.uploadSalarySlip(next, ev)
	case EventSubmitLoan:
		return m.submitLoan(next, ev, now)
	default:
		return Result{}, apperrors.NewInvalidTransitionError(string(d.State), string(ev.Kind))
	}
}

var outcomePending = map[EventKind]models.PendingEffect{
	EventOTPDispatched:         models.PendingDispatchOTP,
	EventOTPDispatchFailed:     models.PendingDispatchOTP,
	EventOTPVerified:           models.PendingVerifyOTP,
	EventOTPRejected:           models.PendingVerifyOTP,
	EventPersonalDetailsSaved:  models.PendingSavePersonalDetails,
	EventPersonalDetailsFailed: models.PendingSavePersonalDetails,
	EventSalarySlipUploaded:    models.PendingUploadSalarySlip,
	EventSalarySlipFailed:      models.PendingUploadSalarySlip,
	EventLoanAccepted:          models.PendingSubmitLoan,
	EventLoanFailed:            models.PendingSubmitLoan,
}

// ==========================
// User events
// ==========================

func (m *Machine) submitMobile(next *models.Draft, ev Event) (Result, error) {
	if next.State != models.StateMobileEntry {
		return Result{}, apperrors.NewInvalidTransitionError(string(next.State), string(ev.Kind))
	}
	if !validation.ValidateMobile(ev.Mobile) {
		return rejectFields(next, validation.FieldErrors{"mobileNumber": "Enter a valid 10-digit mobile number"})
	}

	next.MobileNumber = ev.Mobile
	next.Pending = models.PendingDispatchOTP
	clearFeedback(next)
	return Result{Next: next, Effects: []Effect{{Kind: EffectDispatchOTP, Mobile: ev.Mobile}}}, nil
}

func (m *Machine) resendOTP(next *models.Draft, now time.Time) (Result, error) {
	if next.State != models.StateOTPVerification {
		return Result{}, apperrors.NewInvalidTransitionError(string(next.State), string(EventResendOTP))
	}
	if remaining := m.ResendRemaining(next, now); remaining > 0 {
		return Result{}, apperrors.NewOTPResendCooldownError(remaining)
	}
	if next.MobileNumber == "" {
		return Result{}, apperrors.NewSessionExpiredError("mobile number missing")
	}

	next.Pending = models.PendingDispatchOTP
	clearFeedback(next)
	return Result{Next: next, Effects: []Effect{{Kind: EffectDispatchOTP, Mobile: next.MobileNumber}}}, nil
}

func (m *Machine) submitOTP(next *models.Draft, ev Event) (Result, error) {
	if next.State != models.StateOTPVerification {
		return Result{}, apperrors.NewInvalidTransitionError(string(next.State), string(ev.Kind))
	}
	if next.MobileNumber == "" {
		return Result{}, apperrors.NewSessionExpiredError("mobile number missing")
	}
	if !validation.ValidateOTP(ev.OTP) {
		return rejectFields(next, validation.FieldErrors{"otp": "Enter the 6-digit OTP"})
	}

	next.Pending = models.PendingVerifyOTP
	clearFeedback(next)
	return Result{Next: next, Effects: []Effect{{Kind: EffectVerifyOTP, Mobile: next.MobileNumber, OTP: ev.OTP}}}, nil
}

func (m *Machine) submitPersonalDetails(next *models.Draft, ev Event, now time.Time) (Result, error) {
	if next.State != models.StatePersonalDetails {
		return Result{}, apperrors.NewInvalidTransitionError(string(next.State), string(ev.Kind))
	}
	if next.MobileNumber == "" || next.AuthToken == "" {
		return Result{}, apperrors.NewSessionExpiredError("mobile verification missing")
	}
	if ev.PersonalDetails == nil {
		return rejectFields(next, validation.FieldErrors{"personalDetails": "Personal details are required"})
	}

	pd := normalizePersonalDetails(*ev.PersonalDetails)
	next.PersonalDetails = &pd
	if errs := validatePersonalDetails(pd, next.LoanType, now); !errs.Empty() {
		return rejectFields(next, errs)
	}

	req, err := backend.NewUserRequest(next.MobileNumber, next.LoanType, &pd)
	if err != nil {
		return Result{}, apperrors.NewSessionExpiredError(err.Error())
	}

	next.Pending = models.PendingSavePersonalDetails
	clearFeedback(next)
	return Result{Next: next, Effects: []Effect{{Kind: EffectSavePersonalDetails, AuthToken: next.AuthToken, User: req}}}, nil
}

func (m *Machine) uploadSalarySlip(next *models.Draft, ev Event) (Result, error) {
	if beforeLoanForm(next.State) {
		return Result{}, apperrors.NewSessionExpiredError("personal details missing")
	}
	if next.State != models.StateLoanForm || next.LoanType != models.LoanTypePersonal {
		return Result{}, apperrors.NewInvalidTransitionError(string(next.State), string(ev.Kind))
	}
	if next.AuthToken == "" {
		return Result{}, apperrors.NewSessionExpiredError("auth token missing")
	}
	if ev.SalarySlip == nil || len(ev.SalarySlip.Data) == 0 {
		return rejectFields(next, validation.FieldErrors{"salarySlip": "Select a file to upload"})
	}

	next.Pending = models.PendingUploadSalarySlip
	clearFeedback(next)
	return Result{Next: next, Effects: []Effect{{Kind: EffectUploadSalarySlip, AuthToken: next.AuthToken, SalarySlip: ev.SalarySlip}}}, nil
}

func (m *Machine) submitLoan(next *models.Draft, ev Event, now time.Time) (Result, error) {
	if beforeLoanForm(next.State) {
		return Result{}, apperrors.NewSessionExpiredError("personal details missing")
	}
	if next.State != models.StateLoanForm {
		return Result{}, apperrors.NewInvalidTransitionError(string(next.State), string(ev.Kind))
	}
	// Earlier-step data must be present before anything is sent.
	if next.PersonalDetails == nil || next.MobileNumber == "" {
		return Result{}, apperrors.NewSessionExpiredError("personal details missing")
	}
	if ev.Loan == nil {
		return rejectFields(next, validation.FieldErrors{"loan": "Loan details are required"})
	}

	effect := Effect{AuthToken: next.AuthToken}
	switch next.LoanType {
	case models.LoanTypePersonal:
		f, errs := personalLoanFields(ev.Loan, next.ApplyData)
		f.SalarySlipReference = next.SalarySlipReference
		next.LoanSpecifics = &models.LoanSpecifics{Personal: f}
		if !errs.Empty() {
			return rejectFields(next, errs)
		}
		req, err := backend.NewPersonalLoanRequest(next.MobileNumber, next.PersonalDetails, f)
		if err != nil {
			return Result{}, apperrors.NewSessionExpiredError(err.Error())
		}
		effect.Kind = EffectSubmitPersonalLoan
		effect.PersonalLoan = req

	case models.LoanTypeBusiness:
		f, errs := businessLoanFields(ev.Loan, next.ApplyData, now)
		next.LoanSpecifics = &models.LoanSpecifics{Business: f}
		if !errs.Empty() {
			return rejectFields(next, errs)
		}
		req, err := backend.NewBusinessLoanRequest(next.MobileNumber, next.PersonalDetails, f)
		if err != nil {
			return rejectFields(next, validation.FieldErrors{"registrationTypes": "Select at least one registration type"})
		}
		effect.Kind = EffectSubmitBusinessLoan
		effect.BusinessLoan = req

	default:
		return Result{}, apperrors.NewSessionExpiredError("unknown loan type")
	}

	next.Pending = models.PendingSubmitLoan
	clearFeedback(next)
	return Result{Next: next, Effects: []Effect{effect}}, nil
}

// reset returns a fresh draft that keeps only the product and the prefill.
func (m *Machine) reset(d *models.Draft, now time.Time) Result {
	var applyData *models.ApplyData
	if d.ApplyData != nil {
		applyData = d.Clone().ApplyData
	}
	next := models.NewDraft(d.ID, d.LoanType, applyData, now)
	next.CreatedAt = d.CreatedAt
	next.Generation = d.Generation + 1

	effects := []Effect{}
	if d.Pending != models.PendingNone {
		effects = append(effects, Effect{Kind: EffectCancelInFlight})
	}
	return Result{Next: next, Effects: effects}
}

// ==========================
// Outcome events
// ==========================

func (m *Machine) applyOutcome(next *models.Draft, ev Event, now time.Time) (Result, error) {
	switch ev.Kind {
	case EventOTPDispatched:
		sentAt := now
		next.OTPSentAt = &sentAt
		next.State = models.StateOTPVerification

	case EventOTPVerified:
		next.AuthToken = ev.AuthToken
		next.UserID = ev.UserID
		next.State = models.StatePersonalDetails

	case EventPersonalDetailsSaved:
		next.State = models.StateLoanForm

	case EventSalarySlipUploaded:
		next.SalarySlipReference = ev.Reference
		if next.LoanSpecifics != nil && next.LoanSpecifics.Personal != nil {
			next.LoanSpecifics.Personal.SalarySlipReference = ev.Reference
		}

	case EventLoanAccepted:
		next.State = models.StateSuccess
		next.Offer = ev.Offer
		next.Message = SuccessMessage
		return Result{Next: next, Effects: []Effect{
			{Kind: EffectClearDraft},
			{Kind: EffectDeliverLead, Lead: leadFromDraft(next, now)},
		}}, nil

	case EventOTPDispatchFailed, EventOTPRejected, EventPersonalDetailsFailed,
		EventSalarySlipFailed, EventLoanFailed:
		next.Message = failureMessage(ev.Err)
	}
	return Result{Next: next}, nil
}

func leadFromDraft(d *models.Draft, now time.Time) *models.Lead {
	lead := &models.Lead{
		DraftID:      d.ID,
		UserID:       d.UserID,
		LoanType:     d.LoanType,
		MobileNumber: d.MobileNumber,
		Offer:        d.Offer,
		SubmittedAt:  now,
	}
	if pd := d.PersonalDetails; pd != nil {
		lead.FullName = pd.FullName
		lead.Email = pd.Email
		lead.Pincode = pd.Pincode
	}
	if ls := d.LoanSpecifics; ls != nil {
		switch {
		case ls.Personal != nil:
			lead.LoanAmount = ls.Personal.LoanAmount
		case ls.Business != nil:
			lead.LoanAmount = ls.Business.LoanAmount
			lead.BusinessName = ls.Business.BusinessName
		}
	}
	return lead
}

// failureMessage is the user-facing text for a failed backend step.
func failureMessage(err error) string {
	if stdErr, ok := apperrors.As(err); ok && stdErr.Message != "" {
		return stdErr.Message
	}
	return apperrors.GenericFailureMessage
}

// beforeLoanForm reports whether the personal details step is still ahead.
// Loan-form events arriving then mean the client lost track and must restart.
func beforeLoanForm(s models.State) bool {
	switch s {
	case models.StateMobileEntry, models.StateOTPVerification, models.StatePersonalDetails:
		return true
	}
	return false
}

func rejectFields(next *models.Draft, errs validation.FieldErrors) (Result, error) {
	next.Errors = map[string]string(errs)
	next.Message = ""
	return Result{Next: next}, apperrors.NewValidationError(next.Errors)
}

func clearFeedback(d *models.Draft) {
	d.Errors = nil
	d.Message = ""
}
