// internal/wizard/service.go
package wizard

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"infinz-leadgen/internal/backend"
	apperrors "infinz-leadgen/internal/common/errors"
	"infinz-leadgen/internal/common/logger"
	"infinz-leadgen/internal/common/metrics"
	"infinz-leadgen/internal/common/observability"
	"infinz-leadgen/internal/draft"
	"infinz-leadgen/internal/models"

	"github.com/google/uuid"
)

// Backend is the subset of the backend client the wizard calls.
type Backend interface {
	SendOTP(ctx context.Context, mobile string) error
	VerifyOTP(ctx context.Context, mobile, otp string) (*backend.VerifyOTPResult, error)
	SaveUser(ctx context.Context, token string, req *backend.UserRequest) error
	CreatePersonalLoan(ctx context.Context, token string, req *backend.PersonalLoanRequest) (*backend.LoanResult, error)
	CreateBusinessLoan(ctx context.Context, token string, req *backend.BusinessLoanRequest) (*backend.LoanResult, error)
	PresignUpload(ctx context.Context, token, fileName, contentType string) (*backend.PresignResult, error)
	Upload(ctx context.Context, presignedURL, contentType string, data []byte) error
}

// LeadSink receives a copy of every successful submission.
type LeadSink interface {
	Name() string
	Deliver(ctx context.Context, lead *models.Lead) error
}

type Options struct {
	ResendCooldown time.Duration
	StepTimeout    time.Duration
	LeadTimeout    time.Duration
	Now            func() time.Time
	NewID          func() string
}

const lockStripes = 64

type inFlight struct {
	generation int64
	cancel     context.CancelFunc
}

// Service runs wizard steps: load the draft, apply the transition, persist,
// then perform the requested effect and feed its outcome back.
type Service struct {
	store   draft.Store
	backend Backend
	sinks   []LeadSink
	machine *Machine
	logger  logger.Logger
	obs     *observability.Observability

	stepTimeout time.Duration
	leadTimeout time.Duration
	now         func() time.Time
	newID       func() string

	locks [lockStripes]sync.Mutex

	mu       sync.Mutex
	inFlight map[string]inFlight

	leads sync.WaitGroup
}

func NewService(store draft.Store, be Backend, sinks []LeadSink, opts Options, log logger.Logger, obs *observability.Observability) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.LeadTimeout <= 0 {
		opts.LeadTimeout = 10 * time.Second
	}
	return &Service{
		store:       store,
		backend:     be,
		sinks:       sinks,
		machine:     NewMachine(opts.ResendCooldown, 2*opts.StepTimeout),
		logger:      log.WithFields(map[string]interface{}{"component": "wizard"}),
		obs:         obs,
		stepTimeout: opts.StepTimeout,
		leadTimeout: opts.LeadTimeout,
		now:         opts.Now,
		newID:       opts.NewID,
		inFlight:    make(map[string]inFlight),
	}
}

// ==========================
// Operations
// ==========================

// Start creates a draft at MobileEntry.
func (s *Service) Start(ctx context.Context, loanType models.LoanType, applyData *models.ApplyData) (*View, error) {
	if !loanType.Valid() {
		return nil, apperrors.NewFieldValidationError("loanType", "Select a loan type")
	}
	d := models.NewDraft(s.newID(), loanType, applyData, s.now())
	if err := s.store.Set(ctx, d.ID, d); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("wizard session started", map[string]interface{}{
		"draftId":  d.ID,
		"loanType": loanType,
	})
	return s.machine.View(d, s.now()), nil
}

// Get returns the current draft, for resuming after a reload.
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.machine.View(d, s.now()), nil
}

func (s *Service) SubmitMobile(ctx context.Context, id, mobile string) (*View, error) {
	return s.step(ctx, id, Event{Kind: EventSubmitMobile, Mobile: strings.TrimSpace(mobile)})
}

func (s *Service) ResendOTP(ctx context.Context, id string) (*View, error) {
	return s.step(ctx, id, Event{Kind: EventResendOTP})
}

func (s *Service) VerifyOTP(ctx context.Context, id, otp string) (*View, error) {
	return s.step(ctx, id, Event{Kind: EventSubmitOTP, OTP: strings.TrimSpace(otp)})
}

func (s *Service) SubmitPersonalDetails(ctx context.Context, id string, pd models.PersonalDetails) (*View, error) {
	return s.step(ctx, id, Event{Kind: EventSubmitPersonalDetails, PersonalDetails: &pd})
}

func (s *Service) UploadSalarySlip(ctx context.Context, id string, slip *SalarySlip) (*View, error) {
	return s.step(ctx, id, Event{Kind: EventUploadSalarySlip, SalarySlip: slip})
}

func (s *Service) SubmitLoan(ctx context.Context, id string, form *LoanForm) (*View, error) {
	return s.step(ctx, id, Event{Kind: EventSubmitLoan, Loan: form})
}

// Reset closes the modal: the draft restarts at MobileEntry and any
// pending step is cancelled. An expired draft is recreated under the same id.
func (s *Service) Reset(ctx context.Context, id string, loanType models.LoanType) (*View, error) {
	view, err := s.step(ctx, id, Event{Kind: EventReset})
	if !apperrors.HasCode(err, apperrors.ErrCodeSessionExpired) || !loanType.Valid() {
		return view, err
	}
	d := models.NewDraft(id, loanType, nil, s.now())
	if err := s.store.Set(ctx, id, d); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return s.machine.View(d, s.now()), nil
}

// Wait blocks until queued lead deliveries finish.
func (s *Service) Wait() {
	s.leads.Wait()
}

// ==========================
// Step execution
// ==========================

func (s *Service) step(ctx context.Context, id string, ev Event) (*View, error) {
	res, err := s.apply(ctx, id, ev)
	if err != nil {
		return nil, err
	}

	for _, eff := range res.Effects {
		if eff.Blocking() {
			outcome := s.perform(ctx, id, res.Next.Generation, eff)
			return s.complete(ctx, id, outcome)
		}
		s.runEffect(ctx, id, eff)
	}
	return s.machine.View(res.Next, s.now()), nil
}

// apply runs one transition under the draft's lock and persists the result.
func (s *Service) apply(ctx context.Context, id string, ev Event) (Result, error) {
	unlock := s.lock(id)
	defer unlock()

	d, err := s.load(ctx, id)
	if err != nil {
		return Result{}, err
	}

	res, err := s.machine.Transition(d, ev, s.now())
	if err != nil {
		if res.Next != nil {
			if setErr := s.store.Set(ctx, id, res.Next); setErr != nil {
				s.logger.Warn("failed to persist field errors", map[string]interface{}{"draftId": id, "error": setErr})
			}
		}
		s.stepFailed(ev.Kind, err)
		return Result{}, err
	}

	if !clearsDraft(res.Effects) {
		if err := s.store.Set(ctx, id, res.Next); err != nil {
			s.stepFailed(ev.Kind, err)
			return Result{}, apperrors.NewInternalError(err)
		}
	}

	metrics.WizardTransitions.WithLabelValues(string(d.State), string(res.Next.State), string(ev.Kind)).Inc()
	s.logger.Debug("wizard transition", map[string]interface{}{
		"draftId":    id,
		"from":       d.State,
		"to":         res.Next.State,
		"event":      ev.Kind,
		"pending":    res.Next.Pending,
		"generation": res.Next.Generation,
	})
	return res, nil
}

// perform calls the backend for a blocking effect and reports the outcome
// as an event. It never returns an error itself.
func (s *Service) perform(ctx context.Context, id string, generation int64, eff Effect) Event {
	stepCtx, cancel := s.stepContext(ctx)
	s.register(id, generation, cancel)
	defer func() {
		s.release(id, generation)
		cancel()
	}()

	metrics.WizardStepsInFlight.Inc()
	defer metrics.WizardStepsInFlight.Dec()
	start := time.Now()

	outcome := Event{Generation: generation}
	switch eff.Kind {
	case EffectDispatchOTP:
		outcome.Kind = EventOTPDispatched
		if err := s.backend.SendOTP(stepCtx, eff.Mobile); err != nil {
			outcome.Kind, outcome.Err = EventOTPDispatchFailed, err
		}

	case EffectVerifyOTP:
		result, err := s.backend.VerifyOTP(stepCtx, eff.Mobile, eff.OTP)
		if err != nil {
			outcome.Kind, outcome.Err = EventOTPRejected, err
			break
		}
		outcome.Kind = EventOTPVerified
		outcome.AuthToken = result.Token
		outcome.UserID = result.UserID

	case EffectSavePersonalDetails:
		outcome.Kind = EventPersonalDetailsSaved
		if err := s.backend.SaveUser(stepCtx, eff.AuthToken, eff.User); err != nil {
			outcome.Kind, outcome.Err = EventPersonalDetailsFailed, err
		}

	case EffectUploadSalarySlip:
		slip := eff.SalarySlip
		presign, err := s.backend.PresignUpload(stepCtx, eff.AuthToken, slip.FileName, slip.ContentType)
		if err == nil {
			err = s.backend.Upload(stepCtx, presign.URL, slip.ContentType, slip.Data)
		}
		if err != nil {
			outcome.Kind, outcome.Err = EventSalarySlipFailed, err
			break
		}
		outcome.Kind = EventSalarySlipUploaded
		outcome.Reference = presign.PublicURL()

	case EffectSubmitPersonalLoan, EffectSubmitBusinessLoan:
		var (
			result *backend.LoanResult
			err    error
		)
		if eff.Kind == EffectSubmitPersonalLoan {
			result, err = s.backend.CreatePersonalLoan(stepCtx, eff.AuthToken, eff.PersonalLoan)
		} else {
			result, err = s.backend.CreateBusinessLoan(stepCtx, eff.AuthToken, eff.BusinessLoan)
		}
		if err != nil {
			outcome.Kind, outcome.Err = EventLoanFailed, err
			break
		}
		outcome.Kind = EventLoanAccepted
		outcome.Offer = result.Offer
		outcome.Message = result.Message
	}

	status := "success"
	if outcome.Err != nil {
		status = "failure"
	}
	s.obs.RecordStepDuration(ctx, string(eff.Kind), time.Since(start), status)
	return outcome
}

// complete feeds an outcome back into the draft. The store is written even
// when the caller's request was cancelled so the pending marker is released.
func (s *Service) complete(ctx context.Context, id string, outcome Event) (*View, error) {
	storeCtx := context.WithoutCancel(ctx)

	res, err := s.apply(storeCtx, id, outcome)
	if errors.Is(err, ErrStaleOutcome) {
		s.logger.Info("dropping stale wizard outcome", map[string]interface{}{
			"draftId":    id,
			"event":      outcome.Kind,
			"generation": outcome.Generation,
		})
		return nil, apperrors.NewSessionExpiredError("step superseded by reset")
	}
	if err != nil {
		return nil, err
	}

	if outcome.Kind == EventLoanAccepted || outcome.Kind == EventLoanFailed {
		s.recordSubmission(storeCtx, res.Next, outcome)
	}

	for _, eff := range res.Effects {
		s.runEffect(storeCtx, id, eff)
	}

	if outcome.Err != nil {
		stepErr := toStepError(outcome.Kind, outcome.Err)
		s.stepFailed(outcome.Kind, stepErr)
		return nil, stepErr
	}
	return s.machine.View(res.Next, s.now()), nil
}

func (s *Service) runEffect(ctx context.Context, id string, eff Effect) {
	switch eff.Kind {
	case EffectClearDraft:
		if err := s.store.Clear(ctx, id); err != nil {
			s.logger.Warn("failed to clear submitted draft", map[string]interface{}{"draftId": id, "error": err})
		}
	case EffectCancelInFlight:
		s.cancelInFlight(id)
	case EffectDeliverLead:
		s.deliver(ctx, eff.Lead)
	}
}

// deliver hands the lead to every sink in the background. Failures are
// logged and never change the submission outcome.
func (s *Service) deliver(ctx context.Context, lead *models.Lead) {
	ctx = context.WithoutCancel(ctx)
	for _, sink := range s.sinks {
		s.leads.Add(1)
		go func(sink LeadSink) {
			defer s.leads.Done()

			sinkCtx, cancel := context.WithTimeout(ctx, s.leadTimeout)
			defer cancel()

			if err := sink.Deliver(sinkCtx, lead); err != nil {
				metrics.LeadDeliveries.WithLabelValues(sink.Name(), "failure").Inc()
				s.logger.Warn("lead delivery failed", map[string]interface{}{
					"sink":    sink.Name(),
					"draftId": lead.DraftID,
					"error":   err,
				})
				return
			}
			metrics.LeadDeliveries.WithLabelValues(sink.Name(), "success").Inc()
		}(sink)
	}
}

// ==========================
// Helpers
// ==========================

func (s *Service) load(ctx context.Context, id string) (*models.Draft, error) {
	d, err := s.store.Get(ctx, id)
	if errors.Is(err, draft.ErrNotFound) {
		return nil, apperrors.NewSessionExpiredError("draft not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return d, nil
}

func (s *Service) lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	m := &s.locks[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}

func (s *Service) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.stepTimeout > 0 {
		return context.WithTimeout(ctx, s.stepTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Service) register(id string, generation int64, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight[id] = inFlight{generation: generation, cancel: cancel}
}

func (s *Service) release(id string, generation int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.inFlight[id]; ok && entry.generation == generation {
		delete(s.inFlight, id)
	}
}

func (s *Service) cancelInFlight(id string) {
	s.mu.Lock()
	entry, ok := s.inFlight[id]
	delete(s.inFlight, id)
	s.mu.Unlock()

	if ok {
		entry.cancel()
		s.logger.Info("cancelled in-flight wizard step", map[string]interface{}{
			"draftId":    id,
			"generation": entry.generation,
		})
	}
}

func (s *Service) stepFailed(kind EventKind, err error) {
	code := "STALE_OUTCOME"
	if stdErr, ok := apperrors.As(err); ok {
		code = string(stdErr.Code)
	} else if !errors.Is(err, ErrStaleOutcome) {
		code = string(apperrors.ErrCodeInternalError)
	}
	metrics.WizardStepsFailed.WithLabelValues(string(kind), code).Inc()
}

func (s *Service) recordSubmission(ctx context.Context, d *models.Draft, outcome Event) {
	result := "success"
	if outcome.Err != nil {
		result = "failure"
	}
	var amount float64
	if ls := d.LoanSpecifics; ls != nil {
		if ls.Personal != nil {
			amount = ls.Personal.LoanAmount
		} else if ls.Business != nil {
			amount = ls.Business.LoanAmount
		}
	}
	s.obs.RecordSubmission(ctx, string(d.LoanType), result, amount)
	s.logger.Info("loan submission completed", map[string]interface{}{
		"draftId":  d.ID,
		"loanType": d.LoanType,
		"outcome":  result,
		"offer":    d.Offer != nil,
	})
}

func toStepError(kind EventKind, err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.NewNetworkError(string(kind), err)
}

func clearsDraft(effects []Effect) bool {
	for _, eff := range effects {
		if eff.Kind == EffectClearDraft {
			return true
		}
	}
	return false
}
