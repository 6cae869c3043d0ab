package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omkarpat/dcr-service/internal/model"
	"github.com/omkarpat/dcr-service/internal/repository"
)

// DCRService owns the DCR lifecycle: create, edit, and the status
// transitions. Every operation takes the acting principal explicitly.
type DCRService struct {
	dcrs  *repository.DCRRepository
	forms *repository.FormRepository
}

func NewDCRService(dcrs *repository.DCRRepository, forms *repository.FormRepository) *DCRService {
	return &DCRService{dcrs: dcrs, forms: forms}
}

type CreateResult struct {
	ID        uuid.UUID       `json:"id"`
	DCRNumber string          `json:"dcrNumber"`
	Status    model.DCRStatus `json:"status"`
}

// Create opens a new DCR in DRAFT for (branch, date). Only the owning
// branch actor files reports; admins decide on them. The payload is
// validated against the schema valid on that date; header and values are
// persisted in one transaction, with the duplicate-date invariant
// re-checked and the number generated inside it.
func (s *DCRService) Create(ctx context.Context, actor model.Actor, branchID uuid.UUID, payload Payload) (*CreateResult, error) {
	if !actor.OwnsBranch(branchID) {
		return nil, ErrPermissionDenied
	}

	date, err := payload.Date()
	if err != nil {
		return nil, err
	}

	branch, err := s.dcrs.GetBranch(ctx, branchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: branch", ErrNotFound)
		}
		return nil, err
	}

	schema, err := s.forms.ResolveForm(ctx, branchID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no active form for date", ErrNotFound)
		}
		return nil, err
	}

	if msgs := ValidateValues(schema.Fields(), payload); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	now := time.Now().UTC()
	header := &model.DCRHeader{
		ID:        uuid.New(),
		BranchID:  branchID,
		FormID:    schema.FormID,
		DCRDate:   date,
		Status:    model.DCRStatusDraft,
		CreatedBy: actor.UserID,
		UpdatedBy: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	values := buildValues(header.ID, schema.Fields(), payload)

	err = s.dcrs.Create(ctx, header, values, func(last *string) string {
		return NextDCRNumber(branch.Code, date, last)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateDate) {
			return nil, ErrConflict
		}
		return nil, err
	}

	return &CreateResult{ID: header.ID, DCRNumber: header.DCRNumber, Status: header.Status}, nil
}

// Update rewrites an editable DCR. The schema is re-resolved for the
// (possibly new) date, the payload re-validated, and all stored values are
// replaced wholesale: keys absent from the payload disappear.
func (s *DCRService) Update(ctx context.Context, actor model.Actor, dcrID uuid.UUID, payload Payload) error {
	header, err := s.loadHeader(ctx, dcrID)
	if err != nil {
		return err
	}
	if !actor.OwnsBranch(header.BranchID) {
		return ErrPermissionDenied
	}
	if !header.Status.Editable() {
		return ErrPrecondition
	}

	date, err := payload.Date()
	if err != nil {
		return err
	}

	schema, err := s.forms.ResolveForm(ctx, header.BranchID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no active form for date", ErrNotFound)
		}
		return err
	}

	if msgs := ValidateValues(schema.Fields(), payload); len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}

	var nextNumber repository.NumberFunc
	if !sameDay(date, header.DCRDate) {
		branch, err := s.dcrs.GetBranch(ctx, header.BranchID)
		if err != nil {
			return err
		}
		nextNumber = func(last *string) string {
			return NextDCRNumber(branch.Code, date, last)
		}
	}

	header.DCRDate = date
	header.UpdatedBy = actor.UserID
	header.UpdatedAt = time.Now().UTC()
	values := buildValues(header.ID, schema.Fields(), payload)

	if err := s.dcrs.Update(ctx, header, values, nextNumber); err != nil {
		if errors.Is(err, repository.ErrDuplicateDate) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Submit moves a DRAFT or REJECTED report to SUBMITTED.
func (s *DCRService) Submit(ctx context.Context, actor model.Actor, dcrID uuid.UUID) (model.DCRStatus, error) {
	header, err := s.loadHeader(ctx, dcrID)
	if err != nil {
		return "", err
	}
	if !actor.OwnsBranch(header.BranchID) {
		return "", ErrPermissionDenied
	}
	return s.transition(ctx, actor, dcrID,
		[]model.DCRStatus{model.DCRStatusDraft, model.DCRStatusRejected},
		model.DCRStatusSubmitted, false, nil)
}

// Accept moves a SUBMITTED report to ACCEPTED and clears any stored
// rejection reason.
func (s *DCRService) Accept(ctx context.Context, actor model.Actor, dcrID uuid.UUID) (model.DCRStatus, error) {
	if !actor.IsAdmin() {
		return "", ErrPermissionDenied
	}
	if _, err := s.loadHeader(ctx, dcrID); err != nil {
		return "", err
	}
	return s.transition(ctx, actor, dcrID,
		[]model.DCRStatus{model.DCRStatusSubmitted},
		model.DCRStatusAccepted, true, nil)
}

// Reject moves a SUBMITTED or ACCEPTED report to REJECTED. A non-empty
// reason is required and stored on the header.
func (s *DCRService) Reject(ctx context.Context, actor model.Actor, dcrID uuid.UUID, reason string) (model.DCRStatus, error) {
	if !actor.IsAdmin() {
		return "", ErrPermissionDenied
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", fmt.Errorf("%w: reject reason is required", ErrInvalidInput)
	}
	if len(reason) > 255 {
		reason = reason[:255]
	}
	if _, err := s.loadHeader(ctx, dcrID); err != nil {
		return "", err
	}
	return s.transition(ctx, actor, dcrID,
		[]model.DCRStatus{model.DCRStatusSubmitted, model.DCRStatusAccepted},
		model.DCRStatusRejected, true, &reason)
}

// Reopen returns an ACCEPTED report to SUBMITTED so an admin can decide on
// it again.
func (s *DCRService) Reopen(ctx context.Context, actor model.Actor, dcrID uuid.UUID) (model.DCRStatus, error) {
	if !actor.IsAdmin() {
		return "", ErrPermissionDenied
	}
	if _, err := s.loadHeader(ctx, dcrID); err != nil {
		return "", err
	}
	return s.transition(ctx, actor, dcrID,
		[]model.DCRStatus{model.DCRStatusAccepted},
		model.DCRStatusSubmitted, false, nil)
}

// Get returns one DCR with its values keyed by field key code.
func (s *DCRService) Get(ctx context.Context, actor model.Actor, dcrID uuid.UUID) (*model.DCRDetail, error) {
	header, err := s.loadHeader(ctx, dcrID)
	if err != nil {
		return nil, err
	}
	if !actor.CanReadBranch(header.BranchID) {
		return nil, ErrPermissionDenied
	}
	values, err := s.dcrs.ValuesByKey(ctx, dcrID)
	if err != nil {
		return nil, err
	}
	return &model.DCRDetail{
		ID:           header.ID,
		BranchID:     header.BranchID,
		DCRNumber:    header.DCRNumber,
		DCRDate:      header.DCRDate,
		Status:       header.Status,
		RejectReason: header.RejectReason,
		Values:       values,
	}, nil
}

// List returns a branch's header summaries for one month, newest first.
// An empty yearMonth defaults to the current month.
func (s *DCRService) List(ctx context.Context, actor model.Actor, branchID uuid.UUID, yearMonth string) ([]model.DCRSummary, error) {
	if !actor.CanReadBranch(branchID) {
		return nil, ErrPermissionDenied
	}
	if yearMonth == "" {
		yearMonth = time.Now().UTC().Format("2006-01")
	}
	from, to, err := MonthWindow(yearMonth)
	if err != nil {
		return nil, err
	}
	return s.dcrs.ListSummaries(ctx, branchID, from, to)
}

func (s *DCRService) transition(
	ctx context.Context,
	actor model.Actor,
	dcrID uuid.UUID,
	from []model.DCRStatus,
	to model.DCRStatus,
	setReason bool,
	reason *string,
) (model.DCRStatus, error) {
	ok, err := s.dcrs.TransitionStatus(ctx, dcrID, from, to, setReason, reason, actor.UserID, time.Now().UTC())
	if err != nil {
		return "", err
	}
	if !ok {
		// Guard did not match: the header moved since it was loaded, or
		// was never in an allowed state.
		return "", ErrPrecondition
	}
	return to, nil
}

func (s *DCRService) loadHeader(ctx context.Context, dcrID uuid.UUID) (*model.DCRHeader, error) {
	header, err := s.dcrs.GetHeader(ctx, dcrID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return header, nil
}

// MonthWindow converts a yyyy-mm string into the [start, end) date range
// covering that month.
func MonthWindow(yearMonth string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01", yearMonth, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: month must be YYYY-MM", ErrInvalidInput)
	}
	return start, start.AddDate(0, 1, 0), nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
