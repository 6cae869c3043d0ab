package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omkarpat/dcr-service/internal/model"
	"github.com/omkarpat/dcr-service/internal/repository"
)

// FormService exposes the resolved form schema to clients rendering the
// entry form.
type FormService struct {
	forms *repository.FormRepository
}

func NewFormService(forms *repository.FormRepository) *FormService {
	return &FormService{forms: forms}
}

// Get resolves the schema for a branch on a date; a zero date means today.
func (s *FormService) Get(ctx context.Context, actor model.Actor, branchID uuid.UUID, date time.Time) (*model.Schema, error) {
	if !actor.CanReadBranch(branchID) {
		return nil, ErrPermissionDenied
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	schema, err := s.forms.ResolveForm(ctx, branchID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no active form for branch", ErrNotFound)
		}
		return nil, err
	}
	return schema, nil
}
