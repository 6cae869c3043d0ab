package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omkarpat/dcr-service/internal/model"
)

// FormRepository resolves the date-versioned form schema for a branch.
// All methods are pure reads over reference data.
type FormRepository struct {
	db *gorm.DB
}

func NewFormRepository(db *gorm.DB) *FormRepository {
	return &FormRepository{db: db}
}

// ResolveForm returns the schema valid for branchID on date. The form whose
// window contains the date wins; on overlapping windows the latest
// valid_from is taken. gorm.ErrRecordNotFound when no form qualifies.
func (r *FormRepository) ResolveForm(ctx context.Context, branchID uuid.UUID, date time.Time) (*model.Schema, error) {
	var form struct {
		ID uuid.UUID
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT id
		FROM forms
		WHERE branch_id = ?
			AND valid_from <= ?
			AND (valid_to IS NULL OR valid_to > ?)
		ORDER BY valid_from DESC, id DESC
		LIMIT 1
	`, branchID, date, date).Scan(&form).Error
	if err != nil {
		return nil, err
	}
	if form.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.loadSchema(ctx, form.ID)
}

func (r *FormRepository) loadSchema(ctx context.Context, formID uuid.UUID) (*model.Schema, error) {
	var rows []struct {
		GroupID      *uuid.UUID
		GroupLabel   *string
		FieldID      uuid.UUID
		KeyCode      string
		FieldLabel   string
		DataType     string
		Required     bool
		SortOrder    int
		CustomerID   *uuid.UUID
		CustomerCode *string
		CustomerName *string
		CategoryID   *uuid.UUID
		CategoryCode *string
		CategoryName *string
		CategoryUOM  *string
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			g.id AS group_id,
			g.label AS group_label,
			f.id AS field_id,
			f.key_code,
			f.label AS field_label,
			f.data_type,
			f.required,
			f.sort_order,
			f.customer_id,
			cu.code AS customer_code,
			cu.name AS customer_name,
			f.category_id,
			cat.code AS category_code,
			cat.name AS category_name,
			cat.uom AS category_uom
		FROM form_fields f
		LEFT JOIN form_groups g ON g.id = f.group_id
		LEFT JOIN customers cu ON cu.id = f.customer_id
		LEFT JOIN contract_categories cat ON cat.id = f.category_id
		WHERE f.form_id = ?
		ORDER BY
			CASE WHEN g.id IS NULL THEN 0 ELSE 1 END,
			COALESCE(g.sort_order, 0),
			f.sort_order,
			f.key_code
	`, formID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	schema := &model.Schema{FormID: formID}
	index := make(map[uuid.UUID]int)
	ungrouped := -1

	for _, row := range rows {
		var pos int
		if row.GroupID == nil {
			if ungrouped < 0 {
				schema.Groups = append(schema.Groups, model.SchemaGroup{Fields: []model.FieldSpec{}})
				ungrouped = len(schema.Groups) - 1
			}
			pos = ungrouped
		} else {
			p, ok := index[*row.GroupID]
			if !ok {
				schema.Groups = append(schema.Groups, model.SchemaGroup{
					ID:     row.GroupID,
					Label:  deref(row.GroupLabel),
					Fields: []model.FieldSpec{},
				})
				p = len(schema.Groups) - 1
				index[*row.GroupID] = p
			}
			pos = p
		}

		schema.Groups[pos].Fields = append(schema.Groups[pos].Fields, model.FieldSpec{
			ID:           row.FieldID,
			KeyCode:      row.KeyCode,
			Label:        row.FieldLabel,
			Type:         model.FieldType(row.DataType),
			Required:     row.Required,
			SortOrder:    row.SortOrder,
			CustomerID:   row.CustomerID,
			CategoryID:   row.CategoryID,
			CustomerCode: deref(row.CustomerCode),
			CustomerName: deref(row.CustomerName),
			CategoryCode: deref(row.CategoryCode),
			CategoryName: deref(row.CategoryName),
			CategoryUOM:  deref(row.CategoryUOM),
		})
	}

	// A form without fields still resolves; renderers get one empty group.
	if len(schema.Groups) == 0 {
		schema.Groups = append(schema.Groups, model.SchemaGroup{Fields: []model.FieldSpec{}})
	}
	return schema, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
