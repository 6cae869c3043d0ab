package model

import (
	"time"

	"github.com/google/uuid"
)

type FieldType string

const (
	FieldTypeInteger FieldType = "integer"
	FieldTypeDecimal FieldType = "decimal"
	FieldTypeDate    FieldType = "date"
	FieldTypeText    FieldType = "text"
)

type Form struct {
	ID        uuid.UUID
	BranchID  uuid.UUID
	ValidFrom time.Time
	ValidTo   *time.Time // nil = open-ended
}

// FieldSpec is one resolved form field. KeyCode is the stable machine name
// used to join submitted values across form revisions; row ids are not.
// A field with both CustomerID and CategoryID set is billable.
type FieldSpec struct {
	ID           uuid.UUID  `json:"id"`
	KeyCode      string     `json:"key"`
	Label        string     `json:"label"`
	Type         FieldType  `json:"type"`
	Required     bool       `json:"required"`
	SortOrder    int        `json:"-"`
	CustomerID   *uuid.UUID `json:"customerId,omitempty"`
	CategoryID   *uuid.UUID `json:"categoryId,omitempty"`
	CustomerCode string     `json:"customerCode,omitempty"`
	CustomerName string     `json:"customerName,omitempty"`
	CategoryCode string     `json:"categoryCode,omitempty"`
	CategoryName string     `json:"categoryName,omitempty"`
	CategoryUOM  string     `json:"categoryUom,omitempty"`
}

func (f FieldSpec) Billable() bool {
	return f.CustomerID != nil && f.CategoryID != nil
}

type SchemaGroup struct {
	ID     *uuid.UUID  `json:"id"` // nil for the ungrouped bucket
	Label  string      `json:"label"`
	Fields []FieldSpec `json:"fields"`
}

// Schema is the form valid for one branch on one date, fully resolved:
// groups in sort order, ungrouped fields first, each field enriched with
// its customer/category codes.
type Schema struct {
	FormID uuid.UUID     `json:"formId"`
	Groups []SchemaGroup `json:"groups"`
}

// Fields returns every field of the schema in group/sort order.
func (s Schema) Fields() []FieldSpec {
	var out []FieldSpec
	for _, g := range s.Groups {
		out = append(out, g.Fields...)
	}
	return out
}

// FieldByKey looks a field up by its key code.
func (s Schema) FieldByKey(key string) (FieldSpec, bool) {
	for _, g := range s.Groups {
		for _, f := range g.Fields {
			if f.KeyCode == key {
				return f, true
			}
		}
	}
	return FieldSpec{}, false
}
