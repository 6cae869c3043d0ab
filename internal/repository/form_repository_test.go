package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/omkarpat/dcr-service/internal/model"
)

func TestResolveFormWindow(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewFormRepository(db)
	branchID := seedBranch(t, db, "B1")

	// v1 covers [Jan, Mar), v2 is open-ended from Mar.
	v1 := seedForm(t, db, branchID, date(2024, 1, 1), ptr(date(2024, 3, 1)))
	v2 := seedForm(t, db, branchID, date(2024, 3, 1), nil)
	seedField(t, db, v1, nil, "milk", "Milk", "decimal", 0)
	seedField(t, db, v2, nil, "milk", "Milk", "decimal", 0)
	seedField(t, db, v2, nil, "cheese", "Cheese", "decimal", 1)

	t.Run("date inside first window", func(t *testing.T) {
		schema, err := repo.ResolveForm(ctx, branchID, date(2024, 2, 15))
		require.NoError(t, err)
		assert.Equal(t, v1, schema.FormID)
	})

	t.Run("valid_from is inclusive, valid_to exclusive", func(t *testing.T) {
		schema, err := repo.ResolveForm(ctx, branchID, date(2024, 3, 1))
		require.NoError(t, err)
		assert.Equal(t, v2, schema.FormID)
		assert.Len(t, schema.Fields(), 2)
	})

	t.Run("no form before the first window", func(t *testing.T) {
		_, err := repo.ResolveForm(ctx, branchID, date(2023, 12, 31))
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("other branches never leak", func(t *testing.T) {
		_, err := repo.ResolveForm(ctx, uuid.New(), date(2024, 2, 15))
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestResolveFormOverlapLatestWins(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewFormRepository(db)
	branchID := seedBranch(t, db, "B1")

	seedForm(t, db, branchID, date(2024, 1, 1), nil)
	newer := seedForm(t, db, branchID, date(2024, 2, 1), nil)

	schema, err := repo.ResolveForm(ctx, branchID, date(2024, 2, 15))
	require.NoError(t, err)
	assert.Equal(t, newer, schema.FormID)
}

func TestResolveFormGroupingAndOrder(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewFormRepository(db)
	branchID := seedBranch(t, db, "B1")
	formID := seedForm(t, db, branchID, date(2024, 1, 1), nil)

	customerID := uuid.New()
	categoryID := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO customers (id, code, name) VALUES (?, ?, ?)`,
		customerID, "C", "Dairy Co",
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO contract_categories (id, code, name, uom) VALUES (?, ?, ?, ?)`,
		categoryID, "Cat", "Milk Supply", "L",
	).Error)

	salesID := uuid.New()
	stockID := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO form_groups (id, form_id, label, sort_order) VALUES (?, ?, ?, ?)`,
		salesID, formID, "Sales", 1,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO form_groups (id, form_id, label, sort_order) VALUES (?, ?, ?, ?)`,
		stockID, formID, "Stock", 0,
	).Error)

	seedField(t, db, formID, nil, "consumption", "Consumption", "decimal", 0)
	seedField(t, db, formID, &stockID, "crates", "Crates", "integer", 0)
	milkID := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO form_fields (id, form_id, group_id, key_code, label, data_type, required, sort_order, customer_id, category_id)
		 VALUES (?, ?, ?, ?, ?, ?, 1, 0, ?, ?)`,
		milkID, formID, salesID, "milk", "Milk", "decimal", customerID, categoryID,
	).Error)

	schema, err := repo.ResolveForm(ctx, branchID, date(2024, 2, 1))
	require.NoError(t, err)

	// Ungrouped bucket first, then groups by sort order.
	require.Len(t, schema.Groups, 3)
	assert.Nil(t, schema.Groups[0].ID)
	assert.Equal(t, "consumption", schema.Groups[0].Fields[0].KeyCode)
	assert.Equal(t, "Stock", schema.Groups[1].Label)
	assert.Equal(t, "Sales", schema.Groups[2].Label)

	milk, ok := schema.FieldByKey("milk")
	require.True(t, ok)
	assert.True(t, milk.Required)
	assert.True(t, milk.Billable())
	assert.Equal(t, "C", milk.CustomerCode)
	assert.Equal(t, "Dairy Co", milk.CustomerName)
	assert.Equal(t, "Cat", milk.CategoryCode)
	assert.Equal(t, "L", milk.CategoryUOM)
	assert.Equal(t, model.FieldTypeDecimal, milk.Type)

	crates, ok := schema.FieldByKey("crates")
	require.True(t, ok)
	assert.False(t, crates.Billable())
}

func TestResolveFormEmptyForm(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewFormRepository(db)
	branchID := seedBranch(t, db, "B1")
	seedForm(t, db, branchID, date(2024, 1, 1), nil)

	schema, err := repo.ResolveForm(ctx, branchID, date(2024, 2, 1))
	require.NoError(t, err)
	require.Len(t, schema.Groups, 1)
	assert.Empty(t, schema.Groups[0].Fields)
	assert.Empty(t, schema.Fields())
}
