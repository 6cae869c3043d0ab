package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omkarpat/dcr-service/internal/model"
)

// ErrDuplicateDate is returned when a second header would land on the same
// (branch, date). The unique index enforces the invariant; the in-transaction
// pre-check turns it into a typed error before the insert is attempted.
var ErrDuplicateDate = errors.New("dcr already exists for date")

// NumberFunc derives the next DCR number from the highest number already
// stored for the same branch and date (nil when none exists). It is called
// inside the write transaction so the sequence cannot drift.
type NumberFunc func(last *string) string

type DCRRepository struct {
	db *gorm.DB
}

func NewDCRRepository(db *gorm.DB) *DCRRepository {
	return &DCRRepository{db: db}
}

func (r *DCRRepository) GetBranch(ctx context.Context, id uuid.UUID) (*model.Branch, error) {
	var branch model.Branch
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, code, name
		FROM branches
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&branch).Error; err != nil {
		return nil, err
	}
	if branch.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &branch, nil
}

func (r *DCRRepository) GetHeader(ctx context.Context, id uuid.UUID) (*model.DCRHeader, error) {
	var header model.DCRHeader
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			branch_id,
			form_id,
			dcr_number,
			dcr_date,
			status,
			reject_reason,
			created_by,
			updated_by,
			created_at,
			updated_at
		FROM dcr_header
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&header).Error; err != nil {
		return nil, err
	}
	if header.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &header, nil
}

// ListSummaries returns header summaries for a branch within [from, to),
// newest date first.
func (r *DCRRepository) ListSummaries(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]model.DCRSummary, error) {
	var rows []model.DCRSummary
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, dcr_number, dcr_date, status
		FROM dcr_header
		WHERE branch_id = ?
			AND dcr_date >= ?
			AND dcr_date < ?
		ORDER BY dcr_date DESC
	`, branchID, from, to).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAccepted returns ACCEPTED headers for a branch within [from, to),
// oldest date first, the order the aggregation engine consumes them in.
func (r *DCRRepository) ListAccepted(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]model.DCRHeader, error) {
	var rows []model.DCRHeader
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			branch_id,
			form_id,
			dcr_number,
			dcr_date,
			status,
			reject_reason,
			created_by,
			updated_by,
			created_at,
			updated_at
		FROM dcr_header
		WHERE branch_id = ?
			AND status = ?
			AND dcr_date >= ?
			AND dcr_date < ?
		ORDER BY dcr_date ASC
	`, branchID, model.DCRStatusAccepted, from, to).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ValuesByKey returns a DCR's values keyed by the field key code.
func (r *DCRRepository) ValuesByKey(ctx context.Context, dcrID uuid.UUID) (map[string]float64, error) {
	var rows []struct {
		KeyCode string
		Value   float64
	}
	if err := r.db.WithContext(ctx).Raw(`
		SELECT f.key_code, v.value_num AS value
		FROM dcr_values v
		JOIN form_fields f ON f.id = v.field_id
		WHERE v.dcr_id = ?
	`, dcrID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	values := make(map[string]float64, len(rows))
	for _, row := range rows {
		values[row.KeyCode] = row.Value
	}
	return values, nil
}

// ValuesByFieldID returns a DCR's values keyed by field id.
func (r *DCRRepository) ValuesByFieldID(ctx context.Context, dcrID uuid.UUID) (map[uuid.UUID]float64, error) {
	var rows []struct {
		FieldID uuid.UUID
		Value   float64
	}
	if err := r.db.WithContext(ctx).Raw(`
		SELECT field_id, value_num AS value
		FROM dcr_values
		WHERE dcr_id = ?
	`, dcrID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	values := make(map[uuid.UUID]float64, len(rows))
	for _, row := range rows {
		values[row.FieldID] = row.Value
	}
	return values, nil
}

// Create persists a new header and its values in one transaction. The
// duplicate-date invariant is re-checked inside the transaction and the
// DCR number is derived there from the persisted maximum.
func (r *DCRRepository) Create(ctx context.Context, header *model.DCRHeader, values []model.DCRValue, nextNumber NumberFunc) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := dateTaken(tx, header.BranchID, header.DCRDate, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateDate
		}

		last, err := maxNumberForDate(tx, header.BranchID, header.DCRDate)
		if err != nil {
			return err
		}
		header.DCRNumber = nextNumber(last)

		if err := tx.Exec(`
			INSERT INTO dcr_header (
				id,
				branch_id,
				form_id,
				dcr_number,
				dcr_date,
				status,
				reject_reason,
				created_by,
				updated_by,
				created_at,
				updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			header.ID,
			header.BranchID,
			header.FormID,
			header.DCRNumber,
			header.DCRDate,
			header.Status,
			header.RejectReason,
			header.CreatedBy,
			header.UpdatedBy,
			header.CreatedAt,
			header.UpdatedAt,
		).Error; err != nil {
			return err
		}

		return insertValues(tx, header.ID, values)
	})
}

// Update rewrites a header and replaces all of its values in one
// transaction. A non-nil nextNumber regenerates the DCR number for the
// (possibly changed) date. Values not present in the new set disappear.
func (r *DCRRepository) Update(ctx context.Context, header *model.DCRHeader, values []model.DCRValue, nextNumber NumberFunc) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := dateTaken(tx, header.BranchID, header.DCRDate, header.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateDate
		}

		if nextNumber != nil {
			last, err := maxNumberForDate(tx, header.BranchID, header.DCRDate)
			if err != nil {
				return err
			}
			header.DCRNumber = nextNumber(last)
		}

		if err := tx.Exec(`
			UPDATE dcr_header
			SET dcr_date = ?, dcr_number = ?, updated_by = ?, updated_at = ?
			WHERE id = ?
		`, header.DCRDate, header.DCRNumber, header.UpdatedBy, header.UpdatedAt, header.ID).Error; err != nil {
			return err
		}

		if err := tx.Exec(`DELETE FROM dcr_values WHERE dcr_id = ?`, header.ID).Error; err != nil {
			return err
		}
		return insertValues(tx, header.ID, values)
	})
}

// TransitionStatus performs a single conditional status update: the row
// changes only if its current status is in from, so two racing admins
// cannot both win. Returns false when the guard did not match.
func (r *DCRRepository) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	from []model.DCRStatus,
	to model.DCRStatus,
	setReason bool,
	reason *string,
	updatedBy uuid.UUID,
	now time.Time,
) (bool, error) {
	var result *gorm.DB
	if setReason {
		result = r.db.WithContext(ctx).Exec(`
			UPDATE dcr_header
			SET status = ?, reject_reason = ?, updated_by = ?, updated_at = ?
			WHERE id = ? AND status IN ?
		`, to, reason, updatedBy, now, id, from)
	} else {
		result = r.db.WithContext(ctx).Exec(`
			UPDATE dcr_header
			SET status = ?, updated_by = ?, updated_at = ?
			WHERE id = ? AND status IN ?
		`, to, updatedBy, now, id, from)
	}
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func dateTaken(tx *gorm.DB, branchID uuid.UUID, date time.Time, excludeID uuid.UUID) (bool, error) {
	dayStart, dayEnd := dayWindow(date)
	var row struct {
		ID uuid.UUID
	}
	err := tx.Raw(`
		SELECT id
		FROM dcr_header
		WHERE branch_id = ?
			AND dcr_date >= ?
			AND dcr_date < ?
			AND id <> ?
		LIMIT 1
	`, branchID, dayStart, dayEnd, excludeID).Scan(&row).Error
	if err != nil {
		return false, err
	}
	return row.ID != uuid.Nil, nil
}

// maxNumberForDate returns MAX(dcr_number), a lexicographic max. Safe while
// the unique (branch_id, dcr_date) index caps each day at one row; numeric
// suffix ordering would be needed if that index were ever relaxed past -9.
func maxNumberForDate(tx *gorm.DB, branchID uuid.UUID, date time.Time) (*string, error) {
	dayStart, dayEnd := dayWindow(date)
	var row struct {
		Last *string
	}
	err := tx.Raw(`
		SELECT MAX(dcr_number) AS last
		FROM dcr_header
		WHERE branch_id = ?
			AND dcr_date >= ?
			AND dcr_date < ?
	`, branchID, dayStart, dayEnd).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return row.Last, nil
}

func insertValues(tx *gorm.DB, dcrID uuid.UUID, values []model.DCRValue) error {
	for _, v := range values {
		if err := tx.Exec(`
			INSERT INTO dcr_values (dcr_id, field_id, value_num)
			VALUES (?, ?, ?)
		`, dcrID, v.FieldID, v.Value).Error; err != nil {
			return err
		}
	}
	return nil
}

func dayWindow(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
