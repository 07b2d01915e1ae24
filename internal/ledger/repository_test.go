package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/models"
)

var tenantCols = []string{"id", "owner_id", "pg_id", "room_id", "name", "mobile", "address", "password_hash", "created_at"}

func TestUpgradeRunsInOneTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	owner, tenantID := uuid.New(), uuid.New()
	oldPG, newPG := uuid.New(), uuid.New()
	oldRoom, newRoom := uuid.New(), uuid.New()
	created := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	at := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	assignmentID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM tenants WHERE id = \\$1 FOR UPDATE").
		WithArgs(tenantID).
		WillReturnRows(mock.NewRows(tenantCols).
			AddRow(tenantID, owner, &oldPG, &oldRoom, "Asha", "9000000001", "", "hash", created))
	mock.ExpectQuery("FROM pg_rooms WHERE id = \\$1 FOR UPDATE").
		WithArgs(newRoom).
		WillReturnRows(mock.NewRows([]string{"id", "pg_id", "floor_id", "room_number", "capacity", "rent", "created_at"}).
			AddRow(newRoom, newPG, uuid.New(), "B", 2, decimal.NewNullDecimal(decimal.NewFromInt(6000)), created))
	mock.ExpectQuery("FROM pgs WHERE id").
		WithArgs(newPG).
		WillReturnRows(mock.NewRows([]string{"id", "name", "address", "owner_id", "created_at"}).
			AddRow(newPG, "Lakeview", "Ring Road", owner, created))
	mock.ExpectQuery("FROM pg_assignments WHERE tenant_id = \\$1 AND active").
		WithArgs(tenantID).
		WillReturnRows(mock.NewRows([]string{"id", "tenant_id", "room_id", "pg_id", "rent", "start_date", "end_date", "active"}).
			AddRow(uuid.New(), tenantID, oldRoom, oldPG, decimal.NewFromInt(4000), created, nil, true))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(newRoom, tenantID).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("UPDATE pg_assignments SET active = FALSE").
		WithArgs(tenantID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("INSERT INTO pg_assignments").
		WithArgs(tenantID, newRoom, newPG, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow(assignmentID))
	mock.ExpectExec("UPDATE tenants SET pg_id").
		WithArgs(tenantID, newPG, newRoom).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	svc := NewService(NewRepository(mock), nil, nil)
	svc.now = func() time.Time { return at }
	a, err := svc.Upgrade(ctx, MoveRequest{TenantID: tenantID, RoomID: newRoom, PGID: newPG})
	require.NoError(t, err)
	assert.Equal(t, assignmentID, a.ID)
	assert.True(t, a.Rent.Equal(decimal.NewFromInt(6000)))
	assert.True(t, a.StartDate.Equal(at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveRollsBackOnCapacity(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	owner, tenantID, pgID, roomID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	created := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM tenants WHERE id").
		WithArgs(tenantID).
		WillReturnRows(mock.NewRows(tenantCols).
			AddRow(tenantID, owner, &pgID, nil, "Asha", "9000000001", "", "hash", created))
	mock.ExpectQuery("FROM pg_rooms").
		WithArgs(roomID).
		WillReturnRows(mock.NewRows([]string{"id", "pg_id", "floor_id", "room_number", "capacity", "rent", "created_at"}).
			AddRow(roomID, pgID, uuid.New(), "101", 1, decimal.NullDecimal{}, created))
	mock.ExpectQuery("FROM pgs WHERE id").
		WithArgs(pgID).
		WillReturnRows(mock.NewRows([]string{"id", "name", "address", "owner_id", "created_at"}).
			AddRow(pgID, "Sunrise", "MG Road", owner, created))
	mock.ExpectQuery("FROM pg_assignments").
		WithArgs(tenantID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(roomID, tenantID).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err = NewService(NewRepository(mock), nil, nil).Assign(context.Background(), MoveRequest{TenantID: tenantID, RoomID: roomID, PGID: pgID})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveUnknownTenant(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tenantID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery("FROM tenants WHERE id").WithArgs(tenantID).WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err = NewRepository(mock).WithTenantLock(context.Background(), tenantID, func(Tx, *models.Tenant) error {
		t.Fatal("callback must not run")
		return nil
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryNewestFirst(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tenantID, room, pg := uuid.New(), uuid.New(), uuid.New()
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start
	mock.ExpectQuery("ORDER BY start_date DESC").
		WithArgs(tenantID).
		WillReturnRows(mock.NewRows([]string{"id", "tenant_id", "room_id", "pg_id", "rent", "start_date", "end_date", "active"}).
			AddRow(uuid.New(), tenantID, room, pg, decimal.NewFromInt(6000), start, nil, true).
			AddRow(uuid.New(), tenantID, room, pg, decimal.NewFromInt(4000), start.AddDate(0, -2, 0), &end, false))

	list, err := NewRepository(mock).History(context.Background(), tenantID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].Active)
	assert.Nil(t, list[0].EndDate)
	require.NotNil(t, list[1].EndDate)
	assert.True(t, list[1].EndDate.Equal(start))
}
