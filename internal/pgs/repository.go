package pgs

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/database"
)

// Repository persists the PG -> floor -> room hierarchy.
type Repository struct {
	db database.DB
}

// NewRepository creates a PG repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a PG owned by ownerID.
func (r *Repository) Create(ctx context.Context, name, address string, ownerID uuid.UUID) (*models.PG, error) {
	const q = `INSERT INTO pgs (name, address, owner_id) VALUES ($1, $2, $3)
		RETURNING id, name, address, owner_id, created_at`
	var pg models.PG
	err := r.db.QueryRow(ctx, q, name, address, ownerID).Scan(&pg.ID, &pg.Name, &pg.Address, &pg.OwnerID, &pg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &pg, nil
}

// GetByID returns a PG or a NotFound error.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.PG, error) {
	const q = `SELECT id, name, address, owner_id, created_at FROM pgs WHERE id = $1`
	var pg models.PG
	err := r.db.QueryRow(ctx, q, id).Scan(&pg.ID, &pg.Name, &pg.Address, &pg.OwnerID, &pg.CreatedAt)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("PG not found")
		}
		return nil, err
	}
	return &pg, nil
}

// ListByOwner returns the owner's PGs, oldest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.PG, error) {
	const q = `SELECT id, name, address, owner_id, created_at FROM pgs WHERE owner_id = $1 ORDER BY created_at, name`
	rows, err := r.db.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.PG{}
	for rows.Next() {
		var pg models.PG
		if err := rows.Scan(&pg.ID, &pg.Name, &pg.Address, &pg.OwnerID, &pg.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, pg)
	}
	return list, rows.Err()
}

// ListStatsByOwner returns the owner's PGs with their tenant counts.
func (r *Repository) ListStatsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.PGStats, error) {
	const q = `SELECT p.id, p.name, p.address, p.owner_id, p.created_at, COUNT(t.id)
		FROM pgs p LEFT JOIN tenants t ON t.pg_id = p.id
		WHERE p.owner_id = $1
		GROUP BY p.id ORDER BY p.created_at, p.name`
	rows, err := r.db.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.PGStats{}
	for rows.Next() {
		var s models.PGStats
		var count int64
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.OwnerID, &s.CreatedAt, &count); err != nil {
			return nil, err
		}
		s.TenantCount = int(count)
		list = append(list, s)
	}
	return list, rows.Err()
}

// CreateFloor inserts a floor. A duplicate floor number in the PG is a Conflict.
func (r *Repository) CreateFloor(ctx context.Context, pgID uuid.UUID, number int) (*models.Floor, error) {
	const q = `INSERT INTO pg_floors (pg_id, floor_number) VALUES ($1, $2)
		RETURNING id, pg_id, floor_number, created_at`
	var f models.Floor
	err := r.db.QueryRow(ctx, q, pgID, number).Scan(&f.ID, &f.PGID, &f.FloorNumber, &f.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("Floor %d already exists in this PG", number).Wrap(err)
		}
		return nil, err
	}
	return &f, nil
}

// GetFloor returns a floor or a NotFound error.
func (r *Repository) GetFloor(ctx context.Context, id uuid.UUID) (*models.Floor, error) {
	const q = `SELECT id, pg_id, floor_number, created_at FROM pg_floors WHERE id = $1`
	var f models.Floor
	err := r.db.QueryRow(ctx, q, id).Scan(&f.ID, &f.PGID, &f.FloorNumber, &f.CreatedAt)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Floor not found")
		}
		return nil, err
	}
	return &f, nil
}

// ListFloors returns a PG's floors in floor order.
func (r *Repository) ListFloors(ctx context.Context, pgID uuid.UUID) ([]models.Floor, error) {
	const q = `SELECT id, pg_id, floor_number, created_at FROM pg_floors WHERE pg_id = $1 ORDER BY floor_number`
	rows, err := r.db.Query(ctx, q, pgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Floor{}
	for rows.Next() {
		var f models.Floor
		if err := rows.Scan(&f.ID, &f.PGID, &f.FloorNumber, &f.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

// CreateRoom inserts a room without rent. A duplicate room number on the floor is a Conflict.
func (r *Repository) CreateRoom(ctx context.Context, pgID, floorID uuid.UUID, number string, capacity int) (*models.Room, error) {
	const q = `INSERT INTO pg_rooms (pg_id, floor_id, room_number, capacity) VALUES ($1, $2, $3, $4)
		RETURNING id, pg_id, floor_id, room_number, capacity, rent, created_at`
	room, err := scanRoom(r.db.QueryRow(ctx, q, pgID, floorID, number, capacity))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("Room %s already exists on this floor", number).Wrap(err)
		}
		return nil, err
	}
	return room, nil
}

// GetRoom returns a room or a NotFound error.
func (r *Repository) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	const q = `SELECT id, pg_id, floor_id, room_number, capacity, rent, created_at FROM pg_rooms WHERE id = $1`
	room, err := scanRoom(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Room not found")
		}
		return nil, err
	}
	return room, nil
}

// ListRooms returns a floor's rooms ordered by number.
func (r *Repository) ListRooms(ctx context.Context, floorID uuid.UUID) ([]models.Room, error) {
	const q = `SELECT id, pg_id, floor_id, room_number, capacity, rent, created_at
		FROM pg_rooms WHERE floor_id = $1 ORDER BY room_number`
	rows, err := r.db.Query(ctx, q, floorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *room)
	}
	return list, rows.Err()
}

// SetRent sets a room's monthly rent.
func (r *Repository) SetRent(ctx context.Context, roomID uuid.UUID, rent decimal.Decimal) (*models.Room, error) {
	const q = `UPDATE pg_rooms SET rent = $2 WHERE id = $1
		RETURNING id, pg_id, floor_id, room_number, capacity, rent, created_at`
	room, err := scanRoom(r.db.QueryRow(ctx, q, roomID, rent))
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Room not found")
		}
		return nil, err
	}
	return room, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(row scanner) (*models.Room, error) {
	var room models.Room
	var rent decimal.NullDecimal
	if err := row.Scan(&room.ID, &room.PGID, &room.FloorID, &room.RoomNumber, &room.Capacity, &rent, &room.CreatedAt); err != nil {
		return nil, err
	}
	if rent.Valid {
		room.Rent = &rent.Decimal
	}
	return &room, nil
}
