package pgs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartnex-ai/backend/internal/models"
)

// Tree returns one PG with its floors, rooms and current tenants.
func (r *Repository) Tree(ctx context.Context, pgID uuid.UUID) (*models.PGTree, error) {
	pg, err := r.GetByID(ctx, pgID)
	if err != nil {
		return nil, err
	}
	floors, err := r.floorTrees(ctx, []uuid.UUID{pg.ID})
	if err != nil {
		return nil, err
	}
	return &models.PGTree{PG: *pg, Floors: nonNilFloors(floors[pg.ID])}, nil
}

// Trees returns every PG of the owner nested the same way as Tree.
func (r *Repository) Trees(ctx context.Context, ownerID uuid.UUID) ([]models.PGTree, error) {
	list, err := r.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(list))
	for _, pg := range list {
		ids = append(ids, pg.ID)
	}
	floors, err := r.floorTrees(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.PGTree, 0, len(list))
	for _, pg := range list {
		out = append(out, models.PGTree{PG: pg, Floors: nonNilFloors(floors[pg.ID])})
	}
	return out, nil
}

func (r *Repository) floorTrees(ctx context.Context, pgIDs []uuid.UUID) (map[uuid.UUID][]models.FloorTree, error) {
	out := make(map[uuid.UUID][]models.FloorTree)
	if len(pgIDs) == 0 {
		return out, nil
	}
	const q = `SELECT f.pg_id, f.id, f.floor_number, f.created_at,
		r.id, r.room_number, r.capacity, r.rent, r.created_at,
		t.id, t.name, t.mobile, t.address, t.created_at
		FROM pg_floors f
		LEFT JOIN pg_rooms r ON r.floor_id = f.id
		LEFT JOIN tenants t ON t.room_id = r.id
		WHERE f.pg_id = ANY($1)
		ORDER BY f.pg_id, f.floor_number, r.room_number, t.name`
	rows, err := r.db.Query(ctx, q, pgIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			f          models.Floor
			roomID     *uuid.UUID
			roomNumber *string
			capacity   *int
			rent       decimal.NullDecimal
			roomAt     *time.Time
			tenantID   *uuid.UUID
			name       *string
			mobile     *string
			address    *string
			tenantAt   *time.Time
		)
		if err := rows.Scan(&f.PGID, &f.ID, &f.FloorNumber, &f.CreatedAt,
			&roomID, &roomNumber, &capacity, &rent, &roomAt,
			&tenantID, &name, &mobile, &address, &tenantAt); err != nil {
			return nil, err
		}

		floors := out[f.PGID]
		if len(floors) == 0 || floors[len(floors)-1].ID != f.ID {
			floors = append(floors, models.FloorTree{Floor: f, Rooms: []models.RoomTree{}})
		}
		floor := &floors[len(floors)-1]

		if roomID != nil {
			if len(floor.Rooms) == 0 || floor.Rooms[len(floor.Rooms)-1].ID != *roomID {
				room := models.Room{ID: *roomID, PGID: f.PGID, FloorID: f.ID, RoomNumber: deref(roomNumber)}
				if capacity != nil {
					room.Capacity = *capacity
				}
				if rent.Valid {
					v := rent.Decimal
					room.Rent = &v
				}
				if roomAt != nil {
					room.CreatedAt = *roomAt
				}
				floor.Rooms = append(floor.Rooms, models.RoomTree{Room: room, Tenants: []models.TenantPublic{}})
			}
			if tenantID != nil {
				rt := &floor.Rooms[len(floor.Rooms)-1]
				pgID, rid := f.PGID, *roomID
				tp := models.TenantPublic{ID: *tenantID, PGID: &pgID, RoomID: &rid, Name: deref(name), Mobile: deref(mobile), Address: deref(address)}
				if tenantAt != nil {
					tp.CreatedAt = *tenantAt
				}
				rt.Tenants = append(rt.Tenants, tp)
			}
		}
		out[f.PGID] = floors
	}
	return out, rows.Err()
}

func nonNilFloors(f []models.FloorTree) []models.FloorTree {
	if f == nil {
		return []models.FloorTree{}
	}
	return f
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
