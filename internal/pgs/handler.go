package pgs

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/smartnex-ai/backend/internal/access"
	"github.com/smartnex-ai/backend/internal/middleware"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/response"
)

// Store is the persistence used by the handler.
type Store interface {
	Create(ctx context.Context, name, address string, ownerID uuid.UUID) (*models.PG, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.PG, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.PG, error)
	CreateFloor(ctx context.Context, pgID uuid.UUID, number int) (*models.Floor, error)
	GetFloor(ctx context.Context, id uuid.UUID) (*models.Floor, error)
	ListFloors(ctx context.Context, pgID uuid.UUID) ([]models.Floor, error)
	CreateRoom(ctx context.Context, pgID, floorID uuid.UUID, number string, capacity int) (*models.Room, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	ListRooms(ctx context.Context, floorID uuid.UUID) ([]models.Room, error)
	SetRent(ctx context.Context, roomID uuid.UUID, rent decimal.Decimal) (*models.Room, error)
	Tree(ctx context.Context, pgID uuid.UUID) (*models.PGTree, error)
	Trees(ctx context.Context, ownerID uuid.UUID) ([]models.PGTree, error)
}

// CreatePGRequest is the body for POST /pgs.
type CreatePGRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
	OwnerID string `json:"ownerId"`
}

// CreateFloorRequest is the body for POST /pg-structure/floors.
type CreateFloorRequest struct {
	PGID        string `json:"pgId" binding:"required"`
	FloorNumber *int   `json:"floorNumber" binding:"required"`
}

// CreateRoomRequest is the body for POST /pg-structure/rooms.
type CreateRoomRequest struct {
	PGID       string `json:"pgId" binding:"required"`
	FloorID    string `json:"floorId" binding:"required"`
	RoomNumber string `json:"roomNumber" binding:"required"`
	Capacity   *int   `json:"capacity" binding:"required"`
}

// SetRentRequest is the body for PUT /pg-structure/set-rent.
type SetRentRequest struct {
	RoomID string           `json:"roomId" binding:"required"`
	Rent   *decimal.Decimal `json:"rent" binding:"required"`
}

// Handler serves the property hierarchy.
type Handler struct {
	store  Store
	guard  *access.Guard
	logger *zap.Logger
}

// NewHandler creates a PG handler.
func NewHandler(store Store, guard *access.Guard, logger *zap.Logger) *Handler {
	return &Handler{store: store, guard: guard, logger: logger}
}

// Create handles POST /pgs. Admins own what they create; superadmins must name the owner.
func (h *Handler) Create(c *gin.Context) {
	var req CreatePGRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name and address are required")
		return
	}
	p := middleware.CurrentPrincipal(c)
	ownerID, err := access.Owner(p, strings.TrimSpace(req.OwnerID))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	pg, err := h.store.Create(c.Request.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.Address), ownerID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, pg)
}

// List handles GET /pgs?ownerId=.
func (h *Handler) List(c *gin.Context) {
	ownerID, err := access.Owner(middleware.CurrentPrincipal(c), c.Query("ownerId"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	list, err := h.store.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// CreateFloor handles POST /pg-structure/floors.
func (h *Handler) CreateFloor(c *gin.Context) {
	var req CreateFloorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "pgId and floorNumber are required")
		return
	}
	ctx := c.Request.Context()
	pgID, err := access.ParseID("pgId", req.PGID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if _, err := h.guard.ManagePG(ctx, middleware.CurrentPrincipal(c), pgID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	floor, err := h.store.CreateFloor(ctx, pgID, *req.FloorNumber)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, floor)
}

// ListFloors handles GET /pg-structure/floors?pgId=.
func (h *Handler) ListFloors(c *gin.Context) {
	ctx := c.Request.Context()
	pgID, err := access.ParseID("pgId", c.Query("pgId"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if _, err := h.guard.ManagePG(ctx, middleware.CurrentPrincipal(c), pgID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	floors, err := h.store.ListFloors(ctx, pgID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, floors)
}

// CreateRoom handles POST /pg-structure/rooms. The floor must belong to the PG.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "pgId, floorId, roomNumber and capacity are required")
		return
	}
	if *req.Capacity < 0 {
		response.BadRequest(c, "capacity must not be negative")
		return
	}
	ctx := c.Request.Context()
	pgID, err := access.ParseID("pgId", req.PGID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	floorID, err := access.ParseID("floorId", req.FloorID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if _, err := h.guard.ManagePG(ctx, middleware.CurrentPrincipal(c), pgID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	floor, err := h.store.GetFloor(ctx, floorID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if floor.PGID != pgID {
		response.BadRequest(c, "Floor does not belong to this PG")
		return
	}
	room, err := h.store.CreateRoom(ctx, pgID, floorID, strings.TrimSpace(req.RoomNumber), *req.Capacity)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, room)
}

// ListRooms handles GET /pg-structure/rooms?floorId=.
func (h *Handler) ListRooms(c *gin.Context) {
	ctx := c.Request.Context()
	floorID, err := access.ParseID("floorId", c.Query("floorId"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	floor, err := h.store.GetFloor(ctx, floorID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if _, err := h.guard.ManagePG(ctx, middleware.CurrentPrincipal(c), floor.PGID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	rooms, err := h.store.ListRooms(ctx, floorID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, rooms)
}

// SetRent handles PUT /pg-structure/set-rent.
func (h *Handler) SetRent(c *gin.Context) {
	var req SetRentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "roomId and rent are required")
		return
	}
	if req.Rent.IsNegative() {
		response.BadRequest(c, "rent must not be negative")
		return
	}
	ctx := c.Request.Context()
	roomID, err := access.ParseID("roomId", req.RoomID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	room, err := h.store.GetRoom(ctx, roomID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if _, err := h.guard.ManagePG(ctx, middleware.CurrentPrincipal(c), room.PGID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	updated, err := h.store.SetRent(ctx, roomID, req.Rent.Round(2))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Rent updated", updated)
}

// ViewTenants handles GET /pg-structure/view-tenants?pgId=.
func (h *Handler) ViewTenants(c *gin.Context) {
	ctx := c.Request.Context()
	pgID, err := access.ParseID("pgId", c.Query("pgId"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if _, err := h.guard.ManagePG(ctx, middleware.CurrentPrincipal(c), pgID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	tree, err := h.store.Tree(ctx, pgID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, tree)
}

// All handles GET /pg-structure/all?ownerId=.
func (h *Handler) All(c *gin.Context) {
	ownerID, err := access.Owner(middleware.CurrentPrincipal(c), c.Query("ownerId"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	trees, err := h.store.Trees(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, trees)
}
