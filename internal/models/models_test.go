package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPublicHidesPassword(t *testing.T) {
	u := User{
		ID:               uuid.New(),
		Email:            "a@b.test",
		Password:         "$2a$12$hash",
		Role:             RoleAdmin,
		AssignedProducts: []Product{{Key: ProductPGManagement}, {Key: ProductMessManagement}},
	}
	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hash")
	assert.Equal(t, ProductPGManagement, u.ToPublic().ProductKey)
	assert.Equal(t, "", (&User{}).PrimaryProductKey())
}

func TestTenantPublicHidesPassword(t *testing.T) {
	tn := Tenant{ID: uuid.New(), Name: "Ravi", Password: "$2a$12$secret"}
	raw, err := json.Marshal(tn.ToPublic())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
}

func TestRoomRentOrZero(t *testing.T) {
	var nilRoom *Room
	assert.True(t, nilRoom.RentOrZero().IsZero())
	assert.True(t, (&Room{}).RentOrZero().IsZero())
	rent := decimal.NewFromInt(4500)
	assert.True(t, (&Room{Rent: &rent}).RentOrZero().Equal(rent))
}
