package author

import (
	"context"
	"testing"
	"time"

	"github.com/dmytrozahor/PS-Task-6/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepo_Lifecycle(t *testing.T) {
	pool := testutil.OpenTestDB(t)
	repo := NewPostgresRepo(pool, 5*time.Second)
	ctx := context.Background()

	a := &Author{
		Email:         "lina@example.com",
		Name:          Name{FirstName: "Lina", LastName: "Kostenko"},
		CanonicalName: "Lina Kostenko",
		Address:       Address{City: "Rzhyshchiv", HouseNumber: 5},
	}
	id, err := repo.Create(ctx, a)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := repo.GetByCanonicalName(ctx, "lina KOSTENKO")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Rzhyshchiv", got.Address.City)
	assert.Equal(t, "", got.PhoneNumber)

	exists, err := repo.ExistsByCanonicalName(ctx, "LINA kostenko", 0)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsByCanonicalName(ctx, "Lina Kostenko", id)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.Create(ctx, &Author{Name: Name{"LINA", "KOSTENKO"}, CanonicalName: "LINA KOSTENKO"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	got.PhoneNumber = "+380"
	require.NoError(t, repo.Update(ctx, &got))

	list, total, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "+380", list[0].PhoneNumber)

	n, err := repo.CountBooks(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, repo.Delete(ctx, id))
	assert.ErrorIs(t, repo.Delete(ctx, id), ErrNotFound)
	_, err = repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}
