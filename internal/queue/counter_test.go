package queue

import (
	"context"
	"sync"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-queue-backend/internal/models"
)

func TestRedisNumberSource_Next(t *testing.T) {
	db, mock := redismock.NewClientMock()
	source := NewRedisNumberSource(db)

	mock.ExpectIncr("queue:department:registrar:date:2026-03-09").SetVal(1)
	mock.ExpectIncr("queue:department:registrar:date:2026-03-09").SetVal(2)
	mock.ExpectIncr("queue:department:admissions:date:2026-03-09").SetVal(1)

	n, err := source.Next(context.Background(), models.DepartmentRegistrar, "2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = source.Next(context.Background(), models.DepartmentRegistrar, "2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = source.Next(context.Background(), models.DepartmentAdmissions, "2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisNumberSource_NextUnavailable(t *testing.T) {
	db, mock := redismock.NewClientMock()
	source := NewRedisNumberSource(db)

	mock.ExpectIncr("queue:department:registrar:date:2026-03-09").SetErr(context.DeadlineExceeded)

	_, err := source.Next(context.Background(), models.DepartmentRegistrar, "2026-03-09")
	require.Error(t, err)
	var unavail *UnavailableError
	assert.ErrorAs(t, err, &unavail)
}

func TestRedisNumberSource_Reset(t *testing.T) {
	db, mock := redismock.NewClientMock()
	source := NewRedisNumberSource(db)

	mock.ExpectDel("queue:department:registrar:date:2026-03-09").SetVal(1)

	require.NoError(t, source.Reset(context.Background(), models.DepartmentRegistrar, "2026-03-09"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryNumberSource_ConcurrentAllocationsAreDistinct(t *testing.T) {
	source := NewMemoryNumberSource()

	const n = 200
	var wg sync.WaitGroup
	results := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := source.Next(context.Background(), models.DepartmentRegistrar, "2026-03-09")
			assert.NoError(t, err)
			results <- num
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for num := range results {
		assert.False(t, seen[num], "number %d allocated twice", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestMemoryNumberSource_ResetStartsOver(t *testing.T) {
	source := NewMemoryNumberSource()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := source.Next(ctx, models.DepartmentRegistrar, "2026-03-09")
		require.NoError(t, err)
	}
	require.NoError(t, source.Reset(ctx, models.DepartmentRegistrar, "2026-03-09"))

	n, err := source.Next(ctx, models.DepartmentRegistrar, "2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
