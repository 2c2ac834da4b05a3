package bookings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codr1/Escapade/internal/api/apiutil"
	"github.com/codr1/Escapade/internal/db"
)

func createUser(t *testing.T, database *db.DB, username string) db.User {
	t.Helper()
	user, err := database.Queries.CreateUser(context.Background(), db.CreateUserParams{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return user
}

func TestCreate_RecordsOwner(t *testing.T) {
	svc, database := newTestService(t, nil)
	owner := createUser(t, database, "cuddy")

	req := validRequest()
	req.UserID = owner.ID
	booking, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, booking.UserID.Valid)
	assert.Equal(t, owner.ID, booking.UserID.Int64)

	anonymous := validRequest()
	anonymous.Time = "16:00"
	booking, err = svc.Create(context.Background(), anonymous)
	require.NoError(t, err)
	assert.False(t, booking.UserID.Valid)
}

func TestListForUser(t *testing.T) {
	svc, database := newTestService(t, nil)
	ctx := context.Background()
	cuddy := createUser(t, database, "cuddy")
	wilson := createUser(t, database, "wilson")

	var want []string
	for _, slot := range []string{"14:00", "16:00", "18:00"} {
		req := validRequest()
		req.Time = slot
		req.UserID = cuddy.ID
		booking, err := svc.Create(ctx, req)
		require.NoError(t, err)
		want = append([]string{booking.OrderNumber}, want...)
	}
	other := validRequest()
	other.Time = "20:00"
	other.UserID = wilson.ID
	_, err := svc.Create(ctx, other)
	require.NoError(t, err)

	rows, err := svc.ListForUser(ctx, cuddy.ID)
	require.NoError(t, err)
	var got []string
	for _, row := range rows {
		got = append(got, row.OrderNumber)
	}
	assert.Equal(t, want, got)

	rows, err = svc.ListForUser(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestNormalizeFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter SearchFilter
		field  string
	}{
		{name: "empty", filter: SearchFilter{}},
		{name: "status", filter: SearchFilter{Status: " Confirmed "}},
		{name: "year", filter: SearchFilter{Date: "2024"}},
		{name: "month", filter: SearchFilter{Date: "2024-03"}},
		{name: "day", filter: SearchFilter{Date: "2024-03-10"}},
		{name: "unknown status", filter: SearchFilter{Status: "archived"}, field: "status"},
		{name: "bad month", filter: SearchFilter{Date: "2024-13"}, field: "date"},
		{name: "bad day", filter: SearchFilter{Date: "2024-02-30"}, field: "date"},
		{name: "free text date", filter: SearchFilter{Date: "March"}, field: "date"},
		{name: "long query", filter: SearchFilter{Query: string(make([]byte, 101))}, field: "q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeFilter(tt.filter)
			if tt.field == "" {
				require.NoError(t, err)
				assert.Equal(t, DefaultSearchLimit, got.Limit)
				return
			}
			var fieldErr apiutil.FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.field, fieldErr.Field)
		})
	}

	got, err := NormalizeFilter(SearchFilter{Status: " Confirmed ", Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.Equal(t, 20, got.Limit)
}

func TestSearch(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	second := validRequest()
	second.Name = "James Wilson"
	second.Email = "wilson@example.com"
	second.Date = "2024-03-12"
	created, err := svc.Create(ctx, second)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, created.OrderNumber, StatusCancelled)
	require.NoError(t, err)

	rows, err := svc.Search(ctx, SearchFilter{Query: "wilson"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, created.OrderNumber, rows[0].OrderNumber)

	rows, err = svc.Search(ctx, SearchFilter{Status: StatusConfirmed, Date: "2024-03"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, first.OrderNumber, rows[0].OrderNumber)

	rows, err = svc.Search(ctx, SearchFilter{Date: "2024-03-12"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = svc.Search(ctx, SearchFilter{Status: "archived"})
	var fieldErr apiutil.FieldError
	assert.ErrorAs(t, err, &fieldErr)
}

func TestSetStatus(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	booking, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	updated, err := svc.SetStatus(ctx, booking.OrderNumber, "Cancelled")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)

	stored, err := svc.Get(ctx, booking.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)

	_, err = svc.Create(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, booking.OrderNumber, StatusConfirmed)
	assert.ErrorIs(t, err, ErrSlotTaken)

	_, err = svc.SetStatus(ctx, "NOPE0000", StatusCancelled)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.SetStatus(ctx, booking.OrderNumber, "archived")
	var fieldErr apiutil.FieldError
	assert.ErrorAs(t, err, &fieldErr)
}

func TestDatePeriods(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	for _, date := range []string{"2024-03-10", "2024-03-12", "2024-04-02"} {
		req := validRequest()
		req.Date = date
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}

	years, err := svc.DatePeriods(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024"}, years)

	months, err := svc.DatePeriods(ctx, "2024")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03", "2024-04"}, months)

	days, err := svc.DatePeriods(ctx, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-10", "2024-03-12"}, days)

	leaf, err := svc.DatePeriods(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Empty(t, leaf)

	_, err = svc.DatePeriods(ctx, "March")
	var fieldErr apiutil.FieldError
	assert.ErrorAs(t, err, &fieldErr)
}
