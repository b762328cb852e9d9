package keypager

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func Test_ParsePageNumber(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 1, false},
		{"  ", 1, false},
		{"1", 1, false},
		{"42", 42, false},
		{" 3 ", 3, false},
		{"last", LastPage, false},
		{"0", 0, false},
		{"-2", -2, false},
		{"first", 0, true},
		{"1.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.raw), func(t *testing.T) {
			got, err := ParsePageNumber(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPage)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func Test_NumberPager_GetLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, (*NumberPager[tUser])(nil).GetLimit())
	require.Equal(t, DefaultLimit, NewNumberPager[tUser]().GetLimit())
	require.Equal(t, NoLimit, NewNumberPager[tUser]().WithLimit(NoLimit).GetLimit())
	require.Equal(t, 7, NewNumberPager[tUser]().WithLimits(Limits{Default: 3, Max: 7}).WithLimit(9).GetLimit())
}

func Test_NumberPager_Paginate(t *testing.T) {
	source := NewSliceSource(newUsers(23), tUserGetters)
	pager := NewNumberPager[tUser]().
		WithLimit(10).
		WithSort(Desc("id", KindInt))

	tests := []struct {
		name       string
		number     int
		wantNumber int
		wantIDs    []int64
		wantStart  int64
		wantEnd    int64
		wantNext   int
		wantPrev   int
	}{
		{
			name:       "first page",
			number:     1,
			wantNumber: 1,
			wantIDs:    []int64{23, 22, 21, 20, 19, 18, 17, 16, 15, 14},
			wantStart:  1,
			wantEnd:    10,
			wantNext:   2,
		},
		{
			name:       "middle page",
			number:     2,
			wantNumber: 2,
			wantIDs:    []int64{13, 12, 11, 10, 9, 8, 7, 6, 5, 4},
			wantStart:  11,
			wantEnd:    20,
			wantNext:   3,
			wantPrev:   1,
		},
		{
			name:       "short last page",
			number:     3,
			wantNumber: 3,
			wantIDs:    []int64{3, 2, 1},
			wantStart:  21,
			wantEnd:    23,
			wantPrev:   2,
		},
		{
			name:       "last page alias",
			number:     LastPage,
			wantNumber: 3,
			wantIDs:    []int64{3, 2, 1},
			wantStart:  21,
			wantEnd:    23,
			wantPrev:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := pager.Paginate(context.Background(), source, tt.number)
			require.NoError(t, err)

			require.Equal(t, tt.wantNumber, page.Number)
			require.Equal(t, tt.wantIDs, userIDs(page.Items))
			require.Equal(t, int64(23), page.Count)
			require.Equal(t, 3, page.NumPages)
			require.Equal(t, 10, page.PerPage)
			require.Equal(t, tt.wantStart, page.StartIndex)
			require.Equal(t, tt.wantEnd, page.EndIndex)
			require.Equal(t, tt.wantNext, page.NextNumber)
			require.Equal(t, tt.wantPrev, page.PreviousNumber)
			require.Equal(t, tt.wantNext != 0, page.HasNext)
			require.Equal(t, tt.wantPrev != 0, page.HasPrevious)
			require.True(t, page.HasOtherPages())
		})
	}

	for _, number := range []int{0, -5, 4} {
		t.Run(fmt.Sprintf("page %d is out of range", number), func(t *testing.T) {
			page, err := pager.Paginate(context.Background(), source, number)
			require.Nil(t, page)
			require.ErrorIs(t, err, ErrInvalidPage)
		})
	}
}

func Test_NumberPager_Paginate_Empty(t *testing.T) {
	source := NewSliceSource[tUser](nil, tUserGetters)

	page, err := NewNumberPager[tUser]().
		WithSort(Asc("id", KindInt)).
		Paginate(context.Background(), source, 1)
	require.NoError(t, err)
	require.NotNil(t, page.Items)
	require.Empty(t, page.Items)
	require.Equal(t, 1, page.NumPages)
	require.Zero(t, page.StartIndex)
	require.Zero(t, page.EndIndex)
	require.False(t, page.HasOtherPages())

	page, err = NewNumberPager[tUser]().
		WithSort(Asc("id", KindInt)).
		Paginate(context.Background(), source, LastPage)
	require.NoError(t, err)
	require.Equal(t, 1, page.Number)

	_, err = NewNumberPager[tUser]().
		WithSort(Asc("id", KindInt)).
		WithAllowEmptyFirstPage(false).
		Paginate(context.Background(), source, 1)
	require.ErrorIs(t, err, ErrInvalidPage)
}

func Test_NumberPager_Paginate_NoLimit(t *testing.T) {
	page, err := NewNumberPager[tUser]().
		WithLimit(NoLimit).
		WithSort(Asc("id", KindInt)).
		Paginate(context.Background(), NewSliceSource(newUsers(150), tUserGetters), 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 150)
	require.Equal(t, 1, page.NumPages)
	require.Equal(t, int64(150), page.EndIndex)
	require.False(t, page.HasNext)
}

func Test_NumberPager_Paginate_UnorderedWarning(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	_, err := NewNumberPager[tUser]().
		WithLogger(zap.New(core)).
		Paginate(context.Background(), NewSliceSource(newUsers(3), tUserGetters), 1)
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())

	_, err = NewNumberPager[tUser]().
		WithSort(Asc("id", KindInt), Desc("id", KindInt)).
		Paginate(context.Background(), NewSliceSource(newUsers(3), tUserGetters), 1)
	require.NoError(t, err)

	_, err = NewNumberPager[tUser]().
		WithSort(Asc("id", KindInvalid)).
		Paginate(context.Background(), NewSliceSource(newUsers(3), tUserGetters), 1)
	require.Error(t, err)
}

func Test_NumberPager_Paginate_GORM(t *testing.T) {
	for _, sqlMockFn := range sqlMockFnList {
		dialect, db, dbMock, err := sqlMockFn()
		t.Run(dialect, func(t *testing.T) {
			if err != nil {
				t.Fatalf("gorm open: %v", err)
			}

			dbMock.ExpectQuery("^SELECT count\\(\\*\\) FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"]$").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
			dbMock.ExpectQuery("^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] ORDER BY id ASC LIMIT 5 OFFSET 5$").
				WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
					AddRow(6, "f").AddRow(7, "g").AddRow(8, "h").AddRow(9, "i").AddRow(10, "j"))

			page, err := NewNumberPager[tUser]().
				WithLimit(5).
				WithSort(Asc("id", KindInt)).
				Paginate(context.Background(), NewGORMSource[tUser](db.Table("users").Where("name = 'lol'")), 2)
			require.NoError(t, err)

			require.Equal(t, []int64{6, 7, 8, 9, 10}, userIDs(page.Items))
			require.Equal(t, 3, page.NumPages)
			require.Equal(t, int64(6), page.StartIndex)
			require.Equal(t, int64(10), page.EndIndex)

			assert.NoError(t, dbMock.ExpectationsWereMet())
		})
	}
}
