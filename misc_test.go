package keypager

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db.Debug(), mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db.Debug(), mock, nil
}

var sqlMockFnList = []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
	newGORMMySQLMock,
	newGORMPostgresMock,
}

type tUser struct {
	ID        int64
	Name      string
	Score     float64
	CreatedAt time.Time
}

var tUserGetters = Getters[tUser]{
	"id":         func(u tUser) any { return u.ID },
	"name":       func(u tUser) any { return u.Name },
	"score":      func(u tUser) any { return u.Score },
	"created_at": func(u tUser) any { return u.CreatedAt },
}

// newUsers returns users with ids 1..n. Names and scores repeat so that
// multi-column orderings have ties on their leading columns.
func newUsers(n int) []tUser {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	names := []string{"ann", "bob", "cid"}

	users := make([]tUser, 0, n)
	for i := 1; i <= n; i++ {
		users = append(users, tUser{
			ID:        int64(i),
			Name:      names[i%len(names)],
			Score:     float64(i%4) / 2,
			CreatedAt: base.Add(time.Duration(i%5) * time.Hour),
		})
	}

	return users
}

func userIDs(users []tUser) []int64 {
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	return ids
}

func newTestCodec(t *testing.T) *CursorCodec {
	t.Helper()

	codec, err := NewCursorCodec([]byte("test-secret"))
	require.NoError(t, err)

	return codec
}
