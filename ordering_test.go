package gocrud

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Direction_Valid(t *testing.T) {
	tests := []struct {
		name  string
		in    Direction
		valid bool
	}{
		{"ASC valid", DirectionASC, true},
		{"DESC valid", DirectionDESC, true},
		{"lower case invalid", Direction("asc"), false},
		{"empty invalid", Direction(""), false},
	}
	for _, tt := range tests {
		if got := tt.in.Valid(); got != tt.valid {
			t.Errorf("%s: Valid=%v want %v", tt.name, got, tt.valid)
		}
	}
}

func Test_ParseOrder(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want OrderBy
	}{
		{"asc", "name:asc", OrderBy{Column: "name", Direction: DirectionASC}},
		{"desc", "name:desc", OrderBy{Column: "name", Direction: DirectionDESC}},
		{"upper case desc is asc", "name:DESC", OrderBy{Column: "name", Direction: DirectionASC}},
		{"missing direction", "name", OrderBy{Column: "name", Direction: DirectionASC}},
		{"empty direction", "name:", OrderBy{Column: "name", Direction: DirectionASC}},
		{"unknown direction", "name:down", OrderBy{Column: "name", Direction: DirectionASC}},
		{"extra segments ignored", "name:desc:nulls", OrderBy{Column: "name", Direction: DirectionDESC}},
		{"empty field", ":desc", OrderBy{Column: "", Direction: DirectionDESC}},
		{"empty token", "", OrderBy{Column: "", Direction: DirectionASC}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseOrder(tt.in); got != tt.want {
				t.Errorf("%s: got %v want %v", tt.name, got, tt.want)
			}
		})
	}
}

func Test_OrderBy_String(t *testing.T) {
	assert.Equal(t, "name:desc", OrderBy{Column: "name", Direction: DirectionDESC}.String())
	assert.Equal(t, "id:asc", ParseOrder("id").String())
}

func Test_Orderings_ToSQL(t *testing.T) {
	tests := []struct {
		name string
		in   Orderings
		want string
	}{
		{"empty", Orderings{}, ""},
		{"single", Orderings{{Column: "a", Direction: DirectionASC}}, "a ASC"},
		{
			"multiple",
			Orderings{{Column: "a", Direction: DirectionASC}, {Column: "b", Direction: DirectionDESC}},
			"a ASC, b DESC",
		},
	}
	for _, tt := range tests {
		if got := tt.in.ToSQL(); got != tt.want {
			t.Errorf("%s: got %q want %q", tt.name, got, tt.want)
		}
	}
}

func Test_Table_OrderQueryBy(t *testing.T) {
	tests := []struct {
		name          string
		opts          []Option
		token         string
		preOrder      string
		expectedQuery string
	}{
		{
			name:          "explicit descending",
			token:         "name:desc",
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] ORDER BY [`'\"]name[`'\"] DESC$",
		},
		{
			name:          "ascending has no suffix",
			token:         "name:asc",
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] ORDER BY [`'\"]name[`'\"]$",
		},
		{
			name:          "empty token uses primary key ascending by default",
			token:         "",
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] ORDER BY [`'\"]id[`'\"]$",
		},
		{
			name:          "empty token uses configured default",
			opts:          []Option{WithDefaultOrder("order:desc")},
			token:         "",
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] ORDER BY [`'\"]order[`'\"] DESC$",
		},
		{
			name:          "empty field uses primary key",
			opts:          []Option{WithPrimaryKey("user_id")},
			token:         ":desc",
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] ORDER BY [`'\"]user_id[`'\"] DESC$",
		},
		{
			name:          "previous ordering is replaced",
			token:         "name:desc",
			preOrder:      "id",
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] ORDER BY [`'\"]name[`'\"] DESC$",
		},
	}

	for _, sqlMockFn := range _sqlMockFnList {
		for _, tt := range tests {
			dialect, db, dbMock, err := sqlMockFn()
			t.Run(fmt.Sprintf("%s %s", dialect, tt.name), func(t *testing.T) {
				require.NoError(t, err)

				dbMock.ExpectQuery(tt.expectedQuery).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

				table, err := New("users", tt.opts...)
				require.NoError(t, err)
				table, err = table.Bind(db)
				require.NoError(t, err)

				query, err := table.Query(context.Background())
				require.NoError(t, err)
				if tt.preOrder != "" {
					query = query.Order(tt.preOrder)
				}

				ordered, err := table.OrderQueryBy(query, tt.token)
				require.NoError(t, err)

				var rows []Record
				require.NoError(t, ordered.Find(&rows).Error)

				assert.NoError(t, dbMock.ExpectationsWereMet())
			})
		}
	}
}

func Test_Table_OrderQueryBy_DoesNotMutateQuery(t *testing.T) {
	_, db, _, err := newGORMMySQLMock()
	require.NoError(t, err)

	table, err := New("users")
	require.NoError(t, err)

	base := db.Table("users")
	_, err = table.OrderQueryBy(base, "name:desc")
	require.NoError(t, err)

	_, ok := base.Statement.Clauses["ORDER BY"]
	assert.False(t, ok)
}

func Test_Table_OrderQueryBy_InvalidColumn(t *testing.T) {
	_, db, dbMock, err := newGORMMySQLMock()
	require.NoError(t, err)

	table, err := New("users")
	require.NoError(t, err)

	for _, token := range []string{"name desc:desc", "id;drop table users:asc", "(id):desc"} {
		t.Run(token, func(t *testing.T) {
			query, err := table.OrderQueryBy(db.Table("users"), token)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Nil(t, query)
		})
	}

	assert.NoError(t, dbMock.ExpectationsWereMet())
}
