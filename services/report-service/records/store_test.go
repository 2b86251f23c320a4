package records

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"police-dispatch-system/services/report-service/assignment"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	sqlDB  *sql.DB
	mock   sqlmock.Sqlmock
	gormDB *gorm.DB
)

func setUp() {
	sqlDB, mock, _ = sqlmock.New()
	gormDB, _ = gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

func tearDown() {
	sqlDB.Close()
}

var it = beforeeach.Create(setUp, tearDown)

const (
	userID    = "44444444-4444-4444-8444-444444444444"
	officerID = "33333333-3333-4333-8333-333333333331"
	stationID = "11111111-1111-4111-8111-111111111111"
)

func TestOfficerByUser(t *testing.T) {
	it(func() {
		cols := []string{"id", "user_id", "badge_number", "station_id", "is_available", "active_cases", "max_capacity"}
		testCases := []struct {
			name     string
			rows     *sqlmock.Rows
			queryErr error
			wantErr  error
		}{
			{
				name: "Found",
				rows: sqlmock.NewRows(cols).AddRow(officerID, userID, "B-7", stationID, true, 0, 3),
			}, {
				name:    "No officer profile",
				rows:    sqlmock.NewRows(cols),
				wantErr: assignment.ErrNotFound,
			}, {
				name:    "Negative case count",
				rows:    sqlmock.NewRows(cols).AddRow(officerID, userID, "B-7", stationID, true, -1, 3),
				wantErr: assignment.ErrMalformedRecord,
			}, {
				name:     "Database down",
				queryErr: sql.ErrConnDone,
				wantErr:  assignment.ErrStoreUnavailable,
			},
		}

		for _, tc := range testCases {
			q := mock.ExpectQuery(`SELECT \* FROM "police_officers" WHERE user_id = \$1`)
			if tc.queryErr != nil {
				q.WillReturnError(tc.queryErr)
			} else {
				q.WillReturnRows(tc.rows)
			}

			o, err := NewGormStore(gormDB).OfficerByUser(context.Background(), userID)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("%s: err = %v, want %v", tc.name, err, tc.wantErr)
				}
			} else if err != nil || o.ID != officerID {
				t.Errorf("%s: got %+v, %v", tc.name, o, err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("%s: %s", tc.name, err)
			}
		}
	})
}

func TestListStations(t *testing.T) {
	it(func() {
		mock.ExpectQuery(`SELECT "id","name" FROM "police_stations"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(stationID, "Central").
				AddRow("11111111-1111-4111-8111-111111111112", "Harbour"))

		got, err := NewGormStore(gormDB).ListStations(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 || got[0] != (StationSummary{ID: stationID, Name: "Central"}) {
			t.Errorf("ListStations = %+v", got)
		}
	})
}

func TestListLocatedFiltersRows(t *testing.T) {
	it(func() {
		now := time.Now()
		cols := []string{"id", "crime_type", "priority", "latitude", "longitude", "current_status", "created_at"}
		mock.ExpectQuery(`SELECT \* FROM "crime_reports" WHERE latitude IS NOT NULL AND longitude IS NOT NULL`).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("22222222-2222-4222-8222-222222222221", "theft", "HIGH", -6.2, 106.8, "active", now).
				AddRow("22222222-2222-4222-8222-222222222222", "theft", "HIGH", 200.0, 106.8, "active", now))

		got, err := NewGormStore(gormDB).ListLocated(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 {
			t.Fatalf("want the out-of-range row dropped, got %d rows", len(got))
		}
	})
}
