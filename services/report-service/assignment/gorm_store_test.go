package assignment

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

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

var officerColumns = []string{
	"id", "user_id", "badge_number", "station_id", "is_available",
	"active_cases", "max_capacity", "created_at", "updated_at",
}

func officerRow(active, max int, available bool) *sqlmock.Rows {
	return sqlmock.NewRows(officerColumns).
		AddRow(officer1, "44444444-4444-4444-8444-444444444444", "B-1024", stationA, available, active, max, t0, t0)
}

func TestGormAssignReport(t *testing.T) {
	it(func() {
		testCases := []struct {
			name string

			reportRows  int64
			officerRows int64
			officer     *sqlmock.Rows
			commit      bool

			wantErr   error
			wantCases int
		}{
			{
				name:        "Both updates apply",
				reportRows:  1,
				officerRows: 1,
				officer:     officerRow(1, 3, true),
				commit:      true,
				wantCases:   1,
			}, {
				name:       "Report taken by another writer",
				reportRows: 0,
				wantErr:    ErrAlreadyAssigned,
			}, {
				name:        "Officer filled up in between",
				reportRows:  1,
				officerRows: 0,
				officer:     officerRow(3, 3, false),
				wantErr:     ErrOfficerAtCapacity,
			}, {
				name:        "Officer went off duty in between",
				reportRows:  1,
				officerRows: 0,
				officer:     officerRow(1, 3, false),
				wantErr:     ErrOfficerUnavailable,
			},
		}

		for _, tc := range testCases {
			mock.ExpectBegin()
			mock.ExpectExec(`UPDATE "crime_reports" SET`).
				WillReturnResult(sqlmock.NewResult(0, tc.reportRows))
			if tc.reportRows > 0 {
				mock.ExpectExec(`UPDATE "police_officers" SET`).
					WillReturnResult(sqlmock.NewResult(0, tc.officerRows))
				mock.ExpectQuery(`SELECT \* FROM "police_officers"`).
					WillReturnRows(tc.officer)
			}
			if tc.commit {
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			o, err := NewGormStore(gormDB).AssignReport(context.Background(), reportR1, officer1, t0)

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("%s: err = %v, want %v", tc.name, err, tc.wantErr)
				}
			} else if err != nil {
				t.Errorf("%s: unexpected error %v", tc.name, err)
			} else if o.ActiveCases != tc.wantCases {
				t.Errorf("%s: active cases = %d, want %d", tc.name, o.ActiveCases, tc.wantCases)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("%s: unfulfilled expectations: %s", tc.name, err)
			}
		}
	})
}

func TestGormAssignReportDatabaseError(t *testing.T) {
	it(func() {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "crime_reports" SET`).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		_, err := NewGormStore(gormDB).AssignReport(context.Background(), reportR1, officer1, t0)
		if !errors.Is(err, sql.ErrConnDone) {
			t.Fatalf("err = %v, want the driver error", err)
		}
		if !errors.Is(storeError("assign report", err), ErrStoreUnavailable) {
			t.Error("driver failures should surface as store unavailable")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

var reportColumns = []string{
	"id", "crime_type", "description", "priority", "latitude", "longitude",
	"current_status", "assigned_officer", "station_id", "complainant_contact_enc",
	"created_at", "updated_at",
}

func TestGormGetReport(t *testing.T) {
	it(func() {
		testCases := []struct {
			name    string
			rows    *sqlmock.Rows
			wantErr error
		}{
			{
				name: "Found",
				rows: sqlmock.NewRows(reportColumns).
					AddRow(reportR1, "theft", "", "HIGH", nil, nil, "active", nil, nil, "", t0, t0),
			}, {
				name:    "Not found",
				rows:    sqlmock.NewRows(reportColumns),
				wantErr: ErrNotFound,
			}, {
				name: "Unknown priority",
				rows: sqlmock.NewRows(reportColumns).
					AddRow(reportR1, "theft", "", "URGENT", nil, nil, "active", nil, nil, "", t0, t0),
				wantErr: ErrMalformedRecord,
			}, {
				name: "In progress without officer",
				rows: sqlmock.NewRows(reportColumns).
					AddRow(reportR1, "theft", "", "NORMAL", nil, nil, "in_progress", nil, nil, "", t0, t0),
				wantErr: ErrMalformedRecord,
			},
		}

		for _, tc := range testCases {
			mock.ExpectQuery(`SELECT \* FROM "crime_reports"`).WillReturnRows(tc.rows)

			r, err := NewGormStore(gormDB).GetReport(context.Background(), reportR1)

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("%s: err = %v, want %v", tc.name, err, tc.wantErr)
				}
			} else if err != nil || r.ID != reportR1 || !r.Unassigned() {
				t.Errorf("%s: got %+v, %v", tc.name, r, err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("%s: %s", tc.name, err)
			}
		}
	})
}

func TestGormListUnassignedSkipsMalformedRows(t *testing.T) {
	it(func() {
		later := t0.Add(time.Hour)
		mock.ExpectQuery(`SELECT \* FROM "crime_reports" WHERE .*ORDER BY created_at DESC`).
			WillReturnRows(sqlmock.NewRows(reportColumns).
				AddRow(reportR2, "assault", "", "EMERGENCY", 52.52, 13.40, "active", nil, nil, "", later, later).
				AddRow("bogus", "assault", "", "EMERGENCY", nil, nil, "active", nil, nil, "", t0, t0).
				AddRow(reportR1, "fraud", "", "NORMAL", nil, nil, "active", nil, nil, "", t0, t0))

		got, err := NewGormStore(gormDB).ListUnassigned(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 || got[0].ID != reportR2 || got[1].ID != reportR1 {
			t.Fatalf("got %v, want R2 then R1", ids(got))
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestGormListAvailableOfficersEmpty(t *testing.T) {
	it(func() {
		mock.ExpectQuery(`SELECT \* FROM "police_officers" WHERE \(?station_id = \$1 AND is_available = \$2 AND active_cases < max_capacity.*ORDER BY active_cases ASC`).
			WillReturnRows(sqlmock.NewRows(officerColumns))

		got, err := NewGormStore(gormDB).ListAvailableOfficers(context.Background(), stationA)
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("want an empty, non-nil slice, got %#v", got)
		}
	})
}
