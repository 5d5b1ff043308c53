package postgres

import (
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/psytest-service/internal/models"
	"github.com/SAP-F-2025/psytest-service/internal/repositories"
)

// dryRunDB renders postgres SQL without a server; sql.Open is lazy.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=psytest dbname=psytest sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Skipf("postgres dialector unavailable: %v", err)
	}
	return db
}

func assertContains(t *testing.T, sql string, parts ...string) {
	t.Helper()
	for _, part := range parts {
		if !strings.Contains(sql, part) {
			t.Errorf("expected %q in\n%s", part, sql)
		}
	}
}

func TestActiveSessionInsertTargetsPartialIndex(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Clauses(activeSessionConflict).Create(&models.Session{TestID: 1, SubjectID: "child", OwnerID: "parent"})
	})

	assertContains(t, sql,
		`ON CONFLICT ("test_id","subject_id")`,
		"WHERE status = 'IN_PROGRESS'",
		"DO NOTHING",
	)
}

func TestAdvanceIsConditional(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.Session{}).
			Where("id = ? AND status = ? AND current_index < ? AND total_questions >= ?", 1, models.SessionInProgress, 3, 3).
			Updates(map[string]interface{}{"current_index": 3, "updated_at": time.Now()})
	})

	assertContains(t, sql, "UPDATE", "current_index < 3", "'IN_PROGRESS'")
}

func TestAnswerSaveLocksInProgressSession(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var ids []uint
		return lockInProgress(tx, 7).Pluck("id", &ids)
	})

	assertContains(t, sql, "FOR UPDATE", "'IN_PROGRESS'", "id = 7")
}

// An optional question must reach the insert; a zero value is not dropped.
func TestQuestionInsertKeepsOptionalFlag(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Create(&models.Question{TestID: 1, Order: 2, Kind: models.KindFreeText, Text: "Что тебя радует?", IsRequired: false})
	})

	assertContains(t, sql, `"is_required"`, "false")
}

func TestApplyPaginationAndSort_Whitelist(t *testing.T) {
	db := dryRunDB(t)
	h := NewSharedHelpers(db)

	tests := []struct {
		name   string
		sortBy string
		order  string
		want   string
	}{
		{"allowed column", "started_at", "asc", "ORDER BY started_at ASC,id ASC"},
		{"unknown column falls back", "score; DROP TABLE sessions", "asc", "ORDER BY created_at ASC"},
		{"default direction", "percentage", "", "ORDER BY percentage DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
				q := h.ApplyPaginationAndSort(tx.Model(&models.Session{}), tt.sortBy, tt.order, 20, 40)
				return q.Find(&[]models.Session{})
			})
			assertContains(t, sql, tt.want, "LIMIT 20", "OFFSET 40")
			if strings.Contains(sql, "DROP") {
				t.Errorf("sort column leaked into SQL: %s", sql)
			}
		})
	}
}

func TestApplySessionFilters(t *testing.T) {
	db := dryRunDB(t)
	h := NewSharedHelpers(db)
	owner, status := "parent-1", models.SessionCompleted

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		q := h.ApplySessionFilters(tx.Model(&models.Session{}), repositories.SessionFilters{
			OwnerID: &owner,
			Status:  &status,
		})
		return q.Find(&[]models.Session{})
	})

	assertContains(t, sql, "owner_id = 'parent-1'", "status = 'COMPLETED'")
	if strings.Contains(sql, "subject_id") {
		t.Errorf("unset filter applied: %s", sql)
	}
}

func TestTestListKey(t *testing.T) {
	cat := models.CategoryAnxiety
	age := 9

	a := testListKey(repositories.TestFilters{Category: &cat, Age: &age, ActiveOnly: true, Limit: 10})
	b := testListKey(repositories.TestFilters{Category: &cat, ActiveOnly: true, Limit: 10})

	if a == b {
		t.Errorf("age must be part of the key: %s", a)
	}
	if !strings.HasPrefix(a, "ANXIETY:true:9:") {
		t.Errorf("unexpected key %s", a)
	}
}
