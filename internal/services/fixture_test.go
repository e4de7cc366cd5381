package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-livestock-backend/internal/domain"
	"github.com/tbourn/go-livestock-backend/internal/repo"
)

// Catalog ids used across the service tests.
const (
	catBasic     uint = 1
	catBreeding  uint = 2
	catHeat      uint = 3
	catDetection uint = 4
	catDelivery  uint = 5

	qSex           uint = 1
	qLactating     uint = 2
	qBirthDate     uint = 3
	qBreed         uint = 4
	qInsemination  uint = 5
	qHeatDate      uint = 6
	qHeatIntensity uint = 7
	qDetected      uint = 8
	qDetectionDate uint = 9
	qDeliveryDate  uint = 10
	qDeliveryType  uint = 11

	animalCow  uint = 1
	animalGoat uint = 2
)

var cow = domain.InstanceKey{UserID: 1, AnimalID: animalCow, AnimalNumber: "A100"}

func ctxT() context.Context { return context.Background() }

func uptr(v uint) *uint { return &v }

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repo.AutoMigrate(db))
	seedCatalog(t, db)
	return db
}

func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	rows := []any{
		&[]domain.Animal{{ID: animalCow, Name: "cow"}, {ID: animalGoat, Name: "goat"}},
		&[]domain.Language{{ID: 1, Code: "en", Name: "English", IsMaster: true}, {ID: 2, Code: "mr", Name: "Marathi"}},
		&[]domain.Category{
			{ID: catBasic, Name: "Basic details", Kind: domain.KindBasic, Sequence: 1},
			{ID: catBreeding, Name: "Breeding", Kind: domain.KindBreeding, Sequence: 2},
			{ID: catHeat, Name: "Heat", Kind: domain.KindHeat, Sequence: 3},
			{ID: catDetection, Name: "Pregnancy detection", Kind: domain.KindPregnancyDetection, Sequence: 4},
			{ID: catDelivery, Name: "Delivery", Kind: domain.KindDelivery, Sequence: 5},
		},
		&domain.CategoryLanguage{CategoryID: catBasic, LanguageID: 2, Name: "मूलभूत माहिती"},
		&[]domain.Subcategory{
			{ID: 1, CategoryID: catBasic, Name: "Identity", Sequence: 1},
			{ID: 2, CategoryID: catBasic, Name: "Reproduction", Sequence: 2},
		},
		&domain.SubcategoryLanguage{SubcategoryID: 1, LanguageID: 2, Name: "ओळख"},
		&domain.FormType{ID: 1, Name: "text"},
		&domain.ValidationRule{ID: 1, Name: "date", Constant: "YYYY-MM-DD"},
		&[]domain.QuestionTagName{{ID: 8, Name: "Sex"}, {ID: 64, Name: "Heat date"}},
	}
	for _, r := range rows {
		require.NoError(t, db.Create(r).Error)
	}
	qs := []domain.Question{
		{ID: qSex, CategoryID: catBasic, SubcategoryID: uptr(1), FormTypeID: 1, Text: "Sex", Tag: domain.TagSex, Sequence: 1},
		{ID: qLactating, CategoryID: catBasic, SubcategoryID: uptr(2), FormTypeID: 1, Text: "Lactating", Tag: domain.TagLactating, Sequence: 1},
		{ID: qBirthDate, CategoryID: catBasic, SubcategoryID: uptr(1), ValidationRuleID: uptr(1), FormTypeID: 1, Text: "Birth date", Hint: "dd-mm-yyyy", Tag: domain.TagEventDate, Sequence: 2},
		{ID: qBreed, CategoryID: catBasic, FormTypeID: 1, Text: "Breed", Sequence: 3},
		{ID: qInsemination, CategoryID: catBreeding, FormTypeID: 1, Text: "Insemination type", Sequence: 1},
		{ID: qHeatDate, CategoryID: catHeat, FormTypeID: 1, Text: "Heat date", Tag: domain.TagHeatDate, Sequence: 1},
		{ID: qHeatIntensity, CategoryID: catHeat, FormTypeID: 1, Text: "Heat intensity", Sequence: 2},
		{ID: qDetected, CategoryID: catDetection, FormTypeID: 1, Text: "Pregnancy detected", Tag: domain.TagPregnancyDetected, Sequence: 1},
		{ID: qDetectionDate, CategoryID: catDetection, FormTypeID: 1, Text: "Detection date", Tag: domain.TagPregnancyDetectionDate, Sequence: 2},
		{ID: qDeliveryDate, CategoryID: catDelivery, FormTypeID: 1, Text: "Delivery date", Tag: domain.TagDeliveryDate, Sequence: 1},
		{ID: qDeliveryType, CategoryID: catDelivery, FormTypeID: 1, Text: "Delivery type", Tag: domain.TagDeliveryType, Sequence: 2},
	}
	require.NoError(t, db.Omit(clause.Associations).Create(&qs).Error)
	require.NoError(t, db.Create(&domain.QuestionLanguage{QuestionID: qSex, LanguageID: 2, Text: "लिंग", Hint: "नर/मादी"}).Error)

	aqs := []domain.AnimalQuestion{{AnimalID: animalGoat, QuestionID: qSex}, {AnimalID: animalGoat, QuestionID: qBreed}}
	for _, q := range qs {
		aqs = append(aqs, domain.AnimalQuestion{AnimalID: animalCow, QuestionID: q.ID})
	}
	require.NoError(t, db.Create(&aqs).Error)
}

// clock is a settable time source.
type clock struct{ t time.Time }

func newClock() *clock { return &clock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *clock) NextDay()                { c.t = c.t.AddDate(0, 0, 1) }

type harness struct {
	db      *gorm.DB
	clk     *clock
	records *RecordService
	views   *ViewService
	yields  *YieldService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newSvcDB(t)
	clk := newClock()
	proj := &Projector{Location: time.UTC}
	return &harness{
		db:      db,
		clk:     clk,
		records: &RecordService{DB: db, Projector: proj, Location: time.UTC, Now: clk.Now},
		views:   &ViewService{DB: db},
		yields:  &YieldService{DB: db, Projector: proj, Now: clk.Now},
	}
}

func answers(kv ...any) []AnswerInput {
	out := make([]AnswerInput, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, AnswerInput{QuestionID: kv[i].(uint), Answer: kv[i+1].(string)})
	}
	return out
}

func (h *harness) create(t *testing.T, key domain.InstanceKey, kv ...any) []WriteResult {
	t.Helper()
	res, err := h.records.Create(ctxT(), key.UserID, CreateInput{AnimalID: key.AnimalID, AnimalNumber: key.AnimalNumber, Answers: answers(kv...)})
	require.NoError(t, err)
	return res
}

func (h *harness) write(t *testing.T, key domain.InstanceKey, categoryID uint, date string, kv ...any) *WriteResult {
	t.Helper()
	res, err := h.records.Write(ctxT(), key.UserID, WriteInput{
		AnimalID: key.AnimalID, AnimalNumber: key.AnimalNumber, CategoryID: categoryID, Date: date, Answers: answers(kv...),
	})
	require.NoError(t, err)
	return res
}

func (h *harness) sessions(t *testing.T, key domain.InstanceKey, categoryID uint) []domain.Session {
	t.Helper()
	out, err := repo.ListCategorySessions(ctxT(), h.db, key, categoryID)
	require.NoError(t, err)
	return out
}

func (h *harness) history(t *testing.T, key domain.InstanceKey) []domain.YieldHistory {
	t.Helper()
	out, err := repo.ListYieldHistory(ctxT(), h.db, key)
	require.NoError(t, err)
	return out
}

func answerText(s domain.Session, questionID uint) string {
	for _, a := range s.Answers {
		if a.QuestionID == questionID {
			return a.Answer
		}
	}
	return ""
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
