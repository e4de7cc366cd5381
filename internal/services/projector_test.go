package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-livestock-backend/internal/domain"
)

func TestExtract(t *testing.T) {
	x := extract([]taggedAnswer{
		{Tag: domain.TagNone, Text: "Gir"},
	})
	assert.False(t, x.projected)

	x = extract([]taggedAnswer{
		{Tag: domain.TagSex, Text: "मादी", Canonical: CanonFemale},
		{Tag: domain.TagPregnant, Text: "yes", Canonical: CanonYes},
		{Tag: domain.TagLactatingState, Text: "", Canonical: ""},
		{Tag: domain.TagLactating, Text: "No", Canonical: CanonNo},
		{Tag: domain.TagEventDate, Text: "2024-01-01"},
		{Tag: domain.TagPregnancyDetectionDate, Text: "05/02/2024"},
	})
	assert.True(t, x.projected)
	assert.True(t, x.hasSex)
	assert.Equal(t, CanonFemale, x.sexCanon)
	assert.Equal(t, "Yes", x.preg)
	assert.Equal(t, "No", x.lact)
	assert.True(t, x.date.Equal(day(2024, 2, 5)), "detection date outranks the event date")
	assert.False(t, x.delivery)

	x = extract([]taggedAnswer{
		{Tag: domain.TagDeliveryType, Text: "normal"},
		{Tag: domain.TagEventDate, Text: "not a date"},
	})
	assert.True(t, x.delivery)
	assert.True(t, x.date.IsZero())
}

func TestProjector_DerivedTimeline(t *testing.T) {
	h := newHarness(t)
	h.create(t, cow, qSex, "Female", qLactating, "No", qBirthDate, "2024-01-01")

	rows := h.history(t, cow)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Date.Equal(day(2024, 1, 1)))
	assert.Equal(t, "No", rows[0].LactatingStatus)
	assert.Empty(t, rows[0].PregnancyStatus)
	assert.Equal(t, catBasic, rows[0].SourceCategoryID)

	basic := h.sessions(t, cow, catBasic)
	require.Len(t, basic, 1)
	assert.Equal(t, basic[0].ID, rows[0].SourceSessionID)
}

func TestProjector_MaleProducesNoRows(t *testing.T) {
	h := newHarness(t)
	h.create(t, cow, qSex, "Male", qLactating, "No", qBirthDate, "2024-01-01")

	assert.Empty(t, h.history(t, cow))
	rows, err := h.yields.History(ctxT(), cow.UserID, cow.AnimalID, cow.AnimalNumber)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestProjector_SessionDayWhenNoDate(t *testing.T) {
	h := newHarness(t)
	h.create(t, cow, qSex, "Female", qLactating, "Yes")

	rows := h.history(t, cow)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Date.Equal(day(2025, 3, 1)))
	assert.Equal(t, "Yes", rows[0].LactatingStatus)
}

func TestProjector_UnprojectedWriteKeepsTimeline(t *testing.T) {
	h := newHarness(t)
	h.create(t, cow, qSex, "Female", qLactating, "Yes")

	h.write(t, cow, catBreeding, "2025-02-01", qInsemination, "AI")
	h.write(t, cow, catHeat, "", qHeatDate, "2025-02-10")

	assert.Len(t, h.history(t, cow), 1)
}

func TestProjector_ReplacedSessionRowsRemoved(t *testing.T) {
	h := newHarness(t)
	h.create(t, cow, qSex, "Female", qLactating, "Yes")

	h.clk.Advance(time.Hour)
	res := h.write(t, cow, catBasic, "", qSex, "Female", qLactating, "No")

	rows := h.history(t, cow)
	require.Len(t, rows, 1)
	assert.Equal(t, "No", rows[0].LactatingStatus)
	assert.Equal(t, res.SessionID, rows[0].SourceSessionID)
}

func TestProjector_PregnancyCorrectionMerges(t *testing.T) {
	h := newHarness(t)
	h.create(t, cow, qSex, "Female", qLactating, "Yes")

	h.clk.NextDay()
	h.write(t, cow, catDetection, "", qDetected, "Yes", qDetectionDate, "2025-03-02")

	h.clk.NextDay()
	fix := h.write(t, cow, catDetection, "", qDetected, "No", qDetectionDate, "2025-03-02")

	rows := h.history(t, cow)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Date.Equal(day(2025, 3, 1)))
	assert.True(t, rows[1].Date.Equal(day(2025, 3, 2)))
	assert.Equal(t, "No", rows[1].PregnancyStatus)
	assert.Equal(t, "Yes", rows[1].LactatingStatus, "lactation carries forward")
	assert.Equal(t, fix.SessionID, rows[1].SourceSessionID)

	det := h.sessions(t, cow, catDetection)
	require.Len(t, det, 1, "the corrected detection session is removed")
	assert.Equal(t, fix.SessionID, det[0].ID)
}

func TestProjector_SameDayDetectionReplaces(t *testing.T) {
	h := newHarness(t)
	h.create(t, cow, qSex, "Female", qLactating, "No")

	h.clk.NextDay()
	h.write(t, cow, catDetection, "", qDetected, "Yes", qDetectionDate, "2025-03-02")
	h.clk.Advance(2 * time.Hour)
	last := h.write(t, cow, catDetection, "", qDetected, "Yes", qDetectionDate, "2025-03-02")
	assert.Equal(t, ModeReplace, last.Mode)

	var detRows []domain.YieldHistory
	for _, r := range h.history(t, cow) {
		if r.SourceCategoryID == catDetection {
			detRows = append(detRows, r)
		}
	}
	require.Len(t, detRows, 1)
	assert.Equal(t, last.SessionID, detRows[0].SourceSessionID)
	assert.Equal(t, "Yes", detRows[0].PregnancyStatus)
	assert.Len(t, h.sessions(t, cow, catDetection), 1)
}

func TestProjector_InconsistentDetectionRows(t *testing.T) {
	h := newHarness(t)
	h.create(t, cow, qSex, "Female")

	for i := 0; i < 2; i++ {
		require.NoError(t, h.db.Create(&domain.YieldHistory{
			ID: uuid.NewString(), UserID: cow.UserID, AnimalID: cow.AnimalID, AnimalNumber: cow.AnimalNumber,
			Date: day(2025, 2, 20), PregnancyStatus: "Yes",
			SourceSessionID: uuid.NewString(), SourceCategoryID: catDetection,
		}).Error)
	}

	_, err := h.records.Write(ctxT(), cow.UserID, WriteInput{
		AnimalID: cow.AnimalID, AnimalNumber: cow.AnimalNumber, CategoryID: catDetection,
		Answers: answers(qDetected, "No", qDetectionDate, "2025-02-20"),
	})
	require.ErrorIs(t, err, ErrInconsistentState)
	assert.Empty(t, h.sessions(t, cow, catDetection))
	assert.Len(t, h.history(t, cow), 2)
}

func TestProjector_DeliveryImpliesStatuses(t *testing.T) {
	h := newHarness(t)
	h.create(t, cow, qSex, "Female")

	h.write(t, cow, catDelivery, "", qDeliveryDate, "2025-02-28", qDeliveryType, "normal")

	rows := h.history(t, cow)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Date.Equal(day(2025, 2, 28)))
	assert.Equal(t, "No", rows[0].PregnancyStatus)
	assert.Equal(t, "Yes", rows[0].LactatingStatus)
}

func TestProjector_CarriesForward(t *testing.T) {
	h := newHarness(t)
	h.create(t, cow, qSex, "Female", qLactating, "Yes")

	h.clk.NextDay()
	h.write(t, cow, catDetection, "", qDetected, "No", qDetectionDate, "2025-03-02")

	rows := h.history(t, cow)
	require.Len(t, rows, 2)
	assert.Equal(t, "No", rows[1].PregnancyStatus)
	assert.Equal(t, "Yes", rows[1].LactatingStatus)
}

func TestProjector_PositiveDetectionRestampsBasic(t *testing.T) {
	h := newHarness(t)
	h.create(t, cow, qSex, "Female", qLactating, "Yes", qBreed, "Gir")

	h.clk.NextDay()
	det := h.write(t, cow, catDetection, "", qDetected, "Yes", qDetectionDate, "2025-03-02")
	assert.Equal(t, 2, det.Companions)

	basic := h.sessions(t, cow, catBasic)
	require.Len(t, basic, 2, "sessions on different days both survive")
	assert.True(t, basic[0].At.Equal(det.SessionAt))
	assert.Equal(t, "Female", answerText(basic[0], qSex))
	assert.Equal(t, "Yes", answerText(basic[0], qLactating))
	assert.Equal(t, "Gir", answerText(basic[0], qBreed))
	assert.True(t, basic[1].At.Equal(day(2025, 3, 1).Add(10*time.Hour)))
}

func TestProjector_RestampSameDayRepointsHistory(t *testing.T) {
	h := newHarness(t)
	h.create(t, cow, qSex, "Female", qLactating, "Yes", qBreed, "Gir")

	h.clk.Advance(time.Hour)
	h.write(t, cow, catDetection, "", qDetected, "Yes", qDetectionDate, "2025-03-01")

	basic := h.sessions(t, cow, catBasic)
	require.Len(t, basic, 1, "the same-day basic session is replaced by its re-stamped copy")
	assert.Equal(t, "Gir", answerText(basic[0], qBreed))

	active := map[string]bool{basic[0].ID: true}
	for _, s := range h.sessions(t, cow, catDetection) {
		active[s.ID] = true
	}
	for _, r := range h.history(t, cow) {
		assert.True(t, active[r.SourceSessionID], "row %s points at a live session", r.ID)
	}
}
