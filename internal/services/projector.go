// Package services – Projector
//
// The projector keeps the yield history timeline aligned with the answers
// that feed it (sex, pregnancy, lactation, event and delivery dates). It runs
// inside the transaction of the answer write that triggered it, so a failure
// rolls back answers and timeline together.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-livestock-backend/internal/domain"
	"github.com/tbourn/go-livestock-backend/internal/repo"
)

// taggedAnswer is one answer of a batch together with its question's tag.
type taggedAnswer struct {
	QuestionID uint
	Tag        domain.QuestionTag
	Text       string
	Canonical  string
}

// projection is the input of one projector run: a session just written and
// the sessions it superseded.
type projection struct {
	Key        domain.InstanceKey
	SessionID  string
	CategoryID uint
	Kind       domain.CategoryKind
	At         time.Time
	Answers    []taggedAnswer
	Replaced   []string
	// Replay is set by the backfill: history is rebuilt but answer sessions
	// are never deleted or re-stamped.
	Replay bool
	// Registration is set by Create. The registration's own basic session
	// is the current one, so a positive detection does not re-stamp it.
	Registration bool
}

// extracted holds the projector-relevant values of a batch.
type extracted struct {
	projected bool

	hasSex   bool
	sexText  string
	sexCanon string

	preg      string
	pregCanon string

	lact      string
	lactText  string
	lactCanon string

	date     time.Time
	delivery bool
}

func extract(answers []taggedAnswer) extracted {
	var x extracted
	byTag := make(map[domain.QuestionTag]taggedAnswer, len(answers))
	for _, a := range answers {
		if a.Tag.Projected() {
			x.projected = true
		}
		if _, dup := byTag[a.Tag]; !dup {
			byTag[a.Tag] = a
		}
	}
	if !x.projected {
		return x
	}

	if a, ok := byTag[domain.TagSex]; ok {
		x.hasSex, x.sexText, x.sexCanon = true, a.Text, a.Canonical
	}
	for _, tag := range []domain.QuestionTag{domain.TagPregnancyDetected, domain.TagPregnant} {
		if a, ok := byTag[tag]; ok && a.Text != "" {
			x.preg, x.pregCanon = statusValue(a.Text, a.Canonical), a.Canonical
			break
		}
	}
	for _, tag := range []domain.QuestionTag{domain.TagLactating, domain.TagLactatingState} {
		if a, ok := byTag[tag]; ok && a.Text != "" {
			x.lact, x.lactText, x.lactCanon = statusValue(a.Text, a.Canonical), a.Text, a.Canonical
			break
		}
	}
	for _, tag := range domain.DateTags() {
		if a, ok := byTag[tag]; ok {
			if d, ok := parseDay(a.Text); ok {
				x.date = d
				break
			}
		}
	}
	for _, tag := range domain.TagsWithRole(domain.RoleDelivery) {
		if a, ok := byTag[tag]; ok && a.Text != "" {
			x.delivery = true
			break
		}
	}
	return x
}

// Projector maintains the yield history timeline.
type Projector struct {
	// Location defines calendar days for session timestamps.
	Location *time.Location
}

func (p *Projector) loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Apply reconciles the timeline with one written session. It returns the
// appended row, or nil when the session produces none.
func (p *Projector) Apply(ctx context.Context, tx *gorm.DB, pr projection) (*domain.YieldHistory, error) {
	tr := otel.Tracer("services/Projector")
	ctx, span := tr.Start(ctx, "Apply",
		trace.WithAttributes(
			attribute.String("session.id", pr.SessionID),
			attribute.String("category.kind", string(pr.Kind)),
			attribute.Bool("replay", pr.Replay),
		),
	)
	defer span.End()

	lg := zerolog.Ctx(ctx)

	if n, err := repo.DeleteYieldBySourceSessions(ctx, tx, pr.Key, pr.Replaced); err != nil {
		return nil, err
	} else if n > 0 {
		yieldRows.WithLabelValues("delete").Add(float64(n))
		lg.Debug().Int64("rows", n).Strs("sessions", pr.Replaced).Msg("yield rows of replaced sessions removed")
	}

	x := extract(pr.Answers)
	if !x.projected {
		return nil, nil
	}
	if x.hasSex && x.sexCanon != CanonFemale {
		return nil, nil
	}

	date := x.date
	if date.IsZero() {
		local := pr.At.In(p.loc())
		date = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	}

	preg, lact := x.preg, x.lact
	if x.delivery {
		if preg == "" {
			preg = "No"
		}
		if lact == "" {
			lact = "Yes"
		}
	}

	if pr.Kind == domain.KindPregnancyDetection {
		if err := p.mergeDetection(ctx, tx, pr, date); err != nil {
			return nil, err
		}
	}

	if preg == "" || lact == "" {
		prev, err := repo.LatestYieldOnOrBefore(ctx, tx, pr.Key, date)
		switch {
		case err == nil:
			if preg == "" {
				preg = prev.PregnancyStatus
			}
			if lact == "" {
				lact = prev.LactatingStatus
			}
		case !errors.Is(err, repo.ErrNotFound):
			return nil, err
		}
	}
	if preg == "" && lact == "" {
		return nil, nil
	}

	row := &domain.YieldHistory{
		ID:               uuid.NewString(),
		UserID:           pr.Key.UserID,
		AnimalID:         pr.Key.AnimalID,
		AnimalNumber:     pr.Key.AnimalNumber,
		Date:             date,
		PregnancyStatus:  preg,
		LactatingStatus:  lact,
		SourceSessionID:  pr.SessionID,
		SourceCategoryID: pr.CategoryID,
	}
	if err := repo.CreateYieldHistory(ctx, tx, row); err != nil {
		return nil, err
	}
	op := "append"
	if pr.Replay {
		op = "backfill"
	}
	yieldRows.WithLabelValues(op).Inc()

	if pr.Kind == domain.KindPregnancyDetection && x.pregCanon == CanonYes && !pr.Replay && !pr.Registration {
		if err := p.restampBasic(ctx, tx, pr, x); err != nil {
			return nil, err
		}
	}
	return row, nil
}

// mergeDetection removes the detection-derived row dated date, together with
// the answer session it came from, so that a corrected detection replaces it.
func (p *Projector) mergeDetection(ctx context.Context, tx *gorm.DB, pr projection, date time.Time) error {
	rows, err := repo.FindYieldOnDate(ctx, tx, pr.Key, date, domain.KindPregnancyDetection)
	if err != nil {
		return err
	}
	stale := rows[:0]
	for _, r := range rows {
		if r.SourceSessionID != pr.SessionID {
			stale = append(stale, r)
		}
	}
	switch len(stale) {
	case 0:
		return nil
	case 1:
	default:
		return fmt.Errorf("%w: %d pregnancy detection rows dated %s", ErrInconsistentState, len(stale), date.Format("2006-01-02"))
	}

	old := stale[0]
	if err := repo.DeleteYieldByIDs(ctx, tx, []string{old.ID}); err != nil {
		return err
	}
	if !pr.Replay {
		if _, err := repo.DeleteSessions(ctx, tx, pr.Key, []string{old.SourceSessionID}); err != nil {
			return err
		}
	}
	yieldRows.WithLabelValues("merge").Inc()
	zerolog.Ctx(ctx).Info().
		Str("session_id", pr.SessionID).
		Str("merged_session_id", old.SourceSessionID).
		Time("date", date).
		Msg("pregnancy detection corrected")
	return nil
}

// restampBasic copies the latest basic details session to the detection's
// timestamp with sex set to female and the detection batch's lactation value,
// replacing a basic session written the same day.
func (p *Projector) restampBasic(ctx context.Context, tx *gorm.DB, pr projection, x extracted) error {
	basic, err := repo.FirstCategoryOfKind(ctx, tx, domain.KindBasic)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	latest, err := repo.LatestSession(ctx, tx, pr.Key, basic.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	qids := make([]uint, 0, len(latest.Answers))
	for _, a := range latest.Answers {
		qids = append(qids, a.QuestionID)
	}
	tags, err := repo.QuestionTags(ctx, tx, qids)
	if err != nil {
		return err
	}

	sexText := "Female"
	if x.hasSex && x.sexText != "" {
		sexText = x.sexText
	}
	sessionID := uuid.NewString()
	clone := make([]domain.Answer, 0, len(latest.Answers)+1)
	hasSex := false
	for _, a := range latest.Answers {
		c := a
		c.ID = uuid.NewString()
		c.SessionID = sessionID
		c.SessionAt = pr.At
		c.CreatedAt = time.Time{}
		c.DeletedAt = gorm.DeletedAt{}
		switch tag := tags[a.QuestionID]; {
		case tag == domain.TagSex:
			c.Answer, c.Canonical = sexText, CanonFemale
			hasSex = true
		case tag.Role() == domain.RoleLactation && x.lactText != "":
			c.Answer, c.Canonical = x.lactText, x.lactCanon
		}
		clone = append(clone, c)
	}
	if !hasSex {
		q, err := repo.FindQuestionByTag(ctx, tx, pr.Key.AnimalID, domain.TagSex, domain.KindBasic)
		if err == nil && q.CategoryID == basic.ID {
			clone = append(clone, domain.Answer{
				ID:           uuid.NewString(),
				UserID:       pr.Key.UserID,
				AnimalID:     pr.Key.AnimalID,
				AnimalNumber: pr.Key.AnimalNumber,
				CategoryID:   basic.ID,
				QuestionID:   q.ID,
				SessionID:    sessionID,
				SessionAt:    pr.At,
				Answer:       sexText,
				Canonical:    CanonFemale,
				Status:       domain.StatusActive,
			})
		} else if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
	}

	from, to := dayBounds(pr.At, p.loc())
	today, err := repo.SessionIDsInRange(ctx, tx, pr.Key, basic.ID, from, to)
	if err != nil {
		return err
	}
	if _, err := repo.DeleteSessions(ctx, tx, pr.Key, today); err != nil {
		return err
	}
	if _, err := repo.RepointYieldSource(ctx, tx, pr.Key, today, sessionID); err != nil {
		return err
	}
	if err := repo.InsertAnswers(ctx, tx, clone); err != nil {
		return err
	}

	mode := ModeAppend
	if len(today) > 0 {
		mode = ModeReplace
	}
	sessionsWritten.WithLabelValues(string(domain.KindBasic), mode).Inc()
	zerolog.Ctx(ctx).Debug().
		Str("from_session_id", latest.ID).
		Str("session_id", sessionID).
		Str("mode", mode).
		Msg("basic details re-stamped after positive pregnancy detection")
	return nil
}
