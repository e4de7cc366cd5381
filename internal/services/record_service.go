// Package services – RecordService
//
// RecordService owns every mutation of the answer store: registering an
// animal instance, writing a category's answers under that category's
// replace policy, and retiring an instance. Each operation validates its
// input against the catalog before opening a transaction, then performs the
// delete/insert and the yield history projection in that one transaction.
//
// Observability: public methods are OpenTelemetry-instrumented and report
// sessions written to Prometheus.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

// AnswerInput is one submitted answer.
type AnswerInput struct {
	QuestionID uint    `json:"question_id" binding:"required"`
	Answer     string  `json:"answer"`
	LogicValue *string `json:"logic_value,omitempty"`
}

// CreateInput registers a new animal instance with its first answers.
type CreateInput struct {
	AnimalID     uint          `json:"animal_id"     binding:"required"`
	AnimalNumber string        `json:"animal_number" binding:"required"`
	Answers      []AnswerInput `json:"answers"       binding:"required"`
}

// WriteInput writes one category's answers for an existing instance. Date is
// required by categories whose replace key is a supplied date.
type WriteInput struct {
	AnimalID     uint          `json:"-"`
	AnimalNumber string        `json:"-"`
	CategoryID   uint          `json:"-"`
	Date         string        `json:"date,omitempty"`
	Answers      []AnswerInput `json:"answers" binding:"required"`
}

// WriteResult describes the session a write produced.
type WriteResult struct {
	SessionID  string    `json:"session_id"`
	SessionAt  time.Time `json:"session_at"`
	CategoryID uint      `json:"category_id"`
	Mode       string    `json:"mode"`
	Replaced   []string  `json:"replaced_sessions,omitempty"`
	Companions int       `json:"companion_answers,omitempty"`
}

// RecordService writes answers and keeps the yield history in step.
type RecordService struct {
	DB        *gorm.DB
	Projector *Projector
	// Location defines calendar days for replace keys; defaults to UTC.
	Location *time.Location
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

func (s *RecordService) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// now returns the current instant truncated to microseconds, the precision
// PostgreSQL keeps, so same-instant comparisons survive a round trip.
func (s *RecordService) now() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().UTC().Truncate(time.Microsecond)
}

func (s *RecordService) projector() *Projector {
	if s.Projector != nil {
		return s.Projector
	}
	return &Projector{Location: s.loc()}
}

// scopeKey validates and builds the instance key.
func scopeKey(userID, animalID uint, number string) (domain.InstanceKey, error) {
	number = strings.TrimSpace(number)
	switch {
	case userID == 0:
		return domain.InstanceKey{}, inputErr("user_id", "is required")
	case animalID == 0:
		return domain.InstanceKey{}, inputErr("animal_id", "is required")
	case number == "":
		return domain.InstanceKey{}, inputErr("animal_number", "is required")
	case len(number) > 64:
		return domain.InstanceKey{}, inputErr("animal_number", "is too long")
	}
	return domain.InstanceKey{UserID: userID, AnimalID: animalID, AnimalNumber: number}, nil
}

// checkAnimal maps a missing animal type to a reference error.
func checkAnimal(ctx context.Context, db *gorm.DB, animalID uint) error {
	if _, err := repo.GetAnimal(ctx, db, animalID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return refErr("animal", animalID)
		}
		return err
	}
	return nil
}

// checkAnswers resolves every answer's question among applicable and
// rejects empty batches and repeated questions.
func checkAnswers(answers []AnswerInput, applicable map[uint]domain.Question) ([]domain.Question, error) {
	if len(answers) == 0 {
		return nil, inputErr("answers", "at least one answer is required")
	}
	seen := make(map[uint]struct{}, len(answers))
	out := make([]domain.Question, 0, len(answers))
	for _, a := range answers {
		q, ok := applicable[a.QuestionID]
		if !ok {
			return nil, refErr("question", a.QuestionID)
		}
		if _, dup := seen[a.QuestionID]; dup {
			return nil, inputErr("answers", fmt.Sprintf("question %d answered twice", a.QuestionID))
		}
		seen[a.QuestionID] = struct{}{}
		out = append(out, q)
	}
	return out, nil
}

func indexQuestions(qs []domain.Question) map[uint]domain.Question {
	m := make(map[uint]domain.Question, len(qs))
	for _, q := range qs {
		m[q.ID] = q
	}
	return m
}

// newRow builds an answer row of a session.
func newRow(key domain.InstanceKey, categoryID, questionID uint, sessionID string, at time.Time, text string, logic *string) domain.Answer {
	text = strings.TrimSpace(text)
	return domain.Answer{
		ID:           uuid.NewString(),
		UserID:       key.UserID,
		AnimalID:     key.AnimalID,
		AnimalNumber: key.AnimalNumber,
		CategoryID:   categoryID,
		QuestionID:   questionID,
		SessionID:    sessionID,
		SessionAt:    at,
		Answer:       text,
		Canonical:    Canonicalize(text),
		LogicValue:   logic,
		Status:       domain.StatusActive,
	}
}

// Create registers a new animal instance. Answers are grouped into one
// session per question category, all stamped now. Each session gets the
// companions and projection a Write to its category would, in one
// transaction. It fails with ErrDuplicateActiveRecord when the instance
// already has active answers.
func (s *RecordService) Create(ctx context.Context, userID uint, in CreateInput) ([]WriteResult, error) {
	tr := otel.Tracer("services/RecordService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(userID)),
			attribute.Int64("animal.id", int64(in.AnimalID)),
			attribute.String("animal.number", in.AnimalNumber),
			attribute.Int("answers", len(in.Answers)),
		),
	)
	defer span.End()

	key, err := scopeKey(userID, in.AnimalID, in.AnimalNumber)
	if err != nil {
		return nil, err
	}
	if err := checkAnimal(ctx, s.DB, key.AnimalID); err != nil {
		return nil, err
	}
	catalog, err := repo.ListApplicableQuestions(ctx, s.DB, key.AnimalID, 0)
	if err != nil {
		return nil, err
	}
	questions, err := checkAnswers(in.Answers, indexQuestions(catalog))
	if err != nil {
		return nil, err
	}

	at := s.now()
	type pending struct {
		res    *WriteResult
		kind   domain.CategoryKind
		policy ReplacePolicy
		tagged []taggedAnswer
	}
	var (
		order    []uint
		sessions = map[uint]*pending{}
		rows     = make([]domain.Answer, 0, len(in.Answers))
	)
	for i, a := range in.Answers {
		q := questions[i]
		p, ok := sessions[q.CategoryID]
		if !ok {
			policy, known := PolicyFor(q.Category.Kind)
			if !known {
				return nil, refErr("category kind", q.Category.Kind)
			}
			p = &pending{
				res:    &WriteResult{SessionID: uuid.NewString(), SessionAt: at, CategoryID: q.CategoryID, Mode: ModeAppend},
				kind:   q.Category.Kind,
				policy: policy,
			}
			sessions[q.CategoryID] = p
			order = append(order, q.CategoryID)
		}
		row := newRow(key, q.CategoryID, q.ID, p.res.SessionID, at, a.Answer, a.LogicValue)
		rows = append(rows, row)
		p.tagged = append(p.tagged, taggedAnswer{QuestionID: q.ID, Tag: q.Tag, Text: row.Answer, Canonical: row.Canonical})
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.LockInstance(ctx, tx, key); err != nil {
			return err
		}
		exists, err := repo.HasActiveInstance(ctx, tx, key)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateActiveRecord
		}
		if err := repo.InsertAnswers(ctx, tx, rows); err != nil {
			return err
		}

		// Companions run after the insert so a lactation answer given
		// elsewhere in the registration is the one copied.
		for _, id := range order {
			p := sessions[id]
			if p.policy != ReplaceTodayWithCompanions {
				continue
			}
			extra, err := s.companions(ctx, tx, key, id, p.res.SessionID, at, p.tagged)
			if err != nil {
				return err
			}
			if len(extra) == 0 {
				continue
			}
			companionRows := make([]domain.Answer, 0, len(extra))
			for _, c := range extra {
				companionRows = append(companionRows, c.row)
				p.tagged = append(p.tagged, c.tagged)
			}
			if err := repo.InsertAnswers(ctx, tx, companionRows); err != nil {
				return err
			}
			p.res.Companions = len(extra)
		}

		for _, id := range order {
			p := sessions[id]
			if _, err := s.projector().Apply(ctx, tx, projection{
				Key:          key,
				SessionID:    p.res.SessionID,
				CategoryID:   id,
				Kind:         p.kind,
				At:           at,
				Answers:      p.tagged,
				Registration: true,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]WriteResult, 0, len(order))
	for _, id := range order {
		p := sessions[id]
		sessionsWritten.WithLabelValues(string(p.kind), ModeAppend).Inc()
		out = append(out, *p.res)
	}
	zerolog.Ctx(ctx).Info().
		Uint("animal_id", key.AnimalID).
		Str("animal_number", key.AnimalNumber).
		Int("sessions", len(out)).
		Msg("animal instance created")
	return out, nil
}

// Write records one category's answers for an existing instance, replacing
// earlier sessions according to the category's policy.
func (s *RecordService) Write(ctx context.Context, userID uint, in WriteInput) (*WriteResult, error) {
	tr := otel.Tracer("services/RecordService")
	ctx, span := tr.Start(ctx, "Write",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(userID)),
			attribute.Int64("animal.id", int64(in.AnimalID)),
			attribute.String("animal.number", in.AnimalNumber),
			attribute.Int64("category.id", int64(in.CategoryID)),
			attribute.Int("answers", len(in.Answers)),
		),
	)
	defer span.End()

	key, err := scopeKey(userID, in.AnimalID, in.AnimalNumber)
	if err != nil {
		return nil, err
	}
	cat, err := repo.GetCategory(ctx, s.DB, in.CategoryID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, refErr("category", in.CategoryID)
	}
	if err != nil {
		return nil, err
	}
	policy, ok := PolicyFor(cat.Kind)
	if !ok {
		return nil, refErr("category kind", cat.Kind)
	}
	if err := checkAnimal(ctx, s.DB, key.AnimalID); err != nil {
		return nil, err
	}
	catalog, err := repo.ListApplicableQuestions(ctx, s.DB, key.AnimalID, cat.ID)
	if err != nil {
		return nil, err
	}
	questions, err := checkAnswers(in.Answers, indexQuestions(catalog))
	if err != nil {
		return nil, err
	}
	var supplied time.Time
	if policy.RequiresDate() {
		d, ok := parseDay(in.Date)
		if !ok {
			return nil, inputErr("date", "a valid date (YYYY-MM-DD) is required for this category")
		}
		supplied = d
	}
	span.SetAttributes(attribute.String("policy", policy.String()))

	at := stamp(policy, s.now(), supplied, s.loc())
	res := &WriteResult{SessionID: uuid.NewString(), SessionAt: at, CategoryID: cat.ID, Mode: ModeAppend}

	rows := make([]domain.Answer, 0, len(in.Answers)+2)
	tagged := make([]taggedAnswer, 0, len(in.Answers)+2)
	var heatDate string
	for i, a := range in.Answers {
		q := questions[i]
		row := newRow(key, cat.ID, q.ID, res.SessionID, at, a.Answer, a.LogicValue)
		rows = append(rows, row)
		tagged = append(tagged, taggedAnswer{QuestionID: q.ID, Tag: q.Tag, Text: row.Answer, Canonical: row.Canonical})
		if q.Tag == domain.TagHeatDate {
			heatDate = row.Answer
		}
	}

	lg := zerolog.Ctx(ctx)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The projector reads and restamps other categories, so writes
		// serialize per instance rather than per category.
		if err := repo.LockInstance(ctx, tx, key); err != nil {
			return err
		}
		exists, err := repo.HasActiveInstance(ctx, tx, key)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		replaced, err := resolveSessions(ctx, tx, key, cat, policy, at, heatDate, s.loc())
		if err != nil {
			return err
		}

		// Companions read the last known lactation answer, which may live in
		// a session about to be replaced.
		if policy == ReplaceTodayWithCompanions {
			extra, err := s.companions(ctx, tx, key, cat.ID, res.SessionID, at, tagged)
			if err != nil {
				return err
			}
			for _, c := range extra {
				rows = append(rows, c.row)
				tagged = append(tagged, c.tagged)
			}
			res.Companions = len(extra)
		}

		if _, err := repo.DeleteSessions(ctx, tx, key, replaced); err != nil {
			return err
		}
		if err := repo.InsertAnswers(ctx, tx, rows); err != nil {
			return err
		}
		if _, err := s.projector().Apply(ctx, tx, projection{
			Key:        key,
			SessionID:  res.SessionID,
			CategoryID: cat.ID,
			Kind:       cat.Kind,
			At:         at,
			Answers:    tagged,
			Replaced:   replaced,
		}); err != nil {
			return err
		}
		if len(replaced) > 0 {
			res.Mode = ModeReplace
			res.Replaced = replaced
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sessionsWritten.WithLabelValues(string(cat.Kind), res.Mode).Inc()
	lg.Info().
		Uint("category_id", cat.ID).
		Str("policy", policy.String()).
		Str("mode", res.Mode).
		Str("session_id", res.SessionID).
		Strs("replaced", res.Replaced).
		Msg("category answers written")
	return res, nil
}

type companion struct {
	row    domain.Answer
	tagged taggedAnswer
}

// companions fans a positive pregnancy detection out into a female sex
// confirmation and a copy of the last known lactation answer, both in the
// detection's session. Tags already answered in the batch are left alone.
func (s *RecordService) companions(ctx context.Context, tx *gorm.DB, key domain.InstanceKey, categoryID uint,
	sessionID string, at time.Time, batch []taggedAnswer) ([]companion, error) {
	answered := make(map[domain.QuestionTag]bool, len(batch))
	positive := false
	for _, a := range batch {
		answered[a.Tag] = true
		if a.Tag == domain.TagPregnancyDetected && a.Canonical == CanonYes {
			positive = true
		}
	}
	if !positive {
		return nil, nil
	}

	lg := zerolog.Ctx(ctx)
	var out []companion
	if !answered[domain.TagSex] {
		q, err := repo.FindQuestionByTag(ctx, tx, key.AnimalID, domain.TagSex, domain.KindBasic)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			lg.Debug().Uint("animal_id", key.AnimalID).Msg("no sex question in catalog; companion skipped")
		case err != nil:
			return nil, err
		default:
			row := newRow(key, categoryID, q.ID, sessionID, at, "Female", nil)
			out = append(out, companion{row: row, tagged: taggedAnswer{QuestionID: q.ID, Tag: domain.TagSex, Text: row.Answer, Canonical: row.Canonical}})
		}
	}

	if !answered[domain.TagLactating] && !answered[domain.TagLactatingState] {
		prev, err := repo.LatestTaggedAnswer(ctx, tx, key, domain.TagLactating, domain.TagLactatingState)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return out, nil
		case err != nil:
			return nil, err
		}
		q, err := repo.FindQuestionByTag(ctx, tx, key.AnimalID, domain.TagLactating, domain.KindBasic)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			lg.Debug().Uint("animal_id", key.AnimalID).Msg("no lactation question in catalog; companion skipped")
			return out, nil
		case err != nil:
			return nil, err
		}
		row := newRow(key, categoryID, q.ID, sessionID, at, prev.Answer, prev.LogicValue)
		out = append(out, companion{row: row, tagged: taggedAnswer{QuestionID: q.ID, Tag: domain.TagLactating, Text: row.Answer, Canonical: row.Canonical}})
	}
	return out, nil
}

// Retire marks every active answer of the instance as retired (sold or dead
// animal) and clears its yield history, freeing the number for a new
// registration. ErrNotFound when the instance has no active answers.
func (s *RecordService) Retire(ctx context.Context, userID, animalID uint, number string) error {
	tr := otel.Tracer("services/RecordService")
	ctx, span := tr.Start(ctx, "Retire",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(userID)),
			attribute.Int64("animal.id", int64(animalID)),
			attribute.String("animal.number", number),
		),
	)
	defer span.End()

	key, err := scopeKey(userID, animalID, number)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.LockInstance(ctx, tx, key); err != nil {
			return err
		}
		n, err := repo.RetireInstance(ctx, tx, key)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		removed, err := repo.DeleteYieldHistory(ctx, tx, key)
		if err != nil {
			return err
		}
		yieldRows.WithLabelValues("delete").Add(float64(removed))
		zerolog.Ctx(ctx).Info().
			Uint("animal_id", key.AnimalID).
			Str("animal_number", key.AnimalNumber).
			Int64("answers", n).
			Msg("animal instance retired")
		return nil
	})
}

// ListInstances returns the user's active animal instances.
func (s *RecordService) ListInstances(ctx context.Context, userID uint) ([]domain.InstanceKey, error) {
	tr := otel.Tracer("services/RecordService")
	ctx, span := tr.Start(ctx, "ListInstances",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))),
	)
	defer span.End()

	out, err := repo.ListInstances(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.InstanceKey{}
	}
	return out, nil
}
