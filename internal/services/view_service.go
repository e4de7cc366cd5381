// Package services – ViewService
//
// ViewService builds the read-only grouped view of an animal instance:
// every catalog question applicable to the animal type, grouped by localized
// category and subcategory name, with the answer from the active session of
// the question's category (nil when unanswered). It also lists the session
// history of a single category.
//
// Catalog metadata, translations and answers are loaded concurrently with
// errgroup; nothing here mutates state.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-livestock-backend/internal/domain"
	"github.com/tbourn/go-livestock-backend/internal/repo"
)

// QuestionView is one question of the grouped view.
type QuestionView struct {
	QuestionID         uint               `json:"question_id"`
	CategoryID         uint               `json:"category_id"`
	SubcategoryID      *uint              `json:"subcategory_id,omitempty"`
	Question           string             `json:"question"`
	Hint               string             `json:"hint,omitempty"`
	FormType           string             `json:"form_type"`
	FormTypeValue      string             `json:"form_type_value,omitempty"`
	ValidationRule     string             `json:"validation_rule,omitempty"`
	ValidationConstant string             `json:"validation_constant,omitempty"`
	Tag                domain.QuestionTag `json:"question_tag"`
	TagName            string             `json:"question_tag_name,omitempty"`
	Unit               string             `json:"question_unit,omitempty"`
	Sequence           int                `json:"sequence"`
	Answer             *string            `json:"answer"`
	LogicValue         *string            `json:"logic_value,omitempty"`
	SessionID          string             `json:"session_id,omitempty"`
	SessionAt          *time.Time         `json:"session_at,omitempty"`
}

// GroupedView maps localized category name to localized subcategory name
// ("" when a question has no subcategory) to questions in catalog order.
type GroupedView map[string]map[string][]QuestionView

// ViewQuery selects the instance, language and optional category of a view.
type ViewQuery struct {
	UserID       uint
	AnimalID     uint
	AnimalNumber string
	// Language is a BCP 47 tag ("mr", "te-IN"); empty selects the master language.
	Language   string
	CategoryID uint
}

// ViewService builds grouped views and session histories.
type ViewService struct {
	DB *gorm.DB
}

// resolveLanguage picks the catalog language for tag, falling back to the
// master language when the tag's base language has no catalog entry.
func resolveLanguage(ctx context.Context, db *gorm.DB, tag string) (*domain.Language, *domain.Language, error) {
	master, err := repo.MasterLanguage(ctx, db)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, refErr("language", "master")
		}
		return nil, nil, err
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return master, master, nil
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return nil, nil, inputErr("lang", "not a valid language tag")
	}
	base, _ := parsed.Base()
	l, err := repo.GetLanguageByCode(ctx, db, base.String())
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return master, master, nil
	case err != nil:
		return nil, nil, err
	}
	return l, master, nil
}

// View returns the grouped view of an instance. Instances without answers
// yield the full catalog scaffold with nil answers.
func (s *ViewService) View(ctx context.Context, q ViewQuery) (GroupedView, error) {
	tr := otel.Tracer("services/ViewService")
	ctx, span := tr.Start(ctx, "View",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(q.UserID)),
			attribute.Int64("animal.id", int64(q.AnimalID)),
			attribute.String("animal.number", q.AnimalNumber),
			attribute.String("lang", q.Language),
			attribute.Int64("category.id", int64(q.CategoryID)),
		),
	)
	defer span.End()

	key, err := scopeKey(q.UserID, q.AnimalID, q.AnimalNumber)
	if err != nil {
		return nil, err
	}
	if err := checkAnimal(ctx, s.DB, key.AnimalID); err != nil {
		return nil, err
	}
	if q.CategoryID != 0 {
		if _, err := repo.GetCategory(ctx, s.DB, q.CategoryID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, refErr("category", q.CategoryID)
			}
			return nil, err
		}
	}
	lang, master, err := resolveLanguage(ctx, s.DB, q.Language)
	if err != nil {
		return nil, err
	}
	localized := lang.ID != master.ID

	var (
		questions []domain.Question
		active    map[uint]string
		catNames  map[uint]string
		subNames  map[uint]string
		tagNames  map[domain.QuestionTag]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		questions, err = repo.ListApplicableQuestions(gctx, s.DB, key.AnimalID, q.CategoryID)
		return err
	})
	g.Go(func() (err error) {
		active, err = repo.ActiveSessionIDs(gctx, s.DB, key)
		return err
	})
	g.Go(func() (err error) {
		tagNames, err = repo.TagNames(gctx, s.DB)
		return err
	})
	if localized {
		g.Go(func() (err error) {
			catNames, err = repo.CategoryNames(gctx, s.DB, lang.ID)
			return err
		})
		g.Go(func() (err error) {
			subNames, err = repo.SubcategoryNames(gctx, s.DB, lang.ID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sessionIDs := make([]string, 0, len(active))
	for catID, sid := range active {
		if q.CategoryID == 0 || catID == q.CategoryID {
			sessionIDs = append(sessionIDs, sid)
		}
	}
	qids := make([]uint, 0, len(questions))
	for _, qq := range questions {
		qids = append(qids, qq.ID)
	}

	var (
		answers      []domain.Answer
		translations map[uint]domain.QuestionLanguage
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		answers, err = repo.ListSessionAnswers(gctx, s.DB, sessionIDs)
		return err
	})
	if localized {
		g.Go(func() (err error) {
			translations, err = repo.QuestionTranslations(gctx, s.DB, lang.ID, qids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	type answerKey struct {
		session  string
		question uint
	}
	byKey := make(map[answerKey]domain.Answer, len(answers))
	for _, a := range answers {
		k := answerKey{a.SessionID, a.QuestionID}
		if _, dup := byKey[k]; !dup {
			byKey[k] = a
		}
	}

	out := GroupedView{}
	for _, qq := range questions {
		v := QuestionView{
			QuestionID:    qq.ID,
			CategoryID:    qq.CategoryID,
			SubcategoryID: qq.SubcategoryID,
			Question:      qq.Text,
			Hint:          qq.Hint,
			FormType:      qq.FormType.Name,
			FormTypeValue: qq.FormTypeValue,
			Tag:           qq.Tag,
			TagName:       tagNames[qq.Tag],
			Sequence:      qq.Sequence,
		}
		if lv, ok := translations[qq.ID]; ok {
			if lv.Text != "" {
				v.Question = lv.Text
			}
			if lv.Hint != "" {
				v.Hint = lv.Hint
			}
			if lv.FormTypeValue != "" {
				v.FormTypeValue = lv.FormTypeValue
			}
		}
		if qq.ValidationRule != nil {
			v.ValidationRule = qq.ValidationRule.Name
			v.ValidationConstant = qq.ValidationRule.Constant
		}
		if qq.Unit != nil {
			v.Unit = qq.Unit.Name
		}
		if sid, ok := active[qq.CategoryID]; ok {
			if a, ok := byKey[answerKey{sid, qq.ID}]; ok {
				text := a.Answer
				at := a.SessionAt
				v.Answer = &text
				v.LogicValue = a.LogicValue
				v.SessionID = a.SessionID
				v.SessionAt = &at
			}
		}

		catName := qq.Category.Name
		if n, ok := catNames[qq.CategoryID]; ok && n != "" {
			catName = n
		}
		subName := ""
		if qq.Subcategory != nil {
			subName = qq.Subcategory.Name
			if n, ok := subNames[qq.Subcategory.ID]; ok && n != "" {
				subName = n
			}
		}
		group, ok := out[catName]
		if !ok {
			group = map[string][]QuestionView{}
			out[catName] = group
		}
		group[subName] = append(group[subName], v)
	}
	return out, nil
}

// Sessions returns every active session of one category of an instance,
// newest first. ErrNotFound when the instance has no active answers at all.
func (s *ViewService) Sessions(ctx context.Context, userID, animalID uint, number string, categoryID uint) ([]domain.Session, error) {
	tr := otel.Tracer("services/ViewService")
	ctx, span := tr.Start(ctx, "Sessions",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(userID)),
			attribute.Int64("animal.id", int64(animalID)),
			attribute.Int64("category.id", int64(categoryID)),
		),
	)
	defer span.End()

	key, err := scopeKey(userID, animalID, number)
	if err != nil {
		return nil, err
	}
	if _, err := repo.GetCategory(ctx, s.DB, categoryID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, refErr("category", categoryID)
		}
		return nil, err
	}
	sessions, err := repo.ListCategorySessions(ctx, s.DB, key, categoryID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		ok, err := repo.HasActiveInstance(ctx, s.DB, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotFound
		}
		return []domain.Session{}, nil
	}
	return sessions, nil
}

// Stats returns the number of active answers of an instance and the newest
// write time, for conditional responses.
func (s *ViewService) Stats(ctx context.Context, userID, animalID uint, number string) (int64, *time.Time, error) {
	key, err := scopeKey(userID, animalID, number)
	if err != nil {
		return 0, nil, err
	}
	return repo.AnswerStats(ctx, s.DB, key)
}
