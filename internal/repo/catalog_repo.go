// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read-only lookups over the question
// catalog: animals, categories, languages, questions and their localized
// variants.
//
// Error semantics:
//   - Single-row lookups return ErrNotFound (gorm.ErrRecordNotFound) when the
//     row does not exist.
//   - Multi-row lookups return an empty result, never ErrNotFound.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-livestock-backend/internal/domain"
)

// GetAnimal fetches an animal type by id.
func GetAnimal(ctx context.Context, db *gorm.DB, id uint) (*domain.Animal, error) {
	var a domain.Animal
	if err := db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// GetCategory fetches a category by id.
func GetCategory(ctx context.Context, db *gorm.DB, id uint) (*domain.Category, error) {
	var c domain.Category
	if err := db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FirstCategoryOfKind returns the lowest-sequence category of kind k.
func FirstCategoryOfKind(ctx context.Context, db *gorm.DB, k domain.CategoryKind) (*domain.Category, error) {
	var c domain.Category
	err := db.WithContext(ctx).
		Where("kind = ?", k).
		Order("sequence ASC, id ASC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetLanguageByCode fetches a language by its code (e.g. "en", "mr").
func GetLanguageByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Language, error) {
	var l domain.Language
	if err := db.WithContext(ctx).First(&l, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// MasterLanguage returns the language whose text is stored on catalog rows.
func MasterLanguage(ctx context.Context, db *gorm.DB) (*domain.Language, error) {
	var l domain.Language
	err := db.WithContext(ctx).Where("is_master = ?", true).Order("id ASC").First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListApplicableQuestions returns the questions that apply to animalID,
// optionally restricted to one category (categoryID 0 means all), with their
// category, subcategory, validation rule, form type and unit preloaded.
//
// Order: category sequence, subcategory sequence, question sequence, id.
func ListApplicableQuestions(ctx context.Context, db *gorm.DB, animalID, categoryID uint) ([]domain.Question, error) {
	q := db.WithContext(ctx).
		Model(&domain.Question{}).
		Joins("JOIN animal_questions aq ON aq.question_id = questions.id AND aq.animal_id = ?", animalID).
		Joins("JOIN categories cat ON cat.id = questions.category_id").
		Joins("LEFT JOIN subcategories sub ON sub.id = questions.subcategory_id")
	if categoryID != 0 {
		q = q.Where("questions.category_id = ?", categoryID)
	}
	var out []domain.Question
	err := q.
		Preload("Category").
		Preload("Subcategory").
		Preload("ValidationRule").
		Preload("FormType").
		Preload("Unit").
		Order("cat.sequence ASC, cat.id ASC").
		Order("COALESCE(sub.sequence, 0) ASC, COALESCE(sub.id, 0) ASC").
		Order("questions.sequence_number ASC, questions.id ASC").
		Find(&out).Error
	return out, err
}

// FindQuestionByTag returns the question tagged tag that applies to animalID,
// preferring one from a category of kind prefer. ErrNotFound when none exists.
func FindQuestionByTag(ctx context.Context, db *gorm.DB, animalID uint, tag domain.QuestionTag, prefer domain.CategoryKind) (*domain.Question, error) {
	var q domain.Question
	err := db.WithContext(ctx).
		Model(&domain.Question{}).
		Joins("JOIN animal_questions aq ON aq.question_id = questions.id AND aq.animal_id = ?", animalID).
		Joins("JOIN categories cat ON cat.id = questions.category_id").
		Where("questions.question_tag = ?", tag).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  "CASE WHEN cat.kind = ? THEN 0 ELSE 1 END, questions.id ASC",
			Vars: []any{prefer},
		}}).
		Take(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// QuestionTranslations returns the localized variants of qids in languageID,
// keyed by question id. Missing variants are simply absent.
func QuestionTranslations(ctx context.Context, db *gorm.DB, languageID uint, qids []uint) (map[uint]domain.QuestionLanguage, error) {
	out := make(map[uint]domain.QuestionLanguage, len(qids))
	if len(qids) == 0 {
		return out, nil
	}
	var rows []domain.QuestionLanguage
	err := db.WithContext(ctx).
		Where("language_id = ? AND question_id IN ?", languageID, qids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.QuestionID] = r
	}
	return out, nil
}

// CategoryNames returns localized category names keyed by category id.
func CategoryNames(ctx context.Context, db *gorm.DB, languageID uint) (map[uint]string, error) {
	var rows []domain.CategoryLanguage
	if err := db.WithContext(ctx).Where("language_id = ?", languageID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]string, len(rows))
	for _, r := range rows {
		out[r.CategoryID] = r.Name
	}
	return out, nil
}

// SubcategoryNames returns localized subcategory names keyed by subcategory id.
func SubcategoryNames(ctx context.Context, db *gorm.DB, languageID uint) (map[uint]string, error) {
	var rows []domain.SubcategoryLanguage
	if err := db.WithContext(ctx).Where("language_id = ?", languageID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]string, len(rows))
	for _, r := range rows {
		out[r.SubcategoryID] = r.Name
	}
	return out, nil
}

// TagNames returns the display names of question tags.
func TagNames(ctx context.Context, db *gorm.DB) (map[domain.QuestionTag]string, error) {
	var rows []domain.QuestionTagName
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[domain.QuestionTag]string, len(rows))
	for _, r := range rows {
		out[domain.QuestionTag(r.ID)] = r.Name
	}
	return out, nil
}

// QuestionTags returns the tag of each question in qids.
func QuestionTags(ctx context.Context, db *gorm.DB, qids []uint) (map[uint]domain.QuestionTag, error) {
	out := make(map[uint]domain.QuestionTag, len(qids))
	if len(qids) == 0 {
		return out, nil
	}
	var rows []domain.Question
	if err := db.WithContext(ctx).Select("id", "question_tag").Where("id IN ?", qids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, q := range rows {
		out[q.ID] = q.Tag
	}
	return out, nil
}
