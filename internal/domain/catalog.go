// Package domain defines the persistence models of the livestock records
// service. The types are mapped with GORM and shared by the repository and
// service layers.
//
// The question catalog (animals, categories, questions and their localized
// variants) is reference data. This service reads it; it never writes it
// outside of tests and seeding.
package domain

// CategoryKind selects how writes to a category replace earlier sessions.
type CategoryKind string

const (
	KindBasic              CategoryKind = "basic"
	KindBirth              CategoryKind = "birth"
	KindBreeding           CategoryKind = "breeding"
	KindMilk               CategoryKind = "milk"
	KindHealth             CategoryKind = "health"
	KindHeat               CategoryKind = "heat"
	KindPregnancyDetection CategoryKind = "pregnancy_detection"
	KindDelivery           CategoryKind = "delivery"
)

// Valid reports whether k is one of the known kinds.
func (k CategoryKind) Valid() bool {
	switch k {
	case KindBasic, KindBirth, KindBreeding, KindMilk, KindHealth,
		KindHeat, KindPregnancyDetection, KindDelivery:
		return true
	}
	return false
}

// Animal is an animal type (cow, buffalo, goat, ...).
type Animal struct {
	ID   uint   `json:"id"   gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(64);not null;uniqueIndex"`
}

func (Animal) TableName() string { return "animals" }

// Language is a UI language. Exactly one row should be the master language
// whose text lives directly on the catalog rows.
type Language struct {
	ID       uint   `json:"id"        gorm:"primaryKey"`
	Code     string `json:"code"      gorm:"type:varchar(16);not null;uniqueIndex"`
	Name     string `json:"name"      gorm:"type:varchar(64);not null"`
	IsMaster bool   `json:"is_master" gorm:"not null;default:false"`
}

func (Language) TableName() string { return "languages" }

// Category is a questionnaire section (basic details, milk, heat, ...).
type Category struct {
	ID       uint         `json:"id"       gorm:"primaryKey"`
	Name     string       `json:"name"     gorm:"type:varchar(128);not null"`
	Kind     CategoryKind `json:"kind"     gorm:"type:varchar(32);not null;index"`
	Sequence int          `json:"sequence" gorm:"not null;default:0"`
}

func (Category) TableName() string { return "categories" }

// CategoryLanguage holds a localized category name.
type CategoryLanguage struct {
	CategoryID uint   `gorm:"primaryKey"`
	LanguageID uint   `gorm:"primaryKey"`
	Name       string `gorm:"type:varchar(128);not null"`
}

func (CategoryLanguage) TableName() string { return "category_languages" }

// Subcategory groups questions inside a category.
type Subcategory struct {
	ID         uint   `json:"id"          gorm:"primaryKey"`
	CategoryID uint   `json:"category_id" gorm:"not null;index"`
	Name       string `json:"name"        gorm:"type:varchar(128);not null"`
	Sequence   int    `json:"sequence"    gorm:"not null;default:0"`
}

func (Subcategory) TableName() string { return "subcategories" }

// SubcategoryLanguage holds a localized subcategory name.
type SubcategoryLanguage struct {
	SubcategoryID uint   `gorm:"primaryKey"`
	LanguageID    uint   `gorm:"primaryKey"`
	Name          string `gorm:"type:varchar(128);not null"`
}

func (SubcategoryLanguage) TableName() string { return "subcategory_languages" }

// ValidationRule names the client-side validation applied to an answer.
type ValidationRule struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"type:varchar(64);not null"`
	Constant string `gorm:"type:varchar(255)"`
}

func (ValidationRule) TableName() string { return "validation_rules" }

// FormType names the input widget (text, date, radio, ...).
type FormType struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"type:varchar(64);not null"`
}

func (FormType) TableName() string { return "form_types" }

// QuestionTagName is the display name of a tag. Business meaning comes from
// QuestionTag, not from this table.
type QuestionTagName struct {
	ID   uint   `gorm:"primaryKey;autoIncrement:false"`
	Name string `gorm:"type:varchar(64);not null"`
}

func (QuestionTagName) TableName() string { return "question_tags" }

// QuestionUnit is a measurement unit shown next to an answer (litre, kg, ...).
type QuestionUnit struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"type:varchar(64);not null"`
}

func (QuestionUnit) TableName() string { return "question_units" }

// Question is one catalog entry in the master language.
type Question struct {
	ID               uint        `json:"id"                gorm:"primaryKey"`
	CategoryID       uint        `json:"category_id"       gorm:"not null;index:idx_questions_category,priority:1"`
	SubcategoryID    *uint       `json:"subcategory_id"    gorm:"index"`
	ValidationRuleID *uint       `json:"validation_rule_id"`
	FormTypeID       uint        `json:"form_type_id"      gorm:"not null"`
	FormTypeValue    string      `json:"form_type_value"   gorm:"type:text"`
	Text             string      `json:"question"          gorm:"column:question;type:text;not null"`
	Hint             string      `json:"hint"              gorm:"type:text"`
	Tag              QuestionTag `json:"question_tag"      gorm:"column:question_tag;not null;default:0;index"`
	UnitID           *uint       `json:"question_unit"     gorm:"column:question_unit"`
	Sequence         int         `json:"sequence"          gorm:"column:sequence_number;not null;default:0;index:idx_questions_category,priority:2"`

	Category       Category        `json:"-" gorm:"foreignKey:CategoryID"`
	Subcategory    *Subcategory    `json:"-" gorm:"foreignKey:SubcategoryID"`
	ValidationRule *ValidationRule `json:"-" gorm:"foreignKey:ValidationRuleID"`
	FormType       FormType        `json:"-" gorm:"foreignKey:FormTypeID"`
	Unit           *QuestionUnit   `json:"-" gorm:"foreignKey:UnitID"`
}

func (Question) TableName() string { return "questions" }

// QuestionLanguage is the localized variant of a question.
type QuestionLanguage struct {
	QuestionID    uint   `gorm:"primaryKey"`
	LanguageID    uint   `gorm:"primaryKey"`
	Text          string `gorm:"column:question;type:text;not null"`
	Hint          string `gorm:"type:text"`
	FormTypeValue string `gorm:"type:text"`
}

func (QuestionLanguage) TableName() string { return "question_languages" }

// AnimalQuestion marks a question as applicable to an animal type.
type AnimalQuestion struct {
	AnimalID   uint `gorm:"primaryKey"`
	QuestionID uint `gorm:"primaryKey;index"`
}

func (AnimalQuestion) TableName() string { return "animal_questions" }

// CatalogModels lists every catalog table, in dependency order.
func CatalogModels() []any {
	return []any{
		&Animal{}, &Language{}, &Category{}, &CategoryLanguage{},
		&Subcategory{}, &SubcategoryLanguage{}, &ValidationRule{}, &FormType{},
		&QuestionTagName{}, &QuestionUnit{}, &Question{}, &QuestionLanguage{},
		&AnimalQuestion{},
	}
}
