package domain

import "strconv"

// QuestionTag is the semantic marker carried by a catalog question. The
// numeric values are the ones stored in questions.question_tag and must not
// be renumbered.
type QuestionTag uint16

const (
	TagNone                   QuestionTag = 0
	TagSex                    QuestionTag = 8
	TagLactating              QuestionTag = 9
	TagEventDate              QuestionTag = 10
	TagPregnant               QuestionTag = 15
	TagLactatingState         QuestionTag = 16
	TagLastDeliveryDate       QuestionTag = 53
	TagPregnancyDetected      QuestionTag = 56
	TagPregnancyDetectionDate QuestionTag = 57
	TagHeatDate               QuestionTag = 64
	TagDeliveryType           QuestionTag = 65
	TagDeliveryDate           QuestionTag = 66
)

// TagRole groups tags by what the yield projector reads from them.
type TagRole uint8

const (
	RoleNone TagRole = iota
	RoleSex
	RoleLactation
	RolePregnancy
	RoleEventDate
	RoleDelivery
	RoleHeat
)

// TagDef is one row of the declarative tag table.
type TagDef struct {
	Tag  QuestionTag
	Name string
	Role TagRole
	// Date marks tags whose answer is a calendar date.
	Date bool
	// DatePriority orders date tags when choosing a history row's date; lower wins.
	DatePriority int
}

var tagTable = []TagDef{
	{Tag: TagSex, Name: "sex", Role: RoleSex},
	{Tag: TagLactating, Name: "lactating", Role: RoleLactation},
	{Tag: TagLactatingState, Name: "lactating_state", Role: RoleLactation},
	{Tag: TagPregnant, Name: "pregnant", Role: RolePregnancy},
	{Tag: TagPregnancyDetected, Name: "pregnancy_detected", Role: RolePregnancy},
	{Tag: TagPregnancyDetectionDate, Name: "pregnancy_detection_date", Role: RoleEventDate, Date: true, DatePriority: 1},
	{Tag: TagDeliveryDate, Name: "delivery_date", Role: RoleDelivery, Date: true, DatePriority: 2},
	{Tag: TagLastDeliveryDate, Name: "last_delivery_date", Role: RoleDelivery, Date: true, DatePriority: 3},
	{Tag: TagEventDate, Name: "event_date", Role: RoleEventDate, Date: true, DatePriority: 4},
	{Tag: TagDeliveryType, Name: "delivery_type", Role: RoleDelivery},
	{Tag: TagHeatDate, Name: "heat_date", Role: RoleHeat, Date: true},
}

var tagIndex = func() map[QuestionTag]TagDef {
	m := make(map[QuestionTag]TagDef, len(tagTable))
	for _, d := range tagTable {
		m[d.Tag] = d
	}
	return m
}()

// Def returns the table entry for t. Unknown tags report ok=false.
func (t QuestionTag) Def() (TagDef, bool) {
	d, ok := tagIndex[t]
	return d, ok
}

// String returns the symbolic name, or "tag_<n>" for tags outside the table.
func (t QuestionTag) String() string {
	if d, ok := t.Def(); ok {
		return d.Name
	}
	if t == TagNone {
		return "none"
	}
	return "tag_" + strconv.Itoa(int(t))
}

// Role reports the projector role of t (RoleNone when unknown).
func (t QuestionTag) Role() TagRole {
	d, _ := t.Def()
	return d.Role
}

// Projected reports whether answers carrying t feed the yield timeline.
func (t QuestionTag) Projected() bool {
	switch t.Role() {
	case RoleSex, RoleLactation, RolePregnancy, RoleEventDate, RoleDelivery:
		return true
	}
	return false
}

// DateTags returns the date-carrying tags used for history rows, ordered by
// priority.
func DateTags() []QuestionTag {
	out := make([]QuestionTag, 0, 4)
	for p := 1; ; p++ {
		found := false
		for _, d := range tagTable {
			if d.DatePriority == p {
				out = append(out, d.Tag)
				found = true
			}
		}
		if !found {
			return out
		}
	}
}

// TagsWithRole lists every tag in the table with role r.
func TagsWithRole(r TagRole) []QuestionTag {
	var out []QuestionTag
	for _, d := range tagTable {
		if d.Role == r {
			out = append(out, d.Tag)
		}
	}
	return out
}
