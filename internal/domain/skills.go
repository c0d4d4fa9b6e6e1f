package domain

const (
	MinSkill = 0
	MaxSkill = 100
)

type Skill string

const (
	SkillSyntax         Skill = "syntax"
	SkillLogic          Skill = "logic"
	SkillDataStructures Skill = "dataStructures"
	SkillOptimization   Skill = "optimization"
)

type SkillMetrics struct {
	Syntax         int `gorm:"default:0" json:"syntax"`
	Logic          int `gorm:"default:0" json:"logic"`
	DataStructures int `gorm:"default:0" json:"dataStructures"`
	Optimization   int `gorm:"default:0" json:"optimization"`
}

// SkillPatch: частичное обновление, nil поля не трогаем
type SkillPatch struct {
	Syntax         *int
	Logic          *int
	DataStructures *int
	Optimization   *int
}

func ClampSkill(v int) int {
	if v < MinSkill {
		return MinSkill
	}
	if v > MaxSkill {
		return MaxSkill
	}
	return v
}

func (m *SkillMetrics) field(s Skill) *int {
	switch s {
	case SkillSyntax:
		return &m.Syntax
	case SkillLogic:
		return &m.Logic
	case SkillDataStructures:
		return &m.DataStructures
	case SkillOptimization:
		return &m.Optimization
	}
	return nil
}

func (m *SkillMetrics) Bump(s Skill, delta int) {
	if f := m.field(s); f != nil {
		*f = ClampSkill(*f + delta)
	}
}

func (m *SkillMetrics) Apply(patch SkillPatch) {
	set := func(dst *int, v *int) {
		if v != nil {
			*dst = ClampSkill(*v)
		}
	}
	set(&m.Syntax, patch.Syntax)
	set(&m.Logic, patch.Logic)
	set(&m.DataStructures, patch.DataStructures)
	set(&m.Optimization, patch.Optimization)
}
