package models

import "time"

// GrowthTense places a crop on a field's timeline.
type GrowthTense string

const (
	TensePast    GrowthTense = "past"
	TensePresent GrowthTense = "present"
	TenseFuture  GrowthTense = "future"
)

// Valid reports whether t is past, present or future.
func (t GrowthTense) Valid() bool {
	switch t {
	case TensePast, TensePresent, TenseFuture:
		return true
	default:
		return false
	}
}

// Field is a numbered plot together with its soil state. Number is the
// field's identity and never changes.
type Field struct {
	Number        int
	GroundType    string
	SoilType      string
	NitrogenLevel int
	PHLevel       float64
	Plowed        bool
	Rolled        bool
	Weeded        bool
	Mulched       bool
	CreatedAt     time.Time
	Crops         []FieldCrop
}

// FieldCrop is a crop planted, growing or planned on a field.
type FieldCrop struct {
	ID          string
	Type        string
	GrowthStage int
	GrowthTense GrowthTense
	FieldNumber int
}

// DefaultGrowthStage is assigned to crops created without a stage.
const DefaultGrowthStage = 1

// FieldPatch holds a partial update. Nil members are left unchanged.
type FieldPatch struct {
	GroundType    *string
	SoilType      *string
	NitrogenLevel *int
	PHLevel       *float64
	Plowed        *bool
	Rolled        *bool
	Weeded        *bool
	Mulched       *bool
}

// Apply copies the set members of p onto f.
func (p FieldPatch) Apply(f *Field) {
	if p.GroundType != nil {
		f.GroundType = *p.GroundType
	}
	if p.SoilType != nil {
		f.SoilType = *p.SoilType
	}
	if p.NitrogenLevel != nil {
		f.NitrogenLevel = *p.NitrogenLevel
	}
	if p.PHLevel != nil {
		f.PHLevel = *p.PHLevel
	}
	if p.Plowed != nil {
		f.Plowed = *p.Plowed
	}
	if p.Rolled != nil {
		f.Rolled = *p.Rolled
	}
	if p.Weeded != nil {
		f.Weeded = *p.Weeded
	}
	if p.Mulched != nil {
		f.Mulched = *p.Mulched
	}
}
