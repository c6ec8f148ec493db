package domain

import "time"

// ProblemType classifies a road defect.
type ProblemType string

const (
	ProblemTypePothole         ProblemType = "pothole"
	ProblemTypeCrack           ProblemType = "crack"
	ProblemTypeLongCrack       ProblemType = "long_crack"
	ProblemTypeTransverseCrack ProblemType = "transverse_crack"
	ProblemTypeAlligatorCrack  ProblemType = "alligator_crack"
	ProblemTypeManhole         ProblemType = "manhole"
	ProblemTypeOther           ProblemType = "other"
)

// Valid reports whether t is a known problem type.
func (t ProblemType) Valid() bool {
	switch t {
	case ProblemTypePothole, ProblemTypeCrack, ProblemTypeLongCrack, ProblemTypeTransverseCrack,
		ProblemTypeAlligatorCrack, ProblemTypeManhole, ProblemTypeOther:
		return true
	}
	return false
}

// ProblemStatus tracks the repair workflow of a report.
type ProblemStatus string

const (
	ProblemStatusNew        ProblemStatus = "new"
	ProblemStatusInProgress ProblemStatus = "in_progress"
	ProblemStatusResolved   ProblemStatus = "resolved"
)

// Valid reports whether s is a known status.
func (s ProblemStatus) Valid() bool {
	switch s {
	case ProblemStatusNew, ProblemStatusInProgress, ProblemStatusResolved:
		return true
	}
	return false
}

// Problem is a road-defect report.
type Problem struct {
	ID              string
	Type            ProblemType
	Address         string
	Description     string
	Status          ProblemStatus
	ReporterID      string
	IsFromInspector bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
