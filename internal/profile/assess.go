package profile

import (
	"errors"
	"fmt"
)

// Assessment is a condition label and the colour used to display it.
type Assessment struct {
	Label string `json:"label" yaml:"label"`
	Color string `json:"color" yaml:"color"`
}

// ConditionBand matches scores strictly below Below.
type ConditionBand struct {
	Below float64 `json:"below" yaml:"below"`
	Assessment `yaml:",inline"`
}

// ConditionScale maps a defect score to an Assessment. Bands are checked in
// order; scores not below any band get Worst.
type ConditionScale struct {
	Bands []ConditionBand `json:"bands" yaml:"bands"`
	Worst Assessment      `json:"worst" yaml:"worst"`
}

// Labels of the default scale.
const (
	LabelExcellent      = "Excellent"
	LabelGood           = "Good"
	LabelFair           = "Fair"
	LabelNeedsAttention = "Needs attention"
	LabelUrgentRepair   = "Needs urgent repair"
)

// DefaultScale is the five-band condition table.
func DefaultScale() ConditionScale {
	return ConditionScale{
		Bands: []ConditionBand{
			{Below: 10, Assessment: Assessment{Label: LabelExcellent, Color: "#4CAF50"}},
			{Below: 20, Assessment: Assessment{Label: LabelGood, Color: "#8BC34A"}},
			{Below: 30, Assessment: Assessment{Label: LabelFair, Color: "#FFC107"}},
			{Below: 40, Assessment: Assessment{Label: LabelNeedsAttention, Color: "#FF9800"}},
		},
		Worst: Assessment{Label: LabelUrgentRepair, Color: "#F44336"},
	}
}

// Assess returns the condition for score using the default scale.
func Assess(score float64) Assessment {
	return DefaultScale().Assess(score)
}

// Assess returns the first band whose upper bound exceeds score.
func (s ConditionScale) Assess(score float64) Assessment {
	for _, b := range s.Bands {
		if score < b.Below {
			return b.Assessment
		}
	}
	return s.Worst
}

// Validate requires strictly increasing bounds and a label on every band.
func (s ConditionScale) Validate() error {
	if s.Worst.Label == "" {
		return errors.New("condition scale: worst label is required")
	}
	for i, b := range s.Bands {
		if b.Label == "" {
			return fmt.Errorf("condition scale: band %d has no label", i)
		}
		if i > 0 && b.Below <= s.Bands[i-1].Below {
			return fmt.Errorf("condition scale: band %d bound %v is not above %v", i, b.Below, s.Bands[i-1].Below)
		}
	}
	return nil
}
