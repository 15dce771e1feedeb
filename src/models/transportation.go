package models

import "maidops/src/types"

type TransportationDetails struct {
	ID          uint  `gorm:"primarykey" json:"id"`
	BookingID   uint  `gorm:"uniqueIndex" json:"booking_id"`
	HousemaidID *uint `json:"housemaid_id"`

	Legs []TransportationLeg `gorm:"foreignKey:TransportationDetailsID;constraint:OnDelete:CASCADE" json:"legs"`

	types.Timestamps
}

// HasLeg reports whether at least one leg of the given type was recorded.
func (t *TransportationDetails) HasLeg(legType types.LegType) bool {
	if t == nil {
		return false
	}
	for _, l := range t.Legs {
		if l.LegType == legType {
			return true
		}
	}
	return false
}

func (t *TransportationDetails) TotalCost() float64 {
	if t == nil {
		return 0
	}
	var total float64
	for _, l := range t.Legs {
		total += l.Cost
	}
	return total
}

type TransportationLeg struct {
	ID                      uint              `gorm:"primarykey" json:"id"`
	TransportationDetailsID uint              `gorm:"index" json:"-"`
	Position                int               `json:"position"`
	LegType                 types.LegType     `gorm:"size:16" json:"leg_type"`
	ModeCode                types.TransitMode `gorm:"size:32" json:"mode_code"`
	Cost                    float64           `gorm:"type:decimal(12,2)" json:"cost"`
	ReceiptURL              *string           `json:"receipt_url,omitempty"`
}
