// README: Worker dispatch profile and status enums.
package worker

import (
	"time"

	"laborhub/internal/types"
)

type OnlineStatus string

const (
	StatusOffline OnlineStatus = "offline"
	StatusOnline  OnlineStatus = "online"
	StatusBusy    OnlineStatus = "busy"
)

func ValidOnlineStatus(s OnlineStatus) bool {
	switch s {
	case StatusOffline, StatusOnline, StatusBusy:
		return true
	}
	return false
}

type AccountStatus string

const (
	AccountPending   AccountStatus = "pending"
	AccountActive    AccountStatus = "active"
	AccountInactive  AccountStatus = "inactive"
	AccountSuspended AccountStatus = "suspended"
)

// Profile is a worker's dispatch-relevant profile. Rating, rates, and order
// counts are maintained by the order-completion workflow; this module only
// reads them.
type Profile struct {
	UserID            types.ID
	Name              string
	Phone             string
	Avatar            *string
	OnlineStatus      OnlineStatus
	AccountStatus     AccountStatus
	ServiceCategories []string
	Skills            []string
	AverageRating     float64
	AcceptanceRate    float64
	CompletionRate    float64
	CompletedOrders   int
	LastLocation      *types.Point
	LocationUpdatedAt *time.Time
}

// Available reports whether the worker can receive dispatches at all.
func (p *Profile) Available() bool {
	return p.OnlineStatus == StatusOnline || p.OnlineStatus == StatusBusy
}

func (p *Profile) OffersCategory(category string) bool {
	for _, c := range p.ServiceCategories {
		if c == category {
			return true
		}
	}
	return false
}

func (p *Profile) HasSkill(skill string) bool {
	for _, s := range p.Skills {
		if s == skill {
			return true
		}
	}
	return false
}
