package domain

import (
	"fmt"
	"strings"
	"time"
)

type StaffMember struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Status string `json:"status"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
}

var StaffStatuses = []string{"Active", "On Leave", "Inactive"}

var PartnerStatuses = []string{"Active", "Pending", "Suspended"}

// ParseDirectoryStatus matches s against allowed ignoring case and returns the canonical form.
func ParseDirectoryStatus(s string, allowed []string) (string, error) {
	s = strings.TrimSpace(s)
	for _, a := range allowed {
		if strings.EqualFold(a, s) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: status %q", ErrInvalid, s)
}

type PartnerAudit struct {
	Date  time.Time `json:"date"`
	Score int       `json:"score"`
	Note  string    `json:"note"`
}

type RDCPartner struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Hub           string         `json:"hub"`
	Status        string         `json:"status"`
	Rating        float64        `json:"rating"`
	ContractStart time.Time      `json:"contract_start"`
	ContractEnd   time.Time      `json:"contract_end"`
	RecentAudits  []PartnerAudit `json:"recent_audits"`
}

// ContractActive reports whether now falls inside the contract window. Both dates
// are whole days; the end day counts in full.
func (p RDCPartner) ContractActive(now time.Time) bool {
	if p.ContractStart.IsZero() || p.ContractEnd.IsZero() {
		return false
	}
	return !now.Before(p.ContractStart) && now.Before(p.ContractEnd.AddDate(0, 0, 1))
}

type DriverUser struct {
	ID            string `json:"id"`
	FullName      string `json:"full_name"`
	Username      string `json:"username"`
	RDCHub        string `json:"rdc_hub"`
	LicenseNumber string `json:"license_number"`
}

// DefaultDriverPassword is assigned to drivers created without one.
const DefaultDriverPassword = "Isdn@2024"

type RDCHub struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
