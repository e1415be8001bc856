package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"isdn/internal/domain"
	"isdn/internal/repos"
	"isdn/internal/validate"
)

// DirectoryService covers the admin lookup tables: products, staff, partners, drivers and hubs.
type DirectoryService struct {
	Products *repos.ProductRepo
	Staff    *repos.StaffRepo
	Partners *repos.PartnerRepo
	Drivers  *repos.DriverRepo
	Hubs     *repos.HubRepo
	Sessions SessionStore
}

func newID(prefix string) string { return prefix + uuid.NewString()[:8] }

func invalid(format string, a ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, a...)...)
}

// CleanProduct normalizes p and rejects bad fields.
func CleanProduct(p domain.Product) (domain.Product, error) {
	var ok bool
	if p.Name, ok = validate.Name(p.Name); !ok {
		return p, invalid("product name")
	}
	if p.SKU, ok = validate.SKU(p.SKU); !ok {
		return p, invalid("sku %q", p.SKU)
	}
	if p.Category, ok = validate.Name(p.Category); !ok {
		return p, invalid("category")
	}
	if !validate.Amount(p.Price) || p.Stock < 0 {
		return p, invalid("price or stock out of range")
	}
	return p, p.Check()
}

func (s *DirectoryService) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	p, err := CleanProduct(p)
	if err != nil {
		return p, err
	}
	p.ID = newID("p-")
	return p, s.Products.Create(ctx, p)
}

func (s *DirectoryService) UpdateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	p, err := CleanProduct(p)
	if err != nil {
		return p, err
	}
	return p, s.Products.Update(ctx, p)
}

func cleanStaff(m domain.StaffMember) (domain.StaffMember, error) {
	var ok bool
	var err error
	if m.Name, ok = validate.Name(m.Name); !ok {
		return m, invalid("staff name")
	}
	if m.Role, ok = validate.Name(m.Role); !ok {
		return m, invalid("staff role")
	}
	if m.Status, err = domain.ParseDirectoryStatus(m.Status, domain.StaffStatuses); err != nil {
		return m, err
	}
	if m.Email != "" {
		if m.Email, ok = validate.Email(m.Email); !ok {
			return m, invalid("email %q", m.Email)
		}
	}
	if m.Phone != "" {
		if m.Phone, ok = validate.Phone(m.Phone); !ok {
			return m, invalid("phone %q", m.Phone)
		}
	}
	return m, nil
}

func (s *DirectoryService) CreateStaff(ctx context.Context, m domain.StaffMember) (domain.StaffMember, error) {
	m, err := cleanStaff(m)
	if err != nil {
		return m, err
	}
	m.ID = newID("s-")
	return m, s.Staff.Create(ctx, m)
}

func (s *DirectoryService) UpdateStaff(ctx context.Context, m domain.StaffMember) (domain.StaffMember, error) {
	m, err := cleanStaff(m)
	if err != nil {
		return m, err
	}
	return m, s.Staff.Update(ctx, m)
}

func cleanPartner(p domain.RDCPartner) (domain.RDCPartner, error) {
	var ok bool
	var err error
	if p.Name, ok = validate.Name(p.Name); !ok {
		return p, invalid("partner name")
	}
	if p.Hub, ok = validate.Name(p.Hub); !ok {
		return p, invalid("partner hub")
	}
	if p.Status, err = domain.ParseDirectoryStatus(p.Status, domain.PartnerStatuses); err != nil {
		return p, err
	}
	if p.Rating < 0 || p.Rating > 5 {
		return p, invalid("rating %.1f", p.Rating)
	}
	if !p.ContractStart.IsZero() && !p.ContractEnd.IsZero() && p.ContractEnd.Before(p.ContractStart) {
		return p, invalid("contract ends before it starts")
	}
	return p, nil
}

func (s *DirectoryService) CreatePartner(ctx context.Context, p domain.RDCPartner) (domain.RDCPartner, error) {
	p, err := cleanPartner(p)
	if err != nil {
		return p, err
	}
	p.ID = newID("rp-")
	p.RecentAudits = []domain.PartnerAudit{}
	return p, s.Partners.Create(ctx, p)
}

func (s *DirectoryService) UpdatePartner(ctx context.Context, p domain.RDCPartner) (domain.RDCPartner, error) {
	p, err := cleanPartner(p)
	if err != nil {
		return p, err
	}
	return p, s.Partners.Update(ctx, p)
}

func (s *DirectoryService) AddAudit(ctx context.Context, partnerID string, a domain.PartnerAudit) error {
	if !validate.Percent(float64(a.Score)) {
		return invalid("audit score %d", a.Score)
	}
	if a.Date.IsZero() {
		return invalid("audit date")
	}
	return s.Partners.AddAudit(ctx, partnerID, a)
}

func cleanDriver(d domain.DriverUser) (domain.DriverUser, error) {
	var ok bool
	if d.FullName, ok = validate.Name(d.FullName); !ok {
		return d, invalid("driver name")
	}
	if d.Username, ok = validate.Username(d.Username); !ok {
		return d, invalid("username %q", d.Username)
	}
	if d.RDCHub, ok = validate.Name(d.RDCHub); !ok {
		return d, invalid("rdc hub")
	}
	if d.LicenseNumber, ok = validate.License(d.LicenseNumber); !ok {
		return d, invalid("license number %q", d.LicenseNumber)
	}
	return d, nil
}

// CreateDriver adds a driver login. An empty password means DefaultDriverPassword.
func (s *DirectoryService) CreateDriver(ctx context.Context, d domain.DriverUser, password string) (domain.DriverUser, error) {
	d, err := cleanDriver(d)
	if err != nil {
		return d, err
	}
	if password == "" {
		password = domain.DefaultDriverPassword
	} else if !validate.Password(password) {
		return d, invalid("password does not meet the policy")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return d, err
	}
	d.ID = newID("u-")
	return d, s.Drivers.Create(ctx, d, hash)
}

func (s *DirectoryService) UpdateDriver(ctx context.Context, d domain.DriverUser) (domain.DriverUser, error) {
	d, err := cleanDriver(d)
	if err != nil {
		return d, err
	}
	return d, s.Drivers.Update(ctx, d)
}

// DeleteDriver removes the driver and ends their sessions.
func (s *DirectoryService) DeleteDriver(ctx context.Context, id string) error {
	if err := s.Drivers.Delete(ctx, id); err != nil {
		return err
	}
	if s.Sessions != nil {
		return s.Sessions.DeleteUser(ctx, id)
	}
	return nil
}

func (s *DirectoryService) CreateHub(ctx context.Context, name string) (domain.RDCHub, error) {
	name, ok := validate.Name(name)
	if !ok {
		return domain.RDCHub{}, invalid("hub name")
	}
	h := domain.RDCHub{ID: "hub-" + strings.ToLower(strings.ReplaceAll(name, " ", "-")), Name: name}
	return h, s.Hubs.Create(ctx, h)
}
