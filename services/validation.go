package services

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var (
	gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z]{1}[1-9A-Z]{1}Z[0-9A-Z]{1}$`)
	pinPattern   = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	phonePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	codePattern  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-/]*$`)
)

// ClientInput is the editable part of a clients record.
type ClientInput struct {
	ClientCode    string `json:"clientCode"`
	Name          string `json:"name"`
	ClientType    string `json:"clientType"`
	ContactPerson string `json:"contactPerson"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	PinCode       string `json:"pinCode"`
	GSTIN         string `json:"gstin"`
	Notes         string `json:"notes"`
	IsActive      *bool  `json:"isActive"`
}

// Normalize trims whitespace and upper-cases identifiers in place.
func (c *ClientInput) Normalize() {
	c.ClientCode = strings.ToUpper(strings.TrimSpace(c.ClientCode))
	c.Name = strings.TrimSpace(c.Name)
	c.ClientType = strings.TrimSpace(c.ClientType)
	if c.ClientType == "" {
		c.ClientType = ClientTypeDirect
	}
	c.ContactPerson = strings.TrimSpace(c.ContactPerson)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	c.City = strings.TrimSpace(c.City)
	c.State = strings.TrimSpace(c.State)
	c.PinCode = strings.TrimSpace(c.PinCode)
	c.GSTIN = strings.ToUpper(strings.TrimSpace(c.GSTIN))
	c.Notes = strings.TrimSpace(c.Notes)
}

func (c ClientInput) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ClientCode, validation.Required.Error("client code is required"), validation.Match(codePattern)),
		validation.Field(&c.Name, validation.Required.Error("name is required"), validation.Length(1, 200)),
		validation.Field(&c.ClientType, validation.In(ClientTypeDirect, ClientTypeB2B)),
		validation.Field(&c.Email, is.EmailFormat),
		validation.Field(&c.Phone, validation.Match(phonePattern).Error("must be a 10-digit mobile number")),
		validation.Field(&c.PinCode, validation.Match(pinPattern).Error("must be a 6-digit PIN code")),
		validation.Field(&c.GSTIN, validation.Match(gstinPattern).Error("must be a valid 15-character GSTIN")),
	)
}

// DieInput is the editable part of a dies record.
type DieInput struct {
	DieCode      string  `json:"dieCode"`
	DieName      string  `json:"dieName"`
	JobType      string  `json:"jobType"`
	Type         string  `json:"type"`
	Frags        int     `json:"frags"`
	ProductSizeL float64 `json:"productSizeL"`
	ProductSizeB float64 `json:"productSizeB"`
	DieSizeL     float64 `json:"dieSizeL"`
	DieSizeB     float64 `json:"dieSizeB"`
	Price        float64 `json:"price"`
}

func (d *DieInput) Normalize() {
	d.DieCode = strings.ToUpper(strings.TrimSpace(d.DieCode))
	d.DieName = strings.TrimSpace(d.DieName)
	d.JobType = strings.TrimSpace(d.JobType)
	d.Type = strings.TrimSpace(d.Type)
	if d.Frags == 0 {
		d.Frags = 1
	}
}

func (d DieInput) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.DieCode, validation.Required.Error("dieCode required"), validation.Match(codePattern)),
		validation.Field(&d.Frags, validation.Required, validation.Min(1)),
		validation.Field(&d.ProductSizeL, validation.Min(0.0)),
		validation.Field(&d.ProductSizeB, validation.Min(0.0)),
		validation.Field(&d.DieSizeL, validation.Min(0.0)),
		validation.Field(&d.DieSizeB, validation.Min(0.0)),
		validation.Field(&d.Price, validation.Min(0.0)),
	)
}

// PaperInput is the editable part of a papers record.
type PaperInput struct {
	PaperName     string  `json:"paperName"`
	Company       string  `json:"company"`
	GSM           float64 `json:"gsm"`
	PricePerSheet float64 `json:"pricePerSheet"`
	Length        float64 `json:"length"`
	Breadth       float64 `json:"breadth"`
	FreightPerKg  float64 `json:"freightPerKg"`
}

func (p PaperInput) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.PaperName, validation.Required.Error("paper name is required")),
		validation.Field(&p.GSM, validation.Required, validation.Min(0.0)),
		validation.Field(&p.PricePerSheet, validation.Min(0.0)),
		validation.Field(&p.Length, validation.Required, validation.Min(0.0)),
		validation.Field(&p.Breadth, validation.Required, validation.Min(0.0)),
		validation.Field(&p.FreightPerKg, validation.Min(0.0)),
	)
}

func (p PaperInput) Paper() Paper {
	return Paper{
		Name:          strings.TrimSpace(p.PaperName),
		Company:       strings.TrimSpace(p.Company),
		GSM:           p.GSM,
		PricePerSheet: p.PricePerSheet,
		Length:        p.Length,
		Breadth:       p.Breadth,
		FreightPerKg:  p.FreightPerKg,
	}
}

// TierInput is the editable part of a loyalty_tiers record.
type TierInput struct {
	Name            string  `json:"name"`
	TierCode        string  `json:"tierCode"`
	MinOrders       int     `json:"minOrders"`
	DiscountPercent float64 `json:"discount"`
	Color           string  `json:"color"`
	Description     string  `json:"description"`
}

func (t TierInput) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.TierCode, validation.Required, validation.Match(codePattern)),
		validation.Field(&t.MinOrders, validation.Min(0)),
		validation.Field(&t.DiscountPercent, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&t.Color, is.HexColor),
	)
}

// OverheadInput is the editable part of an overheads record.
type OverheadInput struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}

func (o OverheadInput) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Name, validation.Required),
		validation.Field(&o.Value, validation.Min(0.0), validation.Max(1000.0)),
	)
}

// RateInput is the editable part of a standard_rates record.
type RateInput struct {
	Group       string  `json:"group"`
	Type        string  `json:"type"`
	FinalRate   float64 `json:"finalRate"`
	Description string  `json:"description"`
}

func (r RateInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Group, validation.Required),
		validation.Field(&r.Type, validation.Required),
		validation.Field(&r.FinalRate, validation.Min(0.0)),
	)
}

// ValidateEstimateState checks the rules the wizard enforces before saving.
func ValidateEstimateState(s EstimateState) error {
	op := s.OrderAndPaper
	errs := validation.Errors{
		"clientId": validation.Validate(op.ClientID, validation.Required.Error("client is required")),
		"jobType":  validation.Validate(op.JobType, validation.Required.Error("job type is required")),
		"quantity": validation.Validate(op.Quantity, validation.Min(0).Error("quantity must be ≥ 0")),
		"dieCode":  validation.Validate(op.DieCode, validation.Required.Error("dieCode required")),
		"frags":    validation.Validate(op.Frags, validation.Min(1).Error("a die yields at least one card per sheet")),
	}
	if !op.PaperProvided {
		errs["paperId"] = validation.Validate(op.PaperID, validation.Required.Error("paper is required unless provided by the client"))
	}
	if s.LPDetails.IsLPUsed {
		errs["lpDetails.noOfColors"] = validation.Validate(s.LPDetails.NoOfColors, validation.Required.Error("at least one colour"), validation.Min(1))
	}
	if s.FSDetails.IsFSUsed {
		errs["fsDetails.foilDetails"] = validation.Validate(s.FSDetails.FoilDetails, validation.Required.Error("at least one foil"))
	}
	if s.Misc.IsMiscUsed {
		errs["misc.miscCharge"] = validation.Validate(s.Misc.MiscCharge, validation.Min(0.0))
	}
	return errs.Filter()
}

// UserInput is what an admin sets on a shop user.
type UserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	ClientID string `json:"clientId"`
	IsActive *bool  `json:"isActive"`
}

func (u *UserInput) Normalize() {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Name = strings.TrimSpace(u.Name)
	u.Role = strings.ToLower(strings.TrimSpace(u.Role))
	u.ClientID = strings.TrimSpace(u.ClientID)
	if u.Role != string(RoleB2B) {
		u.ClientID = ""
	}
}

// Validate checks the fields; passwordRequired is set when creating.
func (u UserInput) Validate(passwordRequired bool) error {
	roles := make([]any, 0, len(AllRoles))
	for _, r := range AllRoles {
		roles = append(roles, string(r))
	}
	return validation.ValidateStruct(&u,
		validation.Field(&u.Email, validation.Required, is.EmailFormat),
		validation.Field(&u.Password,
			validation.When(passwordRequired, validation.Required),
			validation.Length(8, 72)),
		validation.Field(&u.Role, validation.Required, validation.In(roles...)),
		validation.Field(&u.ClientID,
			validation.When(u.Role == string(RoleB2B), validation.Required.Error("b2b users must belong to a client"))),
	)
}
