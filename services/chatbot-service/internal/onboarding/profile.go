package onboarding

import (
	"fmt"
	"net/url"
	"os"
	"regexp"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Address is a postal address sent to the processor
type Address struct {
	Line1      string `yaml:"line1"`
	Line2      string `yaml:"line2,omitempty"`
	City       string `yaml:"city"`
	State      string `yaml:"state"`
	PostalCode string `yaml:"postal_code"`
	Country    string `yaml:"country,omitempty"`
}

// DateOfBirth of a person
type DateOfBirth struct {
	Day   int `yaml:"day"`
	Month int `yaml:"month"`
	Year  int `yaml:"year"`
}

// PersonProfile describes an individual attached to the connected account
type PersonProfile struct {
	FirstName string       `yaml:"first_name"`
	LastName  string       `yaml:"last_name"`
	Email     string       `yaml:"email"`
	Phone     string       `yaml:"phone"`
	Title     string       `yaml:"title,omitempty"`
	SSNLast4  string       `yaml:"ssn_last_4,omitempty"`
	Executive bool         `yaml:"executive,omitempty"`
	Address   *Address     `yaml:"address"`
	DOB       *DateOfBirth `yaml:"dob"`
}

// OwnerProfile is a beneficial owner and their share of the company
type OwnerProfile struct {
	PersonProfile    `yaml:",inline"`
	PercentOwnership float64 `yaml:"percent_ownership"`
}

// BusinessProfile is the public facing description of the business
type BusinessProfile struct {
	MCC string `yaml:"mcc"`
	URL string `yaml:"url"`
}

// Company is the legal identity of the business
type Company struct {
	Name    string   `yaml:"name"`
	TaxID   string   `yaml:"tax_id"`
	Phone   string   `yaml:"phone"`
	Address *Address `yaml:"address"`
}

// Callbacks are the URLs the processor's hosted onboarding redirects to
type Callbacks struct {
	RefreshURL string `yaml:"refresh_url"`
	ReturnURL  string `yaml:"return_url"`
}

// Profile is the business data submitted for every connected account
type Profile struct {
	Country              string          `yaml:"country"`
	AccountType          string          `yaml:"account_type"`
	BusinessType         string          `yaml:"business_type"`
	Capabilities         []string        `yaml:"capabilities"`
	ExternalAccountToken string          `yaml:"external_account_token"`
	TOSAcceptanceIP      string          `yaml:"tos_acceptance_ip"` // empty means the caller's IP
	BusinessProfile      BusinessProfile `yaml:"business_profile"`
	Company              Company         `yaml:"company"`
	Representative       PersonProfile   `yaml:"representative"`
	Owners               []OwnerProfile  `yaml:"owners"`
	Callbacks            Callbacks       `yaml:"callbacks"`
	CollectionFields     string          `yaml:"collection_fields"`
}

var (
	countryPattern = regexp.MustCompile(`^[A-Z]{2}$`)
	mccPattern     = regexp.MustCompile(`^[0-9]{4}$`)
	last4Pattern   = regexp.MustCompile(`^[0-9]{4}$`)

	accountTypes     = map[string]bool{"custom": true, "express": true, "standard": true}
	businessTypes    = map[string]bool{"company": true, "non_profit": true, "government_entity": true}
	capabilityNames  = map[string]bool{"card_payments": true, "transfers": true}
	collectionFields = map[string]bool{"currently_due": true, "eventually_due": true}

	hundred = decimal.NewFromInt(100)
)

// DefaultProfile returns the demo business used when no profile file is configured
func DefaultProfile() *Profile {
	personAddress := &Address{City: "Victoria", Line1: "123 State St", PostalCode: "V8P 1A1", State: "BC"}
	dob := &DateOfBirth{Day: 10, Month: 11, Year: 1980}

	return &Profile{
		Country:              "US",
		AccountType:          "custom",
		BusinessType:         "company",
		Capabilities:         []string{"card_payments", "transfers"},
		ExternalAccountToken: "btok_us",
		BusinessProfile: BusinessProfile{
			MCC: "5045",
			URL: "https://bestcookieco.com",
		},
		Company: Company{
			Name:  "The Best Cookie Co",
			TaxID: "000000000",
			Phone: "8888675309",
			Address: &Address{
				City:       "Fairfax",
				Line1:      "123 State St",
				PostalCode: "22031",
				State:      "VA",
			},
		},
		Representative: PersonProfile{
			FirstName: "Jenny",
			LastName:  "Rosen",
			Email:     "jenny@bestcookieco.com",
			Phone:     "8888675309",
			Title:     "CEO",
			SSNLast4:  "0000",
			Executive: true,
			Address:   personAddress,
			DOB:       dob,
		},
		Owners: []OwnerProfile{{
			PersonProfile: PersonProfile{
				FirstName: "Kathleen",
				LastName:  "Banks",
				Email:     "kathleen@bestcookieco.com",
				Phone:     "8888675309",
				Address:   personAddress,
				DOB:       dob,
			},
			PercentOwnership: 80,
		}},
		Callbacks: Callbacks{
			RefreshURL: "http://localhost:3000/callback/stripe/refresh",
			ReturnURL:  "http://localhost:3000/callback/stripe/success",
		},
		CollectionFields: "currently_due",
	}
}

// LoadProfile reads a YAML profile from path and validates it.
// An empty path yields DefaultProfile.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read onboarding profile %s: %w", path, err)
	}

	return ParseProfile(data)
}

// ParseProfile decodes and validates a YAML profile
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse onboarding profile: %w", err)
	}

	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) applyDefaults() {
	if p.AccountType == "" {
		p.AccountType = "custom"
	}
	if p.BusinessType == "" {
		p.BusinessType = "company"
	}
	if len(p.Capabilities) == 0 {
		p.Capabilities = []string{"card_payments", "transfers"}
	}
	if p.CollectionFields == "" {
		p.CollectionFields = "currently_due"
	}
}

// Validate reports every missing or malformed field at once
func (p *Profile) Validate() error {
	v := &ValidationError{}

	if !countryPattern.MatchString(p.Country) {
		v.add("country must be a two letter ISO code, got %q", p.Country)
	}
	if !accountTypes[p.AccountType] {
		v.add("account_type %q is not supported", p.AccountType)
	}
	if !businessTypes[p.BusinessType] {
		v.add("business_type %q is not supported", p.BusinessType)
	}
	if len(p.Capabilities) == 0 {
		v.required("capabilities")
	}
	for _, c := range p.Capabilities {
		if !capabilityNames[c] {
			v.add("capability %q is not supported", c)
		}
	}

	if !mccPattern.MatchString(p.BusinessProfile.MCC) {
		v.add("business_profile.mcc must be four digits")
	}
	validateURL(v, "business_profile.url", p.BusinessProfile.URL)

	if p.Company.Name == "" {
		v.required("company.name")
	}
	if p.Company.TaxID == "" {
		v.required("company.tax_id")
	}
	if p.Company.Phone == "" {
		v.required("company.phone")
	}
	validateAddress(v, "company.address", p.Company.Address)

	validatePerson(v, "representative", &p.Representative)
	if p.Representative.Title == "" {
		v.required("representative.title")
	}
	if p.Representative.SSNLast4 != "" && !last4Pattern.MatchString(p.Representative.SSNLast4) {
		v.add("representative.ssn_last_4 must be four digits")
	}

	if len(p.Owners) == 0 {
		v.add("at least one owner is required")
	}
	total := decimal.Zero
	for i := range p.Owners {
		field := fmt.Sprintf("owners[%d]", i)
		validatePerson(v, field, &p.Owners[i].PersonProfile)

		pct := decimal.NewFromFloat(p.Owners[i].PercentOwnership)
		if !pct.IsPositive() || pct.GreaterThan(hundred) {
			v.add("%s.percent_ownership must be in (0, 100]", field)
		}
		total = total.Add(pct)
	}
	if total.GreaterThan(hundred) {
		v.add("owners hold %s%% in total, more than 100%%", total.String())
	}

	validateURL(v, "callbacks.refresh_url", p.Callbacks.RefreshURL)
	validateURL(v, "callbacks.return_url", p.Callbacks.ReturnURL)
	if !collectionFields[p.CollectionFields] {
		v.add("collection_fields %q is not supported", p.CollectionFields)
	}

	return v.orNil()
}

func validatePerson(v *ValidationError, field string, person *PersonProfile) {
	if person.FirstName == "" {
		v.required(field + ".first_name")
	}
	if person.LastName == "" {
		v.required(field + ".last_name")
	}
	if person.Email == "" {
		v.required(field + ".email")
	}
	validateAddress(v, field+".address", person.Address)

	switch dob := person.DOB; {
	case dob == nil:
		v.required(field + ".dob")
	case dob.Day < 1 || dob.Day > 31 || dob.Month < 1 || dob.Month > 12 || dob.Year < 1900:
		v.add("%s.dob is not a valid date", field)
	}
}

func validateAddress(v *ValidationError, field string, a *Address) {
	if a == nil {
		v.required(field)
		return
	}
	if a.Line1 == "" {
		v.required(field + ".line1")
	}
	if a.City == "" {
		v.required(field + ".city")
	}
	if a.PostalCode == "" {
		v.required(field + ".postal_code")
	}
}

func validateURL(v *ValidationError, field, raw string) {
	if raw == "" {
		v.required(field)
		return
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		v.add("%s must be an absolute http(s) URL", field)
	}
}
