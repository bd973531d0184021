package domain

// Raw registry payload types. These mirror the external CVR JSON schema, so
// the field tags keep the registry's Danish names. Every array is optional;
// an absent section simply yields an empty history downstream.

// RawPeriod is the registry's periode object. Dates are strings or null.
type RawPeriod struct {
	GyldigFra string `json:"gyldigFra"`
	GyldigTil string `json:"gyldigTil"`
}

// NameRecord is one entry of the navne / organisationsNavn arrays.
type NameRecord struct {
	Name   string    `json:"navn"`
	Period RawPeriod `json:"periode"`
}

// AddressRecord is one entry of beliggenhedsadresse or postadresse.
type AddressRecord struct {
	Street      string    `json:"vejnavn"`
	HouseFrom   *int      `json:"husnummerFra"`
	HouseTo     *int      `json:"husnummerTil"`
	Letter      string    `json:"bogstavFra"`
	Floor       string    `json:"etage"`
	Door        string    `json:"sidedoer"`
	PostalCode  *int      `json:"postnummer"`
	PostalTown  string    `json:"postdistrikt"`
	CityName    string    `json:"bynavn"`
	CountryCode string    `json:"landekode"`
	FreeText    string    `json:"fritekst"`
	Period      RawPeriod `json:"periode"`
}

// StatusRecord is one entry of virksomhedsstatus.
type StatusRecord struct {
	Status string    `json:"status"`
	Period RawPeriod `json:"periode"`
}

// LegalFormRecord is one entry of virksomhedsform.
type LegalFormRecord struct {
	Code      *int      `json:"virksomhedsformkode"`
	LongName  string    `json:"langBeskrivelse"`
	ShortName string    `json:"kortBeskrivelse"`
	Period    RawPeriod `json:"periode"`
}

// IndustryRecord is one entry of hovedbranche.
type IndustryRecord struct {
	Code   string    `json:"branchekode"`
	Text   string    `json:"branchetekst"`
	Period RawPeriod `json:"periode"`
}

// CapitalRecord is one entry of kapitalforhold.
type CapitalRecord struct {
	Amount   *float64  `json:"beloeb"`
	Currency string    `json:"valuta"`
	Period   RawPeriod `json:"periode"`
}

// ContactRecord is one entry of elektroniskPost, telefonNummer or hjemmeside.
type ContactRecord struct {
	Value  string    `json:"kontaktoplysning"`
	Hidden bool      `json:"hemmelig"`
	Period RawPeriod `json:"periode"`
}

// AttributeValue is one period stamped value inside an attribut.
type AttributeValue struct {
	Value  string    `json:"vaerdi"`
	Period RawPeriod `json:"periode"`
}

// Attribute is one entry of an attributter array, e.g. FORMÅL or FUNKTION.
type Attribute struct {
	Type   string           `json:"type"`
	Values []AttributeValue `json:"vaerdier"`
}

// Participant is the deltager object of a relation: the person or unit that
// holds a role in the company.
type Participant struct {
	UnitNumber int64        `json:"enhedsNummer"`
	UnitType   string       `json:"enhedstype"`
	Names      []NameRecord `json:"navne"`
}

// MemberData carries the role attributes of a participant within one organ.
type MemberData struct {
	Attributes []Attribute `json:"attributter"`
}

// RelationOrganization is one entry of organisationer inside a relation.
// Hovedtype distinguishes management organs from the ownership register.
type RelationOrganization struct {
	MainType   string       `json:"hovedtype"`
	Names      []NameRecord `json:"organisationsNavn"`
	MemberData []MemberData `json:"medlemsData"`
}

// ParticipantRelation is one entry of deltagerRelation.
type ParticipantRelation struct {
	Participant   Participant            `json:"deltager"`
	Organizations []RelationOrganization `json:"organisationer"`
}

// CompanyData is the raw registry payload for one company. Every slice may
// be nil when the registry has no records for that section.
type CompanyData struct {
	CVRNumber       int64                 `json:"cvrNummer"`
	Names           []NameRecord          `json:"navne"`
	Addresses       []AddressRecord       `json:"beliggenhedsadresse"`
	PostalAddresses []AddressRecord       `json:"postadresse"`
	Status          []StatusRecord        `json:"virksomhedsstatus"`
	LegalForm       []LegalFormRecord     `json:"virksomhedsform"`
	MainIndustry    []IndustryRecord      `json:"hovedbranche"`
	Capital         []CapitalRecord       `json:"kapitalforhold"`
	Attributes      []Attribute           `json:"attributter"`
	Email           []ContactRecord       `json:"elektroniskPost"`
	Phone           []ContactRecord       `json:"telefonNummer"`
	Website         []ContactRecord       `json:"hjemmeside"`
	Relations       []ParticipantRelation `json:"deltagerRelation"`
}

// CurrentName returns the company's most recent registered name, or an
// empty string when the payload has no usable name records.
func (c *CompanyData) CurrentName() string {
	if c == nil || len(c.Names) == 0 {
		return ""
	}
	history := NameHistory(c)
	if len(history) == 0 {
		return ""
	}
	return history[len(history)-1].Value
}

// FinancialReport is one parsed annual report from the financial companion
// feed, keyed by accounting period.
type FinancialReport struct {
	Period      string   `json:"periode"`
	StartDate   string   `json:"startDato"`
	EndDate     string   `json:"slutDato"`
	Revenue     *float64 `json:"nettoomsaetning"`
	GrossProfit *float64 `json:"bruttofortjeneste"`
	NetResult   *float64 `json:"aaretsResultat"`
	Equity      *float64 `json:"egenkapital"`
}

// FinancialHistory is the ordered list of parsed annual reports.
type FinancialHistory []FinancialReport
