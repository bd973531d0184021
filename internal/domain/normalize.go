package domain

import (
	"fmt"
	"strings"
)

// Canonical value types. Composite registry records are reduced to these so
// the change extractor compares values on a well defined equality.

// Address is the canonical form of a registry address record. Two addresses
// are equal iff street, house number, floor, door and postal code all match.
type Address struct {
	Street      string
	HouseNumber string
	Floor       string
	Door        string
	PostalCode  int
	City        string
}

// Equal compares the identity fields of two addresses.
func (a Address) Equal(other Address) bool {
	return a.Street == other.Street &&
		a.HouseNumber == other.HouseNumber &&
		a.Floor == other.Floor &&
		a.Door == other.Door &&
		a.PostalCode == other.PostalCode
}

func (a Address) String() string {
	var b strings.Builder
	b.WriteString(a.Street)
	if a.HouseNumber != "" {
		b.WriteString(" " + a.HouseNumber)
	}
	if a.Floor != "" {
		b.WriteString(", " + a.Floor)
	}
	if a.Door != "" {
		b.WriteString(" " + a.Door)
	}
	if a.PostalCode != 0 {
		b.WriteString(fmt.Sprintf(", %d", a.PostalCode))
		if a.City != "" {
			b.WriteString(" " + a.City)
		}
	}
	return strings.TrimSpace(strings.TrimPrefix(b.String(), ","))
}

// Industry is the canonical form of a hovedbranche record.
type Industry struct {
	Code string
	Text string
}

func (i Industry) Equal(other Industry) bool {
	return i.Code == other.Code
}

func (i Industry) String() string {
	if i.Text == "" {
		return i.Code
	}
	return fmt.Sprintf("%s %s", i.Code, i.Text)
}

// CapitalAmount is the canonical form of a kapitalforhold record.
type CapitalAmount struct {
	Amount   float64
	Currency string
}

func (c CapitalAmount) Equal(other CapitalAmount) bool {
	return c.Amount == other.Amount && c.Currency == other.Currency
}

func (c CapitalAmount) String() string {
	currency := c.Currency
	if currency == "" {
		currency = "DKK"
	}
	return fmt.Sprintf("%.2f %s", c.Amount, currency)
}

// NameHistory extracts the company's registered names ordered by validity.
func NameHistory(c *CompanyData) History[string] {
	if c == nil {
		return nil
	}
	history := make(History[string], 0, len(c.Names))
	for _, record := range c.Names {
		name := strings.TrimSpace(record.Name)
		if name == "" {
			continue
		}
		history = append(history, PeriodValue[string]{Value: name, Period: ParsePeriod(record.Period)})
	}
	return SortHistory(history)
}

// AddressHistory extracts the registered location addresses. When the
// payload carries no location addresses the postal addresses stand in, so a
// company registered only with a postbox still gets an address history.
func AddressHistory(c *CompanyData) History[Address] {
	if c == nil {
		return nil
	}
	records := c.Addresses
	if len(records) == 0 {
		records = c.PostalAddresses
	}
	history := make(History[Address], 0, len(records))
	for _, record := range records {
		address := canonicalAddress(record)
		if address == (Address{}) {
			continue
		}
		history = append(history, PeriodValue[Address]{Value: address, Period: ParsePeriod(record.Period)})
	}
	return SortHistory(history)
}

func canonicalAddress(record AddressRecord) Address {
	address := Address{
		Street: strings.TrimSpace(record.Street),
		Floor:  strings.TrimSpace(record.Floor),
		Door:   strings.TrimSpace(record.Door),
		City:   strings.TrimSpace(record.PostalTown),
	}
	if address.City == "" {
		address.City = strings.TrimSpace(record.CityName)
	}
	if record.PostalCode != nil {
		address.PostalCode = *record.PostalCode
	}
	if record.HouseFrom != nil {
		address.HouseNumber = fmt.Sprintf("%d", *record.HouseFrom)
		if letter := strings.TrimSpace(record.Letter); letter != "" {
			address.HouseNumber += letter
		}
		if record.HouseTo != nil && *record.HouseTo != *record.HouseFrom {
			address.HouseNumber += fmt.Sprintf("-%d", *record.HouseTo)
		}
	}
	if address.Street == "" && address.PostalCode == 0 {
		// malformed record, keep whatever free text the registry published
		address.Street = strings.TrimSpace(record.FreeText)
	}
	return address
}

// StatusHistory extracts the company status records.
func StatusHistory(c *CompanyData) History[string] {
	if c == nil {
		return nil
	}
	history := make(History[string], 0, len(c.Status))
	for _, record := range c.Status {
		status := strings.TrimSpace(record.Status)
		if status == "" {
			continue
		}
		history = append(history, PeriodValue[string]{Value: status, Period: ParsePeriod(record.Period)})
	}
	return SortHistory(history)
}

// LegalFormHistory extracts the company form records.
func LegalFormHistory(c *CompanyData) History[string] {
	if c == nil {
		return nil
	}
	history := make(History[string], 0, len(c.LegalForm))
	for _, record := range c.LegalForm {
		form := strings.TrimSpace(record.LongName)
		if form == "" {
			form = strings.TrimSpace(record.ShortName)
		}
		if form == "" && record.Code != nil {
			form = fmt.Sprintf("form %d", *record.Code)
		}
		if form == "" {
			continue
		}
		history = append(history, PeriodValue[string]{Value: form, Period: ParsePeriod(record.Period)})
	}
	return SortHistory(history)
}

// IndustryHistory extracts the main industry code records.
func IndustryHistory(c *CompanyData) History[Industry] {
	if c == nil {
		return nil
	}
	history := make(History[Industry], 0, len(c.MainIndustry))
	for _, record := range c.MainIndustry {
		industry := Industry{Code: strings.TrimSpace(record.Code), Text: strings.TrimSpace(record.Text)}
		if industry.Code == "" && industry.Text == "" {
			continue
		}
		history = append(history, PeriodValue[Industry]{Value: industry, Period: ParsePeriod(record.Period)})
	}
	return SortHistory(history)
}

// CapitalHistory extracts the registered capital records.
func CapitalHistory(c *CompanyData) History[CapitalAmount] {
	if c == nil {
		return nil
	}
	history := make(History[CapitalAmount], 0, len(c.Capital))
	for _, record := range c.Capital {
		if record.Amount == nil {
			continue
		}
		value := CapitalAmount{Amount: *record.Amount, Currency: strings.TrimSpace(record.Currency)}
		history = append(history, PeriodValue[CapitalAmount]{Value: value, Period: ParsePeriod(record.Period)})
	}
	return SortHistory(history)
}

// PurposeHistory extracts the company purpose from the attributter array.
func PurposeHistory(c *CompanyData) History[string] {
	if c == nil {
		return nil
	}
	var history History[string]
	for _, attribute := range c.Attributes {
		attrType := strings.ToUpper(strings.TrimSpace(attribute.Type))
		if attrType != "FORMÅL" && attrType != "FORMAAL" {
			continue
		}
		for _, value := range attribute.Values {
			purpose := strings.TrimSpace(value.Value)
			if purpose == "" {
				continue
			}
			history = append(history, PeriodValue[string]{Value: purpose, Period: ParsePeriod(value.Period)})
		}
	}
	return SortHistory(history)
}

// ContactChannel names one of the registry's contact record arrays.
type ContactChannel struct {
	Name    string
	History History[string]
}

// ContactHistories extracts each contact channel as its own history. The
// channels keep a fixed order so the assembled timeline is deterministic.
func ContactHistories(c *CompanyData) []ContactChannel {
	if c == nil {
		return nil
	}
	channels := []struct {
		name    string
		records []ContactRecord
	}{
		{"email", c.Email},
		{"telefon", c.Phone},
		{"hjemmeside", c.Website},
	}
	result := make([]ContactChannel, 0, len(channels))
	for _, channel := range channels {
		history := make(History[string], 0, len(channel.records))
		for _, record := range channel.records {
			value := strings.TrimSpace(record.Value)
			if value == "" || record.Hidden {
				continue
			}
			history = append(history, PeriodValue[string]{Value: value, Period: ParsePeriod(record.Period)})
		}
		if len(history) == 0 {
			continue
		}
		result = append(result, ContactChannel{Name: channel.name, History: SortHistory(history)})
	}
	return result
}

// RoleHolder is one person's tenure in one company organ: a director seat,
// a board seat or an entry in the ownership register. Values holds the
// period stamped function title, or the ownership share for owners.
type RoleHolder struct {
	PersonName string
	Category   Category
	OrganName  string
	Values     History[string]
}

const (
	organTypeManagement = "LEDELSESORGAN"
	organTypeOwners     = "EJERREGISTER"
	organTypeRealOwners = "REELLE EJERE"

	organNameBoard = "BESTYRELSE"

	attrFunction  = "FUNKTION"
	attrOwnership = "EJERANDEL_PROCENT"
)

// RoleHolders flattens deltagerRelation into one entry per participant per
// organ. Relations in organs that are not tracked (auditors, founders) are
// skipped. Holders keep payload order; the assembler sorts their events.
func RoleHolders(c *CompanyData) []RoleHolder {
	if c == nil {
		return nil
	}
	var holders []RoleHolder
	for _, relation := range c.Relations {
		person := participantName(relation.Participant)
		if person == "" {
			continue
		}
		for _, org := range relation.Organizations {
			category, ok := organCategory(org)
			if !ok {
				continue
			}
			attrType := attrFunction
			if category == CategoryOwnership {
				attrType = attrOwnership
			}
			values := organValues(org, attrType)
			if len(values) == 0 {
				continue
			}
			holders = append(holders, RoleHolder{
				PersonName: person,
				Category:   category,
				OrganName:  organName(org),
				Values:     values,
			})
		}
	}
	return holders
}

func participantName(participant Participant) string {
	latest := ""
	for _, record := range SortHistory(nameRecordHistory(participant.Names)) {
		if record.Value != "" {
			latest = record.Value
		}
	}
	return latest
}

func nameRecordHistory(records []NameRecord) History[string] {
	history := make(History[string], 0, len(records))
	for _, record := range records {
		name := strings.TrimSpace(record.Name)
		if name == "" {
			continue
		}
		history = append(history, PeriodValue[string]{Value: name, Period: ParsePeriod(record.Period)})
	}
	return history
}

func organName(org RelationOrganization) string {
	name := ""
	for _, record := range SortHistory(nameRecordHistory(org.Names)) {
		if record.Value != "" {
			name = record.Value
		}
	}
	return strings.ToUpper(name)
}

func organCategory(org RelationOrganization) (Category, bool) {
	switch strings.ToUpper(strings.TrimSpace(org.MainType)) {
	case organTypeOwners, organTypeRealOwners:
		return CategoryOwnership, true
	case organTypeManagement:
		if organName(org) == organNameBoard {
			return CategoryBoard, true
		}
		return CategoryManagement, true
	default:
		return "", false
	}
}

// organValues collects the period stamped values of one attribute type
// across the organ's member data, merging adjacent periods that carry the
// same value. Registries re-publish unchanged tenures on every update.
func organValues(org RelationOrganization, attrType string) History[string] {
	var history History[string]
	for _, member := range org.MemberData {
		for _, attribute := range member.Attributes {
			if !strings.EqualFold(strings.TrimSpace(attribute.Type), attrType) {
				continue
			}
			for _, value := range attribute.Values {
				trimmed := strings.TrimSpace(value.Value)
				if trimmed == "" {
					continue
				}
				history = append(history, PeriodValue[string]{Value: trimmed, Period: ParsePeriod(value.Period)})
			}
		}
	}
	return mergeAdjacent(SortHistory(history))
}

// mergeAdjacent folds runs of equal valued entries whose periods touch into
// one entry spanning the whole run.
func mergeAdjacent(history History[string]) History[string] {
	if len(history) < 2 {
		return history
	}
	merged := History[string]{history[0]}
	for _, entry := range history[1:] {
		last := &merged[len(merged)-1]
		if entry.Value == last.Value && periodsTouch(last.Period, entry.Period) {
			last.Period.ValidTo = entry.Period.ValidTo
			continue
		}
		merged = append(merged, entry)
	}
	return merged
}

func periodsTouch(earlier, later Period) bool {
	if earlier.ValidTo == nil {
		return true
	}
	if later.ValidFrom == nil {
		return false
	}
	return !later.ValidFrom.After(earlier.ValidTo.AddDate(0, 0, 1))
}

// FinancialFigures is the canonical per-report value used for diffing the
// financial category.
type FinancialFigures struct {
	Period      string
	Revenue     *float64
	GrossProfit *float64
	NetResult   *float64
	Equity      *float64
}

func (f FinancialFigures) Equal(other FinancialFigures) bool {
	return floatPtrEqual(f.Revenue, other.Revenue) &&
		floatPtrEqual(f.GrossProfit, other.GrossProfit) &&
		floatPtrEqual(f.NetResult, other.NetResult) &&
		floatPtrEqual(f.Equity, other.Equity)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// FinancialFigureHistory converts the companion financial feed into a
// history keyed by the report period's end date.
func FinancialFigureHistory(reports FinancialHistory) History[FinancialFigures] {
	history := make(History[FinancialFigures], 0, len(reports))
	for _, report := range reports {
		figures := FinancialFigures{
			Period:      strings.TrimSpace(report.Period),
			Revenue:     report.Revenue,
			GrossProfit: report.GrossProfit,
			NetResult:   report.NetResult,
			Equity:      report.Equity,
		}
		period := Period{
			ValidFrom: ParseRegistryDate(report.EndDate),
			ValidTo:   nil,
		}
		if period.ValidFrom == nil {
			period.ValidFrom = ParseRegistryDate(report.StartDate)
		}
		history = append(history, PeriodValue[FinancialFigures]{Value: figures, Period: period})
	}
	return SortHistory(history)
}
