package models

// City is where the buyer is looking.
type City string

const (
	CityChandigarh City = "CHANDIGARH"
	CityMohali     City = "MOHALI"
	CityZirakpur   City = "ZIRAKPUR"
	CityPanchkula  City = "PANCHKULA"
	CityOther      City = "OTHER"
)

// Cities lists every City in display order.
var Cities = []City{CityChandigarh, CityMohali, CityZirakpur, CityPanchkula, CityOther}

var cityLabels = map[City]string{
	CityChandigarh: "Chandigarh",
	CityMohali:     "Mohali",
	CityZirakpur:   "Zirakpur",
	CityPanchkula:  "Panchkula",
	CityOther:      "Other",
}

func (c City) IsValid() bool  { _, ok := cityLabels[c]; return ok }
func (c City) Label() string  { return labelOr(cityLabels, c) }
func (c City) String() string { return string(c) }

// PropertyType is the kind of property the buyer wants.
type PropertyType string

const (
	PropertyApartment PropertyType = "APARTMENT"
	PropertyVilla     PropertyType = "VILLA"
	PropertyPlot      PropertyType = "PLOT"
	PropertyOffice    PropertyType = "OFFICE"
	PropertyRetail    PropertyType = "RETAIL"
)

var PropertyTypes = []PropertyType{PropertyApartment, PropertyVilla, PropertyPlot, PropertyOffice, PropertyRetail}

var propertyTypeLabels = map[PropertyType]string{
	PropertyApartment: "Apartment",
	PropertyVilla:     "Villa",
	PropertyPlot:      "Plot",
	PropertyOffice:    "Office",
	PropertyRetail:    "Retail",
}

func (p PropertyType) IsValid() bool  { _, ok := propertyTypeLabels[p]; return ok }
func (p PropertyType) Label() string  { return labelOr(propertyTypeLabels, p) }
func (p PropertyType) String() string { return string(p) }

// BHK is the bedroom/hall/kitchen configuration.
type BHK string

const (
	BHKStudio BHK = "STUDIO"
	BHKOne    BHK = "ONE"
	BHKTwo    BHK = "TWO"
	BHKThree  BHK = "THREE"
	BHKFour   BHK = "FOUR"
)

var BHKs = []BHK{BHKStudio, BHKOne, BHKTwo, BHKThree, BHKFour}

var bhkLabels = map[BHK]string{
	BHKStudio: "Studio",
	BHKOne:    "1 BHK",
	BHKTwo:    "2 BHK",
	BHKThree:  "3 BHK",
	BHKFour:   "4 BHK",
}

func (b BHK) IsValid() bool  { _, ok := bhkLabels[b]; return ok }
func (b BHK) Label() string  { return labelOr(bhkLabels, b) }
func (b BHK) String() string { return string(b) }

// Purpose is buy or rent.
type Purpose string

const (
	PurposeBuy  Purpose = "BUY"
	PurposeRent Purpose = "RENT"
)

var Purposes = []Purpose{PurposeBuy, PurposeRent}

var purposeLabels = map[Purpose]string{
	PurposeBuy:  "Buy",
	PurposeRent: "Rent",
}

func (p Purpose) IsValid() bool  { _, ok := purposeLabels[p]; return ok }
func (p Purpose) Label() string  { return labelOr(purposeLabels, p) }
func (p Purpose) String() string { return string(p) }

// Timeline is how soon the buyer intends to close.
type Timeline string

const (
	TimelineZeroToThreeMonths Timeline = "ZERO_TO_THREE_MONTHS"
	TimelineThreeToSixMonths  Timeline = "THREE_TO_SIX_MONTHS"
	TimelineMoreThanSixMonths Timeline = "MORE_THAN_SIX_MONTHS"
	TimelineExploring         Timeline = "EXPLORING"
)

var Timelines = []Timeline{TimelineZeroToThreeMonths, TimelineThreeToSixMonths, TimelineMoreThanSixMonths, TimelineExploring}

var timelineLabels = map[Timeline]string{
	TimelineZeroToThreeMonths: "0-3 months",
	TimelineThreeToSixMonths:  "3-6 months",
	TimelineMoreThanSixMonths: ">6 months",
	TimelineExploring:         "Exploring",
}

func (t Timeline) IsValid() bool  { _, ok := timelineLabels[t]; return ok }
func (t Timeline) Label() string  { return labelOr(timelineLabels, t) }
func (t Timeline) String() string { return string(t) }

// Source is how the lead reached us.
type Source string

const (
	SourceWebsite  Source = "WEBSITE"
	SourceReferral Source = "REFERRAL"
	SourceWalkIn   Source = "WALK_IN"
	SourceCall     Source = "CALL"
	SourceOther    Source = "OTHER"
)

var Sources = []Source{SourceWebsite, SourceReferral, SourceWalkIn, SourceCall, SourceOther}

var sourceLabels = map[Source]string{
	SourceWebsite:  "Website",
	SourceReferral: "Referral",
	SourceWalkIn:   "Walk-in",
	SourceCall:     "Call",
	SourceOther:    "Other",
}

func (s Source) IsValid() bool  { _, ok := sourceLabels[s]; return ok }
func (s Source) Label() string  { return labelOr(sourceLabels, s) }
func (s Source) String() string { return string(s) }

// Status is the lead's position in the sales pipeline.
type Status string

const (
	StatusNew         Status = "NEW"
	StatusQualified   Status = "QUALIFIED"
	StatusContacted   Status = "CONTACTED"
	StatusVisited     Status = "VISITED"
	StatusNegotiation Status = "NEGOTIATION"
	StatusConverted   Status = "CONVERTED"
	StatusDropped     Status = "DROPPED"
)

var Statuses = []Status{StatusNew, StatusQualified, StatusContacted, StatusVisited, StatusNegotiation, StatusConverted, StatusDropped}

var statusLabels = map[Status]string{
	StatusNew:         "New",
	StatusQualified:   "Qualified",
	StatusContacted:   "Contacted",
	StatusVisited:     "Visited",
	StatusNegotiation: "Negotiation",
	StatusConverted:   "Converted",
	StatusDropped:     "Dropped",
}

func (s Status) IsValid() bool  { _, ok := statusLabels[s]; return ok }
func (s Status) Label() string  { return labelOr(statusLabels, s) }
func (s Status) String() string { return string(s) }

func labelOr[K ~string](labels map[K]string, k K) string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// Labels returns every enum's display labels keyed by enum name, for clients
// that render select options.
func Labels() map[string]map[string]string {
	return map[string]map[string]string{
		"city":         stringKeys(cityLabels),
		"propertyType": stringKeys(propertyTypeLabels),
		"bhk":          stringKeys(bhkLabels),
		"purpose":      stringKeys(purposeLabels),
		"timeline":     stringKeys(timelineLabels),
		"source":       stringKeys(sourceLabels),
		"status":       stringKeys(statusLabels),
	}
}

func stringKeys[K ~string](m map[K]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}
