package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Row is one normalized registration row from an ingestion feed: heading
// names already mapped to canonical field keys, blank strings converted to
// nil and numeric-looking strings to numbers (protected fields excepted).
type Row map[string]any

// Canonical field keys shared by feeds, the resolver and the aggregate.
const (
	FieldNameGiven         = "name_given"
	FieldNameFamily        = "name_family"
	FieldNameMI            = "name_mi"
	FieldDateOfBirth       = "date_of_birth"
	FieldEmail             = "email"
	FieldPhone             = "phone"
	FieldAddress           = "address"
	FieldCity              = "city"
	FieldState             = "state"
	FieldPostalCode        = "postal_code"
	FieldCountry           = "country"
	FieldAGAID             = "aga_id"
	FieldRegType           = "reg_type"
	FieldRegStatus         = "reg_status"
	FieldTransRefNo        = "trans_ref_no"
	FieldRating            = "rating"
	FieldIsPrimary         = "is_primary"
	FieldPrimaryRegistrant = "primary_registrant"
	FieldSignupTournaments = "signup_tournaments"
	FieldLanguages         = "languages"
	FieldComment           = "comment"
)

const StatusCancelled = "cancelled"

// Attendee is one real person's merged registration record. Typed columns
// mirror the hot fields out of Info; Info always carries the complete merged
// map and Overrides the manually entered corrections that shadow it.
type Attendee struct {
	BadgefileID int64 `gorm:"primaryKey;column:badgefile_id"`

	NameGiven   string `gorm:"column:name_given"`
	NameFamily  string `gorm:"column:name_family"`
	NameMI      string `gorm:"column:name_mi"`
	DateOfBirth string `gorm:"column:date_of_birth"`
	Email       string `gorm:"column:email"`
	Phone       string `gorm:"column:phone"`
	Address     string `gorm:"column:address"`
	City        string `gorm:"column:city"`
	State       string `gorm:"column:state"`
	PostalCode  string `gorm:"column:postal_code"`
	Country     string `gorm:"column:country"`
	AGAID       int64  `gorm:"column:aga_id"`
	RegType     string `gorm:"column:reg_type"`
	RegStatus   string `gorm:"column:reg_status"`
	TransRefNo  string `gorm:"column:trans_ref_no"`

	Rating float64 `gorm:"column:rating"`

	// PrimaryRegistrantID is a back-reference to the party's primary; zero
	// means unresolved. An attendee that is its own primary points at itself.
	PrimaryRegistrantID int64 `gorm:"column:primary_registrant_id"`

	// Manual attendees are maintained entirely by operators; issue scans
	// skip them.
	Manual bool `gorm:"column:manual"`

	Info      datatypes.JSONMap `gorm:"column:info"`
	Overrides datatypes.JSONMap `gorm:"column:overrides"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Attendee) TableName() string { return "attendees" }

// Activity is one purchased line item owned by exactly one attendee, keyed
// by the provider-assigned registrant ID so re-imports upsert idempotently.
type Activity struct {
	ActivityRegistrantID int64   `gorm:"primaryKey;column:activity_registrant_id"`
	BadgefileID          int64   `gorm:"column:badgefile_id"`
	Title                string  `gorm:"column:title"`
	Category             string  `gorm:"column:category"`
	Fee                  float64 `gorm:"column:fee"`
	Quantity             int     `gorm:"column:quantity"`
	TransRefNo           string  `gorm:"column:trans_ref_no"`

	Info datatypes.JSONMap `gorm:"column:info"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Activity) TableName() string { return "activities" }

// ExtraAttribute holds feed keys outside the typed schema, one row per
// (attendee, key). Replaces the old grow-the-table-at-runtime behavior.
type ExtraAttribute struct {
	BadgefileID int64  `gorm:"primaryKey;column:badgefile_id"`
	Key         string `gorm:"primaryKey;column:attr_key"`
	Value       string `gorm:"column:attr_value"`
}

func (ExtraAttribute) TableName() string { return "extra_attributes" }

// Charge is one line of the separately imported fees/charges feed, joined to
// attendees by transaction reference number.
type Charge struct {
	TransRefNo string            `gorm:"primaryKey;column:trans_ref_no"`
	Category   string            `gorm:"primaryKey;column:category"`
	AmountDue  float64           `gorm:"column:amount_due"`
	Info       datatypes.JSONMap `gorm:"column:info"`
}

func (Charge) TableName() string { return "charges" }

const (
	ChargeCategoryCongress = "congress"
	ChargeCategoryHousing  = "housing"
)

// EmailRecord is one notification email logged against an attendee. Senders
// live outside the core; the core only stores and queries the history.
type EmailRecord struct {
	EmailID     int64             `gorm:"primaryKey;column:email_id"`
	BadgefileID int64             `gorm:"column:badgefile_id"`
	Template    string            `gorm:"column:template"`
	SentAt      time.Time         `gorm:"column:sent_at"`
	Info        datatypes.JSONMap `gorm:"column:info"`
}

func (EmailRecord) TableName() string { return "email_history" }
