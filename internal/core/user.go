package core

// DefaultTable is the logical table registrations are written to.
const DefaultTable = "User"

// Gender is the closed set of values accepted for UserRecord.Gender.
type Gender string

const (
	GenderMale           Gender = "Male"
	GenderFemale         Gender = "Female"
	GenderNonBinary      Gender = "Non-Binary"
	GenderPreferNotToSay Gender = "Preferred not to say"
)

// Genders lists the accepted values in display order.
var Genders = []Gender{GenderMale, GenderFemale, GenderNonBinary, GenderPreferNotToSay}

// Valid reports whether g is one of Genders. Matching is exact.
func (g Gender) Valid() bool {
	for _, v := range Genders {
		if g == v {
			return true
		}
	}
	return false
}

// UserRecord is a candidate registration as supplied by the caller.
// JSON names double as the column names of the User table.
type UserRecord struct {
	Email           string  `json:"email" validate:"required,email"`
	FirstName       string  `json:"first_name" validate:"required,alpha"`
	LastName        string  `json:"last_name" validate:"required,alpha"`
	Gender          Gender  `json:"gender" validate:"gender"`
	ProfileImageURL *string `json:"profile_image_url,omitempty" validate:"omitnil,url"`
	UserID          string  `json:"user_id" validate:"required"`
}

// Row is a single table row keyed by column name.
type Row map[string]any

// Row converts the record to its insert row. An omitted profile image
// URL is written as NULL.
func (u UserRecord) Row() Row {
	var profileImageURL any
	if u.ProfileImageURL != nil {
		profileImageURL = *u.ProfileImageURL
	}
	return Row{
		"email":             u.Email,
		"first_name":        u.FirstName,
		"last_name":         u.LastName,
		"gender":            string(u.Gender),
		"profile_image_url": profileImageURL,
		"user_id":           u.UserID,
	}
}
