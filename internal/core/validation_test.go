package core

import (
	"errors"
	"testing"
)

func strPtr(s string) *string { return &s }

func validRecord() UserRecord {
	return UserRecord{
		Email:     "a@b.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Gender:    GenderFemale,
		UserID:    "u123",
	}
}

func TestValidate_ValidRecord(t *testing.T) {
	if got := Validate(validRecord()); len(got) != 0 {
		t.Fatalf("Validate() = %v, want no errors", got)
	}

	rec := validRecord()
	rec.ProfileImageURL = strPtr("https://cdn.example.com/u123.png")
	if got := Validate(rec); len(got) != 0 {
		t.Fatalf("Validate() with image URL = %v, want no errors", got)
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*UserRecord)
		wantField string
		wantMsg   string
	}{
		{
			name:      "empty email",
			mutate:    func(u *UserRecord) { u.Email = "" },
			wantField: "email",
			wantMsg:   "Email is required",
		},
		{
			name:      "email without domain",
			mutate:    func(u *UserRecord) { u.Email = "jane@" },
			wantField: "email",
			wantMsg:   "Invalid email",
		},
		{
			name:      "email without at sign",
			mutate:    func(u *UserRecord) { u.Email = "not-an-email" },
			wantField: "email",
			wantMsg:   "Invalid email",
		},
		{
			name:      "empty first name",
			mutate:    func(u *UserRecord) { u.FirstName = "" },
			wantField: "first_name",
			wantMsg:   "First name is required",
		},
		{
			name:      "first name with digit",
			mutate:    func(u *UserRecord) { u.FirstName = "J4ne" },
			wantField: "first_name",
			wantMsg:   "First name must only contain letters",
		},
		{
			name:      "first name with space",
			mutate:    func(u *UserRecord) { u.FirstName = "Mary Ann" },
			wantField: "first_name",
			wantMsg:   "First name must only contain letters",
		},
		{
			name:      "last name with symbol",
			mutate:    func(u *UserRecord) { u.LastName = "O'Neil" },
			wantField: "last_name",
			wantMsg:   "Last name must only contain letters",
		},
		{
			name:      "last name with non-ascii letter",
			mutate:    func(u *UserRecord) { u.LastName = "Müller" },
			wantField: "last_name",
			wantMsg:   "Last name must only contain letters",
		},
		{
			name:      "empty last name",
			mutate:    func(u *UserRecord) { u.LastName = "" },
			wantField: "last_name",
			wantMsg:   "Last name is required",
		},
		{
			name:      "unknown gender",
			mutate:    func(u *UserRecord) { u.Gender = "Other" },
			wantField: "gender",
			wantMsg:   "Gender must be one of: Male, Female, Non-Binary, Preferred not to say",
		},
		{
			name:      "gender with wrong case",
			mutate:    func(u *UserRecord) { u.Gender = "female" },
			wantField: "gender",
			wantMsg:   "Gender must be one of: Male, Female, Non-Binary, Preferred not to say",
		},
		{
			name:      "empty gender",
			mutate:    func(u *UserRecord) { u.Gender = "" },
			wantField: "gender",
			wantMsg:   "Gender must be one of: Male, Female, Non-Binary, Preferred not to say",
		},
		{
			name:      "profile image url without scheme",
			mutate:    func(u *UserRecord) { u.ProfileImageURL = strPtr("example.com/me.png") },
			wantField: "profile_image_url",
			wantMsg:   "Invalid URL",
		},
		{
			name:      "profile image url present but empty",
			mutate:    func(u *UserRecord) { u.ProfileImageURL = strPtr("") },
			wantField: "profile_image_url",
			wantMsg:   "Invalid URL",
		},
		{
			name:      "empty user id",
			mutate:    func(u *UserRecord) { u.UserID = "" },
			wantField: "user_id",
			wantMsg:   "User ID is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)

			got := Validate(rec)
			if len(got) != 1 {
				t.Fatalf("Validate() returned %d errors, want 1: %v", len(got), got)
			}
			if got[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", got[0].Field, tt.wantField)
			}
			if got[0].Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", got[0].Message, tt.wantMsg)
			}
		})
	}
}

func TestValidate_AllGendersAccepted(t *testing.T) {
	for _, g := range Genders {
		rec := validRecord()
		rec.Gender = g
		if got := Validate(rec); len(got) != 0 {
			t.Errorf("Validate() with gender %q = %v, want no errors", g, got)
		}
	}
}

func TestValidate_ReportsEveryField(t *testing.T) {
	got := Validate(UserRecord{})

	want := []string{"email", "first_name", "last_name", "gender", "user_id"}
	if len(got) != len(want) {
		t.Fatalf("Validate() returned %d errors, want %d: %v", len(got), len(want), got)
	}
	for i, field := range want {
		if got[i].Field != field {
			t.Errorf("errors[%d].Field = %q, want %q", i, got[i].Field, field)
		}
	}
}

func TestUserRecord_Validate(t *testing.T) {
	if err := validRecord().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	rec := validRecord()
	rec.FirstName = "123"
	err := rec.Validate()

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() error = %T, want *ValidationError", err)
	}
	if got := verr.Message("first_name"); got != "First name must only contain letters" {
		t.Errorf("Message(first_name) = %q", got)
	}
	if got := verr.Message("email"); got != "" {
		t.Errorf("Message(email) = %q, want empty", got)
	}
}

func TestUserRecord_Row(t *testing.T) {
	row := validRecord().Row()

	columns := []string{"email", "first_name", "last_name", "gender", "profile_image_url", "user_id"}
	if len(row) != len(columns) {
		t.Fatalf("Row() has %d columns, want %d", len(row), len(columns))
	}
	for _, col := range columns {
		if _, ok := row[col]; !ok {
			t.Errorf("Row() missing column %q", col)
		}
	}
	if row["profile_image_url"] != nil {
		t.Errorf("profile_image_url = %v, want nil", row["profile_image_url"])
	}
	if row["gender"] != "Female" {
		t.Errorf("gender = %v (%T), want plain string Female", row["gender"], row["gender"])
	}

	rec := validRecord()
	rec.ProfileImageURL = strPtr("https://example.com/a.png")
	if got := rec.Row()["profile_image_url"]; got != "https://example.com/a.png" {
		t.Errorf("profile_image_url = %v, want URL string", got)
	}
}
