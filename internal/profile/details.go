package profile

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle flips between light and dark. Anything unset counts as light.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

func (t Theme) orDefault() Theme {
	if t == "" {
		return ThemeLight
	}
	return t
}

// Details are the reader-editable parts of the account page plus the
// client's display preferences. They are kept per client.
type Details struct {
	Phone          string   `json:"phone"`
	Address        string   `json:"address"`
	DateOfBirth    string   `json:"date_of_birth"`
	FavoriteGenres []string `json:"favorite_genres"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	Pincode        string   `json:"pincode"`
	Theme          Theme    `json:"theme"`
}

// States accepted for the address, in the order the form lists them.
var States = []string{
	"Andhra Pradesh", "Arunachal Pradesh", "Assam", "Bihar", "Chhattisgarh", "Goa", "Gujarat",
	"Haryana", "Himachal Pradesh", "Jharkhand", "Karnataka", "Kerala", "Madhya Pradesh",
	"Maharashtra", "Manipur", "Meghalaya", "Mizoram", "Nagaland", "Odisha", "Punjab",
	"Rajasthan", "Sikkim", "Tamil Nadu", "Telangana", "Tripura", "Uttar Pradesh",
	"Uttarakhand", "West Bengal", "Delhi", "Jammu and Kashmir", "Ladakh",
}

// FieldError rejects one field of an update.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// normalize trims every field and drops empty or repeated genres.
func (d Details) normalize() Details {
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	d.DateOfBirth = strings.TrimSpace(d.DateOfBirth)
	d.City = strings.TrimSpace(d.City)
	d.State = strings.TrimSpace(d.State)
	d.Pincode = strings.TrimSpace(d.Pincode)

	genres := make([]string, 0, len(d.FavoriteGenres))
	for _, g := range d.FavoriteGenres {
		g = strings.TrimSpace(g)
		if g != "" && !slices.Contains(genres, g) {
			genres = append(genres, g)
		}
	}
	d.FavoriteGenres = genres
	return d
}

func (d Details) validate(now time.Time) error {
	if d.State != "" && !slices.Contains(States, d.State) {
		return &FieldError{Field: "state", Message: "state is not a recognised Indian state or territory"}
	}
	if d.DateOfBirth != "" {
		dob, err := time.Parse(time.DateOnly, d.DateOfBirth)
		if err != nil {
			return &FieldError{Field: "date_of_birth", Message: "date_of_birth must be YYYY-MM-DD"}
		}
		if dob.After(now) {
			return &FieldError{Field: "date_of_birth", Message: "date_of_birth cannot be in the future"}
		}
	}
	return nil
}
