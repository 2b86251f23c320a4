package main

import (
	"errors"
	"regexp"
	"strings"

	"police-dispatch-system/pkg/dispatch"
	"police-dispatch-system/pkg/middleware"
)

const defaultMaxCapacity = 3

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var errInvalidStation = errors.New("invalid station id")

type registration struct {
	Email         string   `json:"email"`
	Password      string   `json:"password"`
	Role          string   `json:"role"`
	Phone         string   `json:"phone"`
	BadgeNumber   string   `json:"badge_number"`
	StationID     string   `json:"station_id"`
	Name          string   `json:"name"`
	ContactNumber string   `json:"contact_number"`
	Address       string   `json:"address"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func isValidPassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters"
	}
	if len(password) > 72 {
		return false, "Password too long"
	}
	return true, ""
}

// validate normalizes in place and returns a user-facing message for the
// first problem found, or "".
func (in *registration) validate() string {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.ToUpper(strings.TrimSpace(in.Role))
	in.StationID = strings.TrimSpace(in.StationID)
	in.Name = strings.TrimSpace(in.Name)
	in.BadgeNumber = strings.TrimSpace(in.BadgeNumber)

	if in.Email == "" || in.Password == "" || in.Role == "" {
		return "Email, password, and role are required"
	}
	if !isValidEmail(in.Email) {
		return "Invalid email format"
	}
	if ok, msg := isValidPassword(in.Password); !ok {
		return msg
	}

	switch in.Role {
	case middleware.RoleOfficer:
		if in.BadgeNumber == "" {
			return "Badge number is required for officer registration"
		}
		if !dispatch.ValidID(in.StationID) {
			return "Invalid station ID"
		}
		if in.Latitude == nil || in.Longitude == nil {
			return "Latitude and longitude are required for officer registration"
		}
	case middleware.RoleStation:
		if in.Name == "" {
			return "Station name is required"
		}
		if in.Latitude == nil || in.Longitude == nil {
			return "Latitude and longitude are required for police station registration"
		}
	default:
		return "Role must be OFFICER or POLICE_STATION"
	}

	if err := dispatch.ValidateCoordinates(in.Latitude, in.Longitude); err != nil {
		return "Invalid coordinates"
	}
	return ""
}

// phone is the contact stored on the user row; stations register with a
// contact number instead.
func (in *registration) phone() string {
	if in.Phone != "" {
		return in.Phone
	}
	return in.ContactNumber
}

func (in *registration) officer(userID string) *dispatch.Officer {
	return &dispatch.Officer{
		UserID:           userID,
		BadgeNumber:      in.BadgeNumber,
		StationID:        in.StationID,
		IsAvailable:      true,
		ActiveCases:      0,
		MaxCapacity:      defaultMaxCapacity,
		CurrentLatitude:  in.Latitude,
		CurrentLongitude: in.Longitude,
	}
}

func (in *registration) station(userID string) *dispatch.Station {
	return &dispatch.Station{
		UserID:        userID,
		Name:          in.Name,
		ContactNumber: in.ContactNumber,
		Address:       strings.TrimSpace(in.Address),
		Latitude:      *in.Latitude,
		Longitude:     *in.Longitude,
	}
}
