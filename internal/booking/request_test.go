package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateRequestValidate(t *testing.T) {
	valid := CreateRequest{
		ApartmentID: 7,
		StartDate:   "2026-06-01",
		EndDate:     "2026-06-04",
		GuestName:   "  Nora Guest  ",
		GuestEmail:  " nora@example.com ",
	}
	start, end, err := valid.Validate()
	assert.NoError(t, err)
	assert.Equal(t, day("2026-06-01"), start)
	assert.Equal(t, day("2026-06-04"), end)
	// fields are trimmed in place
	assert.Equal(t, "Nora Guest", valid.GuestName)
	assert.Equal(t, "nora@example.com", valid.GuestEmail)

	missing := valid
	missing.ApartmentID = 0
	_, _, err = missing.Validate()
	assert.ErrorIs(t, err, ErrNotFound)

	badStart := valid
	badStart.StartDate = "June 1st"
	_, _, err = badStart.Validate()
	assert.ErrorIs(t, err, ErrInvalidRange)

	reversed := valid
	reversed.StartDate, reversed.EndDate = reversed.EndDate, reversed.StartDate
	_, _, err = reversed.Validate()
	assert.ErrorIs(t, err, ErrInvalidRange)

	noName := valid
	noName.GuestName = "   "
	_, _, err = noName.Validate()
	assert.ErrorIs(t, err, ErrInvalidRequest)

	noEmail := valid
	noEmail.GuestEmail = ""
	_, _, err = noEmail.Validate()
	assert.ErrorIs(t, err, ErrInvalidRequest)

	badEmail := valid
	badEmail.GuestEmail = "nora.example.com"
	_, _, err = badEmail.Validate()
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
