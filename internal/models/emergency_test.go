package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEmergency() *Emergency {
	return &Emergency{
		Type:        TypeCardiac,
		Severity:    SeverityHigh,
		Location:    Location{Address: "Main St", Latitude: 40.0, Longitude: -74.0},
		Description: "chest pain",
		Reporter:    Reporter{Name: "Alex"},
		// Значение по умолчанию выставляет сервис
		NumberOfPeople: 1,
	}
}

func TestEmergencyValidate_OK(t *testing.T) {
	require.NoError(t, validEmergency().Validate())
}

func TestEmergencyValidate_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *Emergency)
		field  string
	}{
		{"unknown type", func(e *Emergency) { e.Type = "earthquake" }, "type"},
		{"unknown severity", func(e *Emergency) { e.Severity = "critical" }, "severity"},
		{"empty address", func(e *Emergency) { e.Location.Address = "" }, "location.address"},
		{"lat out of range", func(e *Emergency) { e.Location.Latitude = 91 }, "location.lat"},
		{"lng out of range", func(e *Emergency) { e.Location.Longitude = -181 }, "location.lng"},
		{"empty description", func(e *Emergency) { e.Description = "" }, "description"},
		{"empty reporter name", func(e *Emergency) { e.Reporter.Name = "" }, "reporter.name"},
		{"zero people", func(e *Emergency) { e.NumberOfPeople = 0 }, "number_of_people"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEmergency()
			tt.mutate(e)
			err := e.Validate()
			require.Error(t, err)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestEmergencyIsActive(t *testing.T) {
	e := validEmergency()
	for _, s := range ActiveStatuses {
		e.Status = s
		assert.Truef(t, e.IsActive(), "status %s", s)
	}
	e.Status = StatusResolved
	assert.False(t, e.IsActive())
	e.Status = StatusCancelled
	assert.False(t, e.IsActive())
}
