package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2024, time.March, 10, 15, 30, 0, 0, time.UTC)
}

func TestValidateDate(t *testing.T) {
	validator := NewValidatorAt(fixedNow)

	tests := []struct {
		name       string
		yyyy       string
		mm         string
		dd         string
		wantErr    bool
		wantFields []string
	}{
		{name: "valid date", yyyy: "2016", mm: "12", dd: "31"},
		{name: "first day of data", yyyy: "2015", mm: "07", dd: "01"},
		{name: "today", yyyy: "2024", mm: "03", dd: "10"},
		{name: "tomorrow is allowed", yyyy: "2024", mm: "03", dd: "11"},
		{name: "leap day", yyyy: "2020", mm: "02", dd: "29"},
		{name: "day after tomorrow", yyyy: "2024", mm: "03", dd: "12", wantErr: true, wantFields: []string{"date"}},
		{name: "before first day", yyyy: "2015", mm: "06", dd: "30", wantErr: true, wantFields: []string{"date"}},
		{name: "not a calendar date", yyyy: "2019", mm: "02", dd: "29", wantErr: true, wantFields: []string{"date"}},
		{name: "month out of range", yyyy: "2019", mm: "13", dd: "01", wantErr: true, wantFields: []string{"date"}},
		{name: "short year", yyyy: "19", mm: "01", dd: "01", wantErr: true, wantFields: []string{"yyyy"}},
		{name: "single digit month and day", yyyy: "2019", mm: "1", dd: "1", wantErr: true, wantFields: []string{"mm", "dd"}},
		{name: "letters", yyyy: "abcd", mm: "01", dd: "01", wantErr: true, wantFields: []string{"yyyy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, err := validator.ValidateDate(tt.yyyy, tt.mm, tt.dd)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.yyyy+tt.mm+tt.dd, Revision(date))
				return
			}

			require.Error(t, err)
			var errs Errors
			require.True(t, errors.As(err, &errs))

			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestValidateDomain(t *testing.T) {
	validator := NewValidator()

	assert.NoError(t, validator.ValidateDomain("en.wikipedia.org"))
	assert.NoError(t, validator.ValidateDomain("zh-min-nan.wikipedia.org"))
	assert.NoError(t, validator.ValidateDomain("EN.Wikipedia.org"))
	assert.Error(t, validator.ValidateDomain(""))
	assert.Error(t, validator.ValidateDomain("localhost"))
	assert.Error(t, validator.ValidateDomain("en.wikipedia.org/../etc"))
}

func TestRevision(t *testing.T) {
	assert.Equal(t, "20161231", Revision(time.Date(2016, 12, 31, 23, 0, 0, 0, time.UTC)))
}
