package domain_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/nutrilog/internal/domain"
)

func TestIDTrimsAndRejectsEmpty(t *testing.T) {
	id, err := domain.NewID("  a  ")
	require.NoError(t, err)
	assert.Equal(t, "a", id.Value())

	_, err = domain.NewID("   ")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.EqualError(t, err, "Id: value cannot be empty")
}

func TestIDEquals(t *testing.T) {
	a, _ := domain.NewID("x")
	b, _ := domain.NewID(" x ")
	c, _ := domain.NewID("y")
	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.False(t, a.Equals(domain.ID{}))
	assert.NotEqual(t, domain.GenerateID().Value(), domain.GenerateID().Value())
}

func TestTextOptions(t *testing.T) {
	txt, err := domain.NewText("  hello ", domain.TextOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hello", txt.Value())

	empty, err := domain.NewText("   ", domain.TextOptions{})
	require.NoError(t, err)
	assert.Equal(t, "", empty.Value())

	_, err = domain.NewText("   ", domain.TextOptions{NotEmpty: true})
	assert.True(t, domain.IsValidation(err))

	_, err = domain.NewText(" abcd ", domain.TextOptions{MaxLength: 4})
	require.NoError(t, err)
	_, err = domain.NewText("abcde", domain.TextOptions{MaxLength: 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max length of 4")
}

func TestNumericOptions(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		opts    domain.NumberOptions
		wantErr bool
	}{
		{name: "zero without options", value: 0},
		{name: "negative without options", value: -3},
		{name: "zero rejected when non-zero", value: 0, opts: domain.NumberOptions{NonZero: true}, wantErr: true},
		{name: "zero allowed when only positive", value: 0, opts: domain.NumberOptions{OnlyPositive: true}},
		{name: "negative rejected when only positive", value: -1, opts: domain.NumberOptions{OnlyPositive: true}, wantErr: true},
		{name: "positive non-zero", value: 5, opts: domain.NumberOptions{OnlyPositive: true, NonZero: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ierr := domain.NewInteger(int(tt.value), tt.opts)
			_, ferr := domain.NewFloat(tt.value, tt.opts)
			if tt.wantErr {
				assert.True(t, domain.IsValidation(ierr), "integer: %v", ierr)
				assert.True(t, domain.IsValidation(ferr), "float: %v", ferr)
				return
			}
			assert.NoError(t, ierr)
			assert.NoError(t, ferr)
		})
	}
}

func TestFloatRejectsTinyNegativeWhenOnlyPositive(t *testing.T) {
	_, err := domain.NewFloat(-1e-9, domain.NumberOptions{OnlyPositive: true})
	assert.EqualError(t, err, "Float: value must be positive")
}

func TestFloatRejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := domain.NewFloat(v, domain.NumberOptions{})
		assert.True(t, domain.IsValidation(err))
	}
}

func TestIntegerFromFloat(t *testing.T) {
	i, err := domain.IntegerFromFloat(12, domain.NumberOptions{})
	require.NoError(t, err)
	assert.Equal(t, 12, i.Value())

	_, err = domain.IntegerFromFloat(1.5, domain.NumberOptions{})
	assert.EqualError(t, err, "Integer: value must be a whole number")
	_, err = domain.IntegerFromFloat(math.NaN(), domain.NumberOptions{})
	assert.True(t, domain.IsValidation(err))
}

func TestDate(t *testing.T) {
	before := time.Now()
	now := domain.Now()
	assert.False(t, now.Value().Before(before.Add(-time.Second)))

	_, err := domain.NewDate(time.Time{})
	assert.True(t, domain.IsValidation(err))

	_, err = domain.ParseDate("not a date")
	assert.True(t, domain.IsValidation(err))

	d, err := domain.ParseDate("2024-06-15T10:30:00Z")
	require.NoError(t, err)
	other, _ := domain.NewDate(time.Date(2024, 6, 15, 12, 30, 0, 0, time.FixedZone("x", 2*3600)))
	assert.True(t, d.Equals(other))
	assert.Equal(t, "2024-06-15T10:30:00Z", d.ISO())
}

func TestEmail(t *testing.T) {
	valid := []string{"user@example.com", "user.name@example.com", "user+tag@example.co.uk", "a@b.co", "  padded@example.org "}
	for _, raw := range valid {
		e, err := domain.NewEmail(raw)
		require.NoError(t, err, raw)
		assert.NotEmpty(t, e.Value())
	}
	e, _ := domain.NewEmail("  padded@example.org ")
	assert.Equal(t, "padded@example.org", e.Value())

	invalid := []string{
		"", "userexample.com", "@example.com", "user@",
		"user@example..com", ".user@example.com", "user.@example.com", "us..er@example.com",
		"user@.example.com", "user@example.com.",
		"user@-example.com", "user@example-.com", "user@exa_mple.com", "user@example.c",
	}
	for _, raw := range invalid {
		_, err := domain.NewEmail(raw)
		assert.True(t, domain.IsValidation(err), "expected %q to be rejected", raw)
	}
}

func TestPasswordPolicy(t *testing.T) {
	policy := domain.DefaultPasswordPolicy()

	p, err := domain.NewPassword("  Str0ng!pass  ", policy)
	require.NoError(t, err)
	assert.Equal(t, "Str0ng!pass", p.Value())
	assert.Equal(t, "********", p.String())

	cases := map[string]string{
		"Sh0rt!":      "at least 8",
		"lowercase1!": "uppercase",
		"UPPERCASE1!": "lowercase",
		"NoDigits!!":  "digit",
		"NoSpecial12": "special",
	}
	for raw, want := range cases {
		_, err := domain.NewPassword(raw, policy)
		require.Error(t, err, raw)
		assert.Contains(t, err.Error(), want)
	}

	relaxed := policy
	relaxed.RequireSpecial = false
	relaxed.RequireUppercase = false
	_, err = domain.NewPassword("nospecial12", relaxed)
	assert.NoError(t, err)

	_, err = domain.NewPassword("Aa1!aaaaaaaaaaaa", domain.PasswordPolicy{MaxLength: 10, RequireDigit: true})
	assert.ErrorContains(t, err, "at most 10")

	for _, special := range []string{"`", "~", "\\", "'", "\"", "[", "]"} {
		_, err := domain.NewPassword("Abcdefg1"+special, policy)
		assert.NoError(t, err, special)
	}
}

func TestHashedPassword(t *testing.T) {
	_, err := domain.NewHashedPassword("short")
	assert.EqualError(t, err, "HashedPassword: value is too short")
	h, err := domain.NewHashedPassword("0123456789")
	require.NoError(t, err)
	assert.Equal(t, "0123456789", h.Value())
}

func TestExternalSource(t *testing.T) {
	s, err := domain.NewExternalSource(" OpenFoodFacts ")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceOpenFoodFacts, s)

	_, err = domain.NewExternalSource("myfitnesspal")
	assert.True(t, domain.IsValidation(err))
}

func TestErrorCodes(t *testing.T) {
	err := domain.NotFoundf("recipe %q not found", "r1")
	wrapped := errors.Join(errors.New("context"), err)
	assert.True(t, errors.Is(wrapped, domain.ErrNotFound))
	assert.False(t, errors.Is(wrapped, domain.ErrValidation))
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(wrapped))
	assert.Equal(t, domain.Code(""), domain.CodeOf(errors.New("plain")))

	cause := errors.New("connection refused")
	infra := domain.Infra("lookup failed", cause)
	assert.ErrorIs(t, infra, cause)
	assert.EqualError(t, infra, "lookup failed: connection refused")

	detailed := domain.Validationf("bad").WithDetail("field", "name")
	assert.Equal(t, "name", detailed.Details["field"])
}
