package domain

import (
	"time"
)

const dayIDLayout = "20060102"

// DayID is the UTC calendar date of a day as YYYYMMDD.
type DayID struct {
	value string
}

func NewDayID(t time.Time) (DayID, error) {
	if err := ValidateDate(t, "DayId"); err != nil {
		return DayID{}, err
	}
	return DayID{value: t.UTC().Format(dayIDLayout)}, nil
}

// ParseDayID accepts an existing 8-digit key.
func ParseDayID(raw string) (DayID, error) {
	t, err := StringDayIDToDate(raw)
	if err != nil {
		return DayID{}, err
	}
	return DayID{value: t.Format(dayIDLayout)}, nil
}

func (d DayID) Value() string  { return d.value }
func (d DayID) String() string { return d.value }

func (d DayID) Equals(other DayID) bool { return d.value != "" && d.value == other.value }

// Date returns midnight UTC of the day.
func (d DayID) Date() time.Time {
	t, _ := time.Parse(dayIDLayout, d.value)
	return t
}

// StringDayIDToDate converts a YYYYMMDD key to midnight UTC.
func StringDayIDToDate(raw string) (time.Time, error) {
	if len(raw) != 8 {
		return time.Time{}, Validationf("DayId: %q must have 8 digits", raw)
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return time.Time{}, Validationf("DayId: %q must have 8 digits", raw)
		}
	}
	t, err := time.Parse(dayIDLayout, raw)
	if err != nil {
		return time.Time{}, Validationf("DayId: %q is not a calendar date", raw)
	}
	return t, nil
}

type DayProps struct {
	Date        time.Time
	UserID      string
	MealIDs     []string
	FakeMealIDs []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Day links a user's meals and fake meals to one calendar date.
type Day struct {
	id          DayID
	userID      ID
	mealIDs     []string
	fakeMealIDs []string
	timestamps
}

func NewDay(p DayProps) (*Day, error) {
	id, err := NewDayID(p.Date)
	if err != nil {
		return nil, err
	}
	userID, err := NewID(p.UserID)
	if err != nil {
		return nil, err
	}
	ts, err := newTimestamps(p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d := &Day{id: id, userID: userID, timestamps: ts}
	if d.mealIDs, err = uniqueIDs("Day: meal", p.MealIDs); err != nil {
		return nil, err
	}
	if d.fakeMealIDs, err = uniqueIDs("Day: fake meal", p.FakeMealIDs); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Day) AddMeal(mealID string) error {
	ids, err := addID("Day: meal", d.mealIDs, mealID)
	if err != nil {
		return err
	}
	d.mealIDs = ids
	d.touch()
	return nil
}

func (d *Day) RemoveMealByID(mealID string) error {
	ids, err := removeID("Day: meal", d.mealIDs, mealID)
	if err != nil {
		return err
	}
	d.mealIDs = ids
	d.touch()
	return nil
}

func (d *Day) AddFakeMeal(fakeMealID string) error {
	ids, err := addID("Day: fake meal", d.fakeMealIDs, fakeMealID)
	if err != nil {
		return err
	}
	d.fakeMealIDs = ids
	d.touch()
	return nil
}

func (d *Day) RemoveFakeMealByID(fakeMealID string) error {
	ids, err := removeID("Day: fake meal", d.fakeMealIDs, fakeMealID)
	if err != nil {
		return err
	}
	d.fakeMealIDs = ids
	d.touch()
	return nil
}

func (d *Day) ID() string      { return d.id.Value() }
func (d *Day) DayID() DayID    { return d.id }
func (d *Day) UserID() string  { return d.userID.Value() }
func (d *Day) Date() time.Time { return d.id.Date() }

func (d *Day) MealIDs() []string     { return append([]string(nil), d.mealIDs...) }
func (d *Day) FakeMealIDs() []string { return append([]string(nil), d.fakeMealIDs...) }

func (d *Day) HasMeal(mealID string) bool         { return indexOfID(d.mealIDs, mealID) >= 0 }
func (d *Day) HasFakeMeal(fakeMealID string) bool { return indexOfID(d.fakeMealIDs, fakeMealID) >= 0 }

func uniqueIDs(what string, raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var err error
		if out, err = addID(what, out, r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func addID(what string, ids []string, raw string) ([]string, error) {
	id, err := NewID(raw)
	if err != nil {
		return nil, err
	}
	if indexOfID(ids, id.Value()) >= 0 {
		return nil, Validationf("%s %q is already added", what, id.Value())
	}
	out := make([]string, len(ids), len(ids)+1)
	copy(out, ids)
	return append(out, id.Value()), nil
}

func removeID(what string, ids []string, raw string) ([]string, error) {
	i := indexOfID(ids, raw)
	if i < 0 {
		return nil, Validationf("%s %q not found", what, raw)
	}
	out := make([]string, 0, len(ids)-1)
	out = append(out, ids[:i]...)
	return append(out, ids[i+1:]...), nil
}

func indexOfID(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
