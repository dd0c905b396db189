package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/fraudwatch/internal/common"
)

// Raw input field names. They match the column names of the training dataset
// and the keys archived in prediction history.
const (
	FieldAmount               = "Transaction_Amount"
	FieldDate                 = "Transaction_Date"
	FieldTime                 = "Transaction_Time"
	FieldLocation             = "Transaction_Location"
	FieldCardType             = "Card_Type"
	FieldCurrency             = "Transaction_Currency"
	FieldStatus               = "Transaction_Status"
	FieldPreviousCount        = "Previous_Transaction_Count"
	FieldDistanceKm           = "Distance_Between_Transactions_km"
	FieldMinutesSinceLast     = "Time_Since_Last_Transaction_min"
	FieldAuthenticationMethod = "Authentication_Method"
	FieldVelocity             = "Transaction_Velocity"
	FieldCategory             = "Transaction_Category"
	DateLayout                = "01/02/2006"
	TimeLayout                = "15:04"
	rawFieldCount             = 13
)

var rawFieldNames = [rawFieldCount]string{
	FieldAmount,
	FieldDate,
	FieldTime,
	FieldLocation,
	FieldCardType,
	FieldCurrency,
	FieldStatus,
	FieldPreviousCount,
	FieldDistanceKm,
	FieldMinutesSinceLast,
	FieldAuthenticationMethod,
	FieldVelocity,
	FieldCategory,
}

// RawFieldNames returns the raw input field names in canonical order.
func RawFieldNames() []string {
	names := make([]string, len(rawFieldNames))
	copy(names, rawFieldNames[:])
	return names
}

// Known values offered by the input forms. The pipeline does not reject
// values outside these lists; they simply activate no indicator column.
var (
	Locations = []string{
		"Andijan", "Bukhara", "Fergana", "Jizzakh", "Kashkadarya", "Khorezm", "Namangan",
		"Navoiy", "Samarkand", "Sirdarya", "Surkhandarya", "Tashkent",
	}
	CardTypes             = []string{"Humo", "UzCard", "Visa"}
	Currencies            = []string{"UZS", "USD"}
	Statuses              = []string{"Failed", "Pending", "Reversed", "Successful"}
	AuthenticationMethods = []string{"2FA", "Biometric", "Password"}
	Categories            = []string{"Cash In", "Cash Out", "Payment", "Transfer"}
)

// RawTransaction is one transaction as entered by a user, before feature
// engineering. Date and time keep their entry formats (DateLayout and
// TimeLayout) so the archived copy matches what the user typed.
type RawTransaction struct {
	Date                 string  `json:"Transaction_Date"`
	Time                 string  `json:"Transaction_Time"`
	Location             string  `json:"Transaction_Location"`
	CardType             string  `json:"Card_Type"`
	Currency             string  `json:"Transaction_Currency"`
	Status               string  `json:"Transaction_Status"`
	AuthenticationMethod string  `json:"Authentication_Method"`
	Category             string  `json:"Transaction_Category"`
	Amount               float64 `json:"Transaction_Amount"`
	DistanceKm           float64 `json:"Distance_Between_Transactions_km"`
	PreviousCount        int     `json:"Previous_Transaction_Count"`
	MinutesSinceLast     int     `json:"Time_Since_Last_Transaction_min"`
	Velocity             int     `json:"Transaction_Velocity"`
}

// DefaultTransaction returns the values the input forms start from, dated now.
func DefaultTransaction(now time.Time) RawTransaction {
	return RawTransaction{
		Amount:               500000,
		Date:                 now.Format(DateLayout),
		Time:                 now.Format(TimeLayout),
		Location:             "Samarkand",
		CardType:             "Humo",
		Currency:             "UZS",
		Status:               "Successful",
		PreviousCount:        25,
		DistanceKm:           1500,
		MinutesSinceLast:     500,
		AuthenticationMethod: "Password",
		Velocity:             6,
		Category:             "Payment",
	}
}

// Validate checks that every field is present and inside its allowed range.
func (r *RawTransaction) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{FieldDate, r.Date},
		{FieldTime, r.Time},
		{FieldLocation, r.Location},
		{FieldCardType, r.CardType},
		{FieldCurrency, r.Currency},
		{FieldStatus, r.Status},
		{FieldAuthenticationMethod, r.AuthenticationMethod},
		{FieldCategory, r.Category},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return &common.MissingFieldError{Field: f.name}
		}
	}

	switch {
	case !finite(r.Amount):
		return fmt.Errorf("%w: %s must be a finite number", common.ErrInvalidInput, FieldAmount)
	case !finite(r.DistanceKm):
		return fmt.Errorf("%w: %s must be a finite number", common.ErrInvalidInput, FieldDistanceKm)
	case r.Amount <= 0:
		return fmt.Errorf("%w: %s must be positive", common.ErrInvalidInput, FieldAmount)
	case r.PreviousCount < 1:
		return fmt.Errorf("%w: %s must be at least 1", common.ErrInvalidInput, FieldPreviousCount)
	case r.DistanceKm < 0:
		return fmt.Errorf("%w: %s cannot be negative", common.ErrInvalidInput, FieldDistanceKm)
	case r.MinutesSinceLast < 1:
		return fmt.Errorf("%w: %s must be at least 1", common.ErrInvalidInput, FieldMinutesSinceLast)
	case r.Velocity < 1:
		return fmt.Errorf("%w: %s must be at least 1", common.ErrInvalidInput, FieldVelocity)
	}

	return nil
}

// Value returns the field's value formatted as text.
func (r *RawTransaction) Value(field string) (string, bool) {
	switch field {
	case FieldAmount:
		return strconv.FormatFloat(r.Amount, 'f', -1, 64), true
	case FieldDate:
		return r.Date, true
	case FieldTime:
		return r.Time, true
	case FieldLocation:
		return r.Location, true
	case FieldCardType:
		return r.CardType, true
	case FieldCurrency:
		return r.Currency, true
	case FieldStatus:
		return r.Status, true
	case FieldPreviousCount:
		return strconv.Itoa(r.PreviousCount), true
	case FieldDistanceKm:
		return strconv.FormatFloat(r.DistanceKm, 'f', -1, 64), true
	case FieldMinutesSinceLast:
		return strconv.Itoa(r.MinutesSinceLast), true
	case FieldAuthenticationMethod:
		return r.AuthenticationMethod, true
	case FieldVelocity:
		return strconv.Itoa(r.Velocity), true
	case FieldCategory:
		return r.Category, true
	default:
		return "", false
	}
}

// Set assigns a field from its text form, parsing numbers as needed.
func (r *RawTransaction) Set(field, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return &common.MissingFieldError{Field: field}
	}

	var err error
	switch field {
	case FieldAmount:
		r.Amount, err = parseFloat(field, value)
	case FieldDate:
		r.Date = value
	case FieldTime:
		r.Time = value
	case FieldLocation:
		r.Location = value
	case FieldCardType:
		r.CardType = value
	case FieldCurrency:
		r.Currency = value
	case FieldStatus:
		r.Status = value
	case FieldPreviousCount:
		r.PreviousCount, err = parseInt(field, value)
	case FieldDistanceKm:
		r.DistanceKm, err = parseFloat(field, value)
	case FieldMinutesSinceLast:
		r.MinutesSinceLast, err = parseInt(field, value)
	case FieldAuthenticationMethod:
		r.AuthenticationMethod = value
	case FieldVelocity:
		r.Velocity, err = parseInt(field, value)
	case FieldCategory:
		r.Category = value
	default:
		return fmt.Errorf("%w: unknown field %q", common.ErrInvalidInput, field)
	}
	return err
}

// RawTransactionFromMap builds a RawTransaction from loosely typed values, as
// produced by decoding a JSON object or reading a CSV row. Keys that are not
// raw fields are ignored.
func RawTransactionFromMap(values map[string]any) (RawTransaction, error) {
	var raw RawTransaction
	for _, field := range rawFieldNames {
		v, ok := values[field]
		if !ok || v == nil {
			return RawTransaction{}, &common.MissingFieldError{Field: field}
		}

		var text string
		switch tv := v.(type) {
		case string:
			text = tv
		case float64:
			text = strconv.FormatFloat(tv, 'f', -1, 64)
		case float32:
			text = strconv.FormatFloat(float64(tv), 'f', -1, 32)
		case int:
			text = strconv.Itoa(tv)
		case int64:
			text = strconv.FormatInt(tv, 10)
		case json.Number:
			text = tv.String()
		default:
			return RawTransaction{}, fmt.Errorf("%w: %s has unsupported type %T", common.ErrInvalidInput, field, v)
		}

		if err := raw.Set(field, text); err != nil {
			return RawTransaction{}, err
		}
	}

	if err := raw.Validate(); err != nil {
		return RawTransaction{}, err
	}
	return raw, nil
}

var (
	errNotInteger = errors.New("not an integer")
	errNotFinite  = errors.New("not a finite number")
)

func parseFloat(field, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &common.ParseError{Field: field, Value: value, Err: err}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &common.ParseError{Field: field, Value: value, Err: errNotFinite}
	}
	return f, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// parseInt accepts integral floats such as "25.0", which is how numeric
// columns come back from spreadsheets and JSON clients.
func parseInt(field, value string) (int, error) {
	if i, err := strconv.Atoi(value); err == nil {
		return i, nil
	}
	f, err := parseFloat(field, value)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, &common.ParseError{Field: field, Value: value, Err: errNotInteger}
	}
	return int(f), nil
}
