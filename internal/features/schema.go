// Package features turns raw transactions into the ordered numeric vectors the
// fraud classifier was trained on.
package features

import "github.com/Veraticus/fraudwatch/internal/model"

// Derived temporal feature names.
const (
	FeatureHour      = "Transaction_Hour"
	FeatureDayOfWeek = "Transaction_DayOfWeek"
	FeatureMonth     = "Transaction_Month"
)

// numericColumns are the columns passed through the scaler, in scaler order.
var numericColumns = []string{
	model.FieldAmount,
	model.FieldPreviousCount,
	model.FieldDistanceKm,
	model.FieldMinutesSinceLast,
	model.FieldVelocity,
}

// categoricalFields are expanded into indicator columns named field_value.
var categoricalFields = []string{
	model.FieldLocation,
	model.FieldCardType,
	model.FieldCurrency,
	model.FieldStatus,
	model.FieldAuthenticationMethod,
	model.FieldCategory,
}

// schema is the exact column order of the trained model.
var schema = []string{
	model.FieldAmount,
	model.FieldPreviousCount,
	model.FieldDistanceKm,
	model.FieldMinutesSinceLast,
	model.FieldVelocity,
	FeatureHour,
	FeatureDayOfWeek,
	FeatureMonth,
	"Transaction_Location_Bukhara",
	"Transaction_Location_Fergana",
	"Transaction_Location_Jizzakh",
	"Transaction_Location_Kashkadarya",
	"Transaction_Location_Khorezm",
	"Transaction_Location_Namangan",
	"Transaction_Location_Navoiy",
	"Transaction_Location_Samarkand",
	"Transaction_Location_Sirdarya",
	"Transaction_Location_Surkhandarya",
	"Transaction_Location_Tashkent",
	"Card_Type_UzCard",
	"Transaction_Currency_UZS",
	"Transaction_Status_Reversed",
	"Transaction_Status_Successful",
	"Authentication_Method_Biometric",
	"Authentication_Method_Password",
	"Transaction_Category_Cash Out",
	"Transaction_Category_Payment",
	"Transaction_Category_Transfer",
}

// schemaIndex maps a column name to its position in schema.
var schemaIndex = func() map[string]int {
	idx := make(map[string]int, len(schema))
	for i, name := range schema {
		idx[name] = i
	}
	return idx
}()

// baselines are the dropped first categories of each categorical field. They
// are recorded for reference; the pipeline never emits a column for them
// because the schema does not contain one.
var baselines = map[string]string{
	model.FieldLocation:             "Andijan",
	model.FieldCardType:             "Humo",
	model.FieldCurrency:             "USD",
	model.FieldStatus:               "Failed",
	model.FieldAuthenticationMethod: "2FA",
	model.FieldCategory:             "Cash In",
}

// Schema returns a copy of the ordered feature names.
func Schema() []string {
	names := make([]string, len(schema))
	copy(names, schema)
	return names
}

// NumericColumns returns a copy of the scaled column names in scaler order.
func NumericColumns() []string {
	names := make([]string, len(numericColumns))
	copy(names, numericColumns)
	return names
}

// Baselines returns the baseline category for each categorical field.
func Baselines() map[string]string {
	out := make(map[string]string, len(baselines))
	for k, v := range baselines {
		out[k] = v
	}
	return out
}

// IndicatorName returns the column name for a categorical value.
func IndicatorName(field, value string) string {
	return field + "_" + value
}
