package formatting

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FormatMoney сумма из минорных единиц: 90000 INR -> ₹900.00
func FormatMoney(minor int64, currency string) string {
	amount := decimal.New(minor, -2).StringFixed(2)
	return withCurrency(amount, currency)
}

// FormatMoneyShort без дробной части, если она нулевая
func FormatMoneyShort(minor int64, currency string) string {
	if minor%100 == 0 {
		return withCurrency(decimal.New(minor/100, 0).String(), currency)
	}
	return FormatMoney(minor, currency)
}

// FormatRate тариф эксперта за минуту
func FormatRate(minorPerMinute int64, currency string) string {
	return FormatMoney(minorPerMinute, currency) + "/min"
}

func withCurrency(amount, currency string) string {
	code := strings.ToUpper(currency)
	if symbol, ok := currencySymbols[code]; ok {
		return symbol + amount
	}
	if code == "" {
		return amount
	}
	return amount + " " + code
}
