package holiday

import "github.com/T1mof/sprint-planner/internal/domain"

var defaultHolidays = []domain.PublicHoliday{
	// France
	{Date: "2023-01-01", Name: "New Year's Day", Country: "France"},
	{Date: "2023-04-10", Name: "Easter Monday", Country: "France"},
	{Date: "2023-05-01", Name: "Labor Day", Country: "France"},
	{Date: "2023-05-08", Name: "Victory in Europe Day", Country: "France"},
	{Date: "2023-05-18", Name: "Ascension Day", Country: "France"},
	{Date: "2023-05-29", Name: "Whit Monday", Country: "France"},
	{Date: "2023-07-14", Name: "Bastille Day", Country: "France"},
	{Date: "2023-08-15", Name: "Assumption Day", Country: "France"},
	{Date: "2023-11-01", Name: "All Saints' Day", Country: "France"},
	{Date: "2023-11-11", Name: "Armistice Day", Country: "France"},
	{Date: "2023-12-25", Name: "Christmas Day", Country: "France"},

	// Spain
	{Date: "2023-01-01", Name: "New Year's Day", Country: "Spain"},
	{Date: "2023-01-06", Name: "Epiphany", Country: "Spain"},
	{Date: "2023-04-07", Name: "Good Friday", Country: "Spain"},
	{Date: "2023-05-01", Name: "Labor Day", Country: "Spain"},
	{Date: "2023-08-15", Name: "Assumption Day", Country: "Spain"},
	{Date: "2023-10-12", Name: "National Day", Country: "Spain"},
	{Date: "2023-11-01", Name: "All Saints' Day", Country: "Spain"},
	{Date: "2023-12-06", Name: "Constitution Day", Country: "Spain"},
	{Date: "2023-12-08", Name: "Immaculate Conception", Country: "Spain"},
	{Date: "2023-12-25", Name: "Christmas Day", Country: "Spain"},

	// Germany
	{Date: "2023-01-01", Name: "New Year's Day", Country: "Germany"},
	{Date: "2023-04-07", Name: "Good Friday", Country: "Germany"},
	{Date: "2023-04-10", Name: "Easter Monday", Country: "Germany"},
	{Date: "2023-05-01", Name: "Labor Day", Country: "Germany"},
	{Date: "2023-05-18", Name: "Ascension Day", Country: "Germany"},
	{Date: "2023-05-29", Name: "Whit Monday", Country: "Germany"},
	{Date: "2023-10-03", Name: "German Unity Day", Country: "Germany"},
	{Date: "2023-12-25", Name: "Christmas Day", Country: "Germany"},
	{Date: "2023-12-26", Name: "St. Stephen's Day", Country: "Germany"},
}
