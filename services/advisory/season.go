package advisory

import (
	"strings"
	"time"

	"github.com/krishimitra/api/models"
)

// CurrentSeason maps a calendar month onto the advisory seasons.
func CurrentSeason(t time.Time) models.Season {
	switch t.Month() {
	case time.December, time.January, time.February:
		return models.SeasonWinter
	case time.March, time.April, time.May:
		return models.SeasonSpring
	case time.June, time.July, time.August:
		return models.SeasonMonsoon
	default:
		return models.SeasonAutumn
	}
}

var monthSeasons = []struct {
	months []string
	season models.Season
}{
	{[]string{"asar", "shrawan"}, models.SeasonMonsoon},
	{[]string{"kartik", "mangsir"}, models.SeasonAutumn},
	{[]string{"magh", "falgun"}, models.SeasonWinter},
	{[]string{"chaitra", "baisakh"}, models.SeasonSpring},
}

// InferSeasonFromMonths looks for Nepali month names in a free-text period
// such as "Asar - Shrawan". The first matching group wins; no match yields "".
func InferSeasonFromMonths(period string) models.Season {
	lower := strings.ToLower(period)
	for _, group := range monthSeasons {
		for _, month := range group.months {
			if strings.Contains(lower, month) {
				return group.season
			}
		}
	}
	return ""
}
