// Command genmock writes a synthetic crime CSV and a matching daily weather
// CSV for local runs. Crime rows follow the LAPD export layout and weather
// rows the Open-Meteo daily layout. Daily crime volume rises linearly with
// temperature plus noise, so the analysis has a known slope to recover.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -crime-out data/mock/crime_data_2023.csv \
//	  -weather-out data/mock/weather_data_2023.csv \
//	  -seed 42
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/couchcryptid/crime-temperature-analysis/internal/adapter/csvfile"
	"github.com/couchcryptid/crime-temperature-analysis/internal/domain"
)

const lapdTimestamp = "01/02/2006 03:04:05 PM"

var (
	areas = []string{
		"Central", "Rampart", "Southwest", "Hollenbeck", "Harbor", "Hollywood", "Wilshire",
		"West LA", "Van Nuys", "West Valley", "Northeast", "77th Street", "Newton", "Pacific",
		"N Hollywood", "Foothill", "Devonshire", "Southeast", "Mission", "Olympic", "Topanga",
	}
	crimes = []string{
		"VEHICLE - STOLEN", "BATTERY - SIMPLE ASSAULT", "THEFT PLAIN - PETTY ($950 & UNDER)",
		"BURGLARY FROM VEHICLE", "VANDALISM - FELONY ($400 & OVER, ALL CHURCH VANDALISMS)",
		"IDENTITY THEFT", "ASSAULT WITH DEADLY WEAPON, AGGRAVATED ASSAULT", "BURGLARY",
		"THEFT FROM MOTOR VEHICLE - PETTY ($950 & UNDER)", "INTIMATE PARTNER - SIMPLE ASSAULT",
	}
)

type params struct {
	year     int
	baseRate float64 // crimes per day at meanTemp
	slope    float64 // additional crimes per °F
	meanTemp float64
	swing    float64 // seasonal amplitude in °F
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	crimeOut := flag.String("crime-out", "", "output path for the crime CSV")
	weatherOut := flag.String("weather-out", "", "output path for the weather CSV")
	seed := flag.Int64("seed", 42, "random seed; equal seeds produce identical files")
	year := flag.Int("year", 2023, "calendar year to generate")
	baseRate := flag.Float64("base-rate", 550, "mean crimes per day at the mean temperature")
	slope := flag.Float64("slope", 1.5, "additional crimes per degree Fahrenheit")
	flag.Parse()

	if *crimeOut == "" || *weatherOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -crime-out, -weather-out")
	}

	p := params{year: *year, baseRate: *baseRate, slope: *slope, meanTemp: 74, swing: 10}
	crime, weather := generate(gofakeit.New(*seed), p)

	if err := csvfile.WriteRecords(*weatherOut, weather); err != nil {
		return fmt.Errorf("writing weather data: %w", err)
	}
	log.Printf("wrote %d weather rows: %s", len(weather)-1, *weatherOut)

	if err := csvfile.WriteRecords(*crimeOut, crime); err != nil {
		return fmt.Errorf("writing crime data: %w", err)
	}
	log.Printf("wrote %d crime rows: %s", len(crime)-1, *crimeOut)
	return nil
}

// generate returns the crime and weather tables, each with a header row.
func generate(f *gofakeit.Faker, p params) (crime, weather [][]string) {
	weather = [][]string{{
		"time", "temperature_2m_max (°F)", "temperature_2m_min (°F)", "precipitation_sum (inch)",
	}}
	crime = [][]string{{
		"DR_NO", "Date Rptd", "DATE OCC", "TIME OCC", "AREA NAME", "Crm Cd Desc", "LOCATION",
	}}

	start := time.Date(p.year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	days := end.Sub(start).Hours() / 24

	dr := 230100000
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		// Coolest in mid-January, warmest in mid-July.
		phase := 2 * math.Pi * (float64(d.YearDay()) - 15) / days
		tmax := p.meanTemp - p.swing*math.Cos(phase) + f.Float64Range(-4, 4)
		tmin := tmax - f.Float64Range(12, 22)
		precip := 0.0
		if f.Float64Range(0, 1) < 0.12 {
			precip = f.Float64Range(0.01, 1.5)
		}
		weather = append(weather, []string{
			d.Format(domain.DateLayout),
			strconv.FormatFloat(round1(tmax), 'f', 1, 64),
			strconv.FormatFloat(round1(tmin), 'f', 1, 64),
			strconv.FormatFloat(precip, 'f', 2, 64),
		})

		n := int(math.Round(p.baseRate + p.slope*(tmax-p.meanTemp) + f.Float64Range(-25, 25)))
		for range max(n, 0) {
			dr++
			reported := d.AddDate(0, 0, f.Number(0, 3))
			crime = append(crime, []string{
				strconv.Itoa(dr),
				reported.Format(lapdTimestamp),
				d.Format(lapdTimestamp),
				fmt.Sprintf("%04d", f.Number(0, 23)*100+f.Number(0, 59)),
				f.RandomString(areas),
				f.RandomString(crimes),
				f.Street(),
			})
		}
	}
	return crime, weather
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
