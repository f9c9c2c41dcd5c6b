// Package domain models the two source tables of the crime/temperature
// analysis and the merged daily observations derived from them.
//
// # Data Sources
//
// Crime events come from the Los Angeles Police Department "Crime Data from
// 2020 to Present" export, filtered to a single year. There is one row per
// reported incident. Only the occurrence column is read:
//
//	DATE OCC  "01/08/2023 12:00:00 AM"
//
// The LAPD export carries the time of day in a separate TIME OCC column, so
// DATE OCC is effectively one distinct string per calendar day. The parser
// memoises parsed values for that reason (see [DateParser]).
//
// Daily weather comes from the Open-Meteo historical archive CSV download,
// one row per day:
//
//	time                     "2023-01-08"
//	temperature_2m_max (°F)  "61.3"
//
// The temperature header carries its unit; it must match exactly. Any other
// weather columns (precipitation, wind) are carried through the join as-is.
//
// # Alignment
//
// Crime rows are grouped by calendar day to produce one [DailyCount] per date,
// then inner-joined with weather rows on date. Dates present in only one
// source are dropped. A weather file with duplicate dates fans the join out:
// each duplicate produces its own [Observation] carrying the same count.
package domain
