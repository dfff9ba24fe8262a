package calendar

// Easter returns Orthodox Easter Sunday for year, in the Julian calendar.
//
// This is the Julian computus in Meeus' integer form: the golden number
// (year mod 19) fixes the Paschal full moon on the 19-year Metonic cycle
// and the remaining terms move it to the following Sunday.
func Easter(year int) Date {
	a := year % 4
	b := year % 7
	c := year % 19
	d := (19*c + 15) % 30
	e := (2*a + 4*b - d + 34) % 7
	month := (d + e + 114) / 31
	day := (d+e+114)%31 + 1
	return Date{Days: JulianToJDN(year, month, day), System: Julian}
}
