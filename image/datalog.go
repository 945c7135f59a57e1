package image

// param describes one field of the mode 1 datastream: where it sits in
// the 60-byte payload and how to convert the raw integer into an
// engineering unit. Laid out against the VS/VX/VY V6 Delco ECU's mode 1
// message 0 definition table.
type param struct {
	name   string
	offset int
	size   int // 1 or 2 bytes
	scale  float64
	add    float64
}

var datastreamParams = []param{
	{"RPM", 0, 2, 25.0, 0},
	{"Desired Idle", 2, 2, 25.0, 0},
	{"ECT Voltage", 4, 1, 5.0 / 255, 0},
	{"ECT Temp", 5, 1, 0.75, -40},
	{"IAT Voltage", 6, 1, 5.0 / 255, 0},
	{"IAT Temp", 7, 1, 0.75, -40},
	{"MAF Freq", 8, 2, 1.0, 0},
	{"MAF", 10, 2, 1.0, 0},
	{"TPS Voltage", 12, 1, 5.0 / 255, 0},
	{"TPS %", 13, 1, 1.0 / 2.55, 0},
	{"LH O2", 14, 1, 4.44, 0},
	{"LH O2 Xcount", 15, 1, 1.0, 0},
	{"RH O2", 16, 1, 4.44, 0},
	{"RH O2 Xcount", 17, 1, 1.0, 0},
	{"Inj PW", 18, 2, 0.01526, 0},
	{"Inj Voltage", 20, 1, 0.1, 0},
	{"LH STFT", 21, 1, 1.0 / 1.28, -100.0},
	{"RH STFT", 22, 1, 1.0 / 1.28, -100.0},
	{"LH LTFT", 23, 1, 1.0 / 1.28, -100.0},
	{"RH LTFT", 24, 1, 1.0 / 1.28, -100.0},
	{"BLM Cell", 25, 1, 1.0, 0},
	{"STFT Change", 26, 1, 1.0, 0},
	{"LTFT Var", 27, 1, 1.0, 0},
	{"AFR", 28, 1, 0.1, 0},
	{"Battery V", 29, 1, 0.1, 0},
	{"Ref Voltage", 30, 1, 0.02, 0},
	{"Status 32", 31, 1, 1.0, 0},
	{"Status 33", 32, 1, 1.0, 0},
	{"Status 34", 33, 1, 1.0, 0},
	{"Status 35", 34, 1, 1.0, 0},
	{"Knock Retard", 35, 1, 0.351, 0},
	{"EPROM ID Hi", 36, 1, 1.0, 0},
	{"EPROM ID Lo", 37, 1, 1.0, 0},
	{"mg/s/cyl", 38, 1, 1.0, 0},
	{"Wheel Speed", 39, 1, 1.0, 0},
	{"Idle Var", 40, 2, 1.0, 0},
	{"IAC Steps", 42, 1, 1.0, 0},
	{"Spark Advance", 43, 2, 90.0 / 256, -35.0},
	{"Eng Perf 100", 45, 1, 1.0 / 2.55, 0},
	{"Eng Perf 50", 46, 1, 1.0 / 2.55, 0},
	{"EGR Pintle", 47, 1, 5.0 / 255, 0},
	{"EGR Feedback", 48, 1, 5.0 / 255, 0},
	{"EGR Desired", 49, 1, 5.0 / 255, 0},
	{"Canister Purge", 50, 1, 1.0 / 2.55, 0},
	{"Fuel Consump", 51, 2, 1.0, 0},
	{"Run Time", 53, 2, 1.0, 0},
	{"Crank Time", 55, 2, 1.0, 0},
}

// DatalogRecord is one decoded mode 1 datastream sample.
type DatalogRecord map[string]float64

// DecodeDatalogRecord converts a raw mode 1 payload into engineering
// units. Fields whose bytes fall outside the payload are omitted rather
// than erroring, since a short payload from an older calibration is
// still worth logging what it has.
func DecodeDatalogRecord(payload []byte) DatalogRecord {
	rec := make(DatalogRecord, len(datastreamParams))
	for _, p := range datastreamParams {
		if p.offset+p.size > len(payload) {
			continue
		}
		var raw int
		if p.size == 1 {
			raw = int(payload[p.offset])
		} else {
			raw = int(payload[p.offset])<<8 | int(payload[p.offset+1])
		}
		rec[p.name] = float64(raw)*p.scale + p.add
	}
	return rec
}
