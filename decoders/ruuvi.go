package decoders

import "github.com/pkg/errors"

// CompanyRuuvi is the manufacturer data key used by RuuviTag sensors.
const CompanyRuuvi uint16 = 0x0499

const (
	ruuviFormatRAWv2 = 0x05
	ruuviRAWv2Len    = 24
)

// ParseRuuviRAWv2 decodes the fields of data format 5 that are surfaced.
// Acceleration, movement counter, sequence number and MAC are not decoded.
//
//	0     0x05
//	1..2  temperature, int16, 0.005 °C
//	3..4  humidity, uint16, 0.0025 %RH
//	5..6  pressure, uint16, Pa - 50000
//	7..8  power word: top 11 bits battery (mV - 1600), low 5 bits tx power ((dBm + 40) / 2)
func ParseRuuviRAWv2(p []byte) (Beacon, error) {
	if err := precheck("ruuvi", p, 1); err != nil {
		return nil, err
	}
	if p[0] != ruuviFormatRAWv2 {
		return nil, errors.Wrapf(ErrUnrecognizedFormat, "ruuvi: data format 0x%02X", p[0])
	}
	if err := precheck("ruuvi-rawv2", p, ruuviRAWv2Len); err != nil {
		return nil, err
	}

	r := fieldReader{f: p}
	temp := r.i16(1)
	hum := r.u16(3)
	pres := r.u16(5)
	power := r.u16(7)
	if r.err != nil {
		return nil, r.err
	}

	return RuuviTag{
		TemperatureCelsius: fixed(float64(temp)*0.005, 2),
		HumidityPercent:    fixed(float64(hum)*0.0025, 2),
		PressureHPa:        fixed((float64(pres)+50000)/100, 2),
		BatteryMillivolts:  power>>5 + 1600,
		TxPowerDBm:         int(power&0x1F)*2 - 40,
	}, nil
}
