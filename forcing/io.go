package forcing

import (
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/maseology/mmio"
)

// LoadCSV reads a monthly forcing series of the form
//
//	date,prp,evpt,tsfc,tcave,d18o[,obs]
//
// with dates as yyyy-mm. Blank or "nan" fields parse to NaN; a missing
// observation column yields an all-NaN Obs series.
func LoadCSV(fp string) (*Forcing, error) {
	f, err := os.Open(fp)
	if err != nil {
		return nil, fmt.Errorf(" forcing.LoadCSV: %v", err)
	}
	defer f.Close()

	frc := Forcing{}
	ln := 1
	for rec := range mmio.LoadCSV(io.Reader(f)) {
		ln++
		if len(rec) < 6 {
			return nil, fmt.Errorf(" forcing.LoadCSV: line %d of %s has %d fields, need at least 6", ln, fp, len(rec))
		}
		dt, err := time.Parse("2006-01", strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf(" forcing.LoadCSV: line %d of %s: %v", ln, fp, err)
		}
		v := make([]float64, 6)
		for i := 1; i < 6; i++ {
			if v[i-1], err = parseField(rec[i]); err != nil {
				return nil, fmt.Errorf(" forcing.LoadCSV: line %d of %s: %v", ln, fp, err)
			}
		}
		obs := math.NaN()
		if len(rec) > 6 {
			if obs, err = parseField(rec[6]); err != nil {
				return nil, fmt.Errorf(" forcing.LoadCSV: line %d of %s: %v", ln, fp, err)
			}
		}
		frc.T = append(frc.T, dt)
		frc.Prp = append(frc.Prp, v[0])
		frc.Evpt = append(frc.Evpt, v[1])
		frc.Tsfc = append(frc.Tsfc, v[2])
		frc.Tcave = append(frc.Tcave, v[3])
		frc.D18O = append(frc.D18O, v[4])
		frc.Obs = append(frc.Obs, obs)
	}
	if len(frc.T) == 0 {
		return nil, fmt.Errorf(" forcing.LoadCSV: %s holds no records", fp)
	}
	return &frc, nil
}

func parseField(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func (frc *Forcing) SaveGob(fp string) error {
	f, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf(" forcing.SaveGob: %v", err)
	}
	if err := gob.NewEncoder(f).Encode(frc); err != nil {
		f.Close()
		return fmt.Errorf(" forcing.SaveGob: %v", err)
	}
	return f.Close()
}

func LoadGob(fp string) (*Forcing, error) {
	f, err := os.Open(fp)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var frc Forcing
	if err := gob.NewDecoder(f).Decode(&frc); err != nil {
		return nil, err
	}
	return &frc, nil
}
