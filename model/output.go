package model

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"
	"os"

	"github.com/agriff86/karstolution/forcing"
	"github.com/agriff86/karstolution/karst"
	"github.com/maseology/mmio"
)

const resultHeader = "date,month,f1,f3,f4,f5,f6,f7," +
	"soilstor,epxstor,ks1stor,ks2stor," +
	"soil18o,epx18o,ks118o,ks218o,dpdf," +
	"stal1d18o,stal2d18o,stal3d18o,stal4d18o,stal5d18o," +
	"drip_interval_ks2,drip_interval_epi,drip_interval_stal3,drip_interval_stal2,drip_interval_ks1," +
	"cave_temp,growth1,growth2,growth3,growth4,growth5"

// writeResults prints the monthly record to <prfx>results.csv together
// with the per-site drip interval series as float32 binaries.
func writeResults(prfx string, frc *forcing.Forcing, res []karst.Result) error {
	csvw := mmio.NewCSVwriter(prfx + "results.csv")
	defer csvw.Close()
	if err := csvw.WriteHead(resultHeader); err != nil {
		log.Fatalf(" model.writeResults: %v", err)
	}
	for j, r := range res {
		csvw.WriteLine(frc.T[j].Format("2006-01"), r.Month,
			r.F1, r.F3, r.F4, r.F5, r.F6, r.F7,
			r.Soil, r.Epik, r.KS1, r.KS2,
			r.Soil18O, r.Epik18O, r.KS118O, r.KS218O, r.Diffuse,
			r.Stal1, r.Stal2, r.Stal3, r.Stal4, r.Stal5,
			r.IntKS2, r.IntEpi, r.IntStal3, r.IntStal2, r.IntKS1,
			r.CaveTemp, r.Growth1, r.Growth2, r.Growth3, r.Growth4, r.Growth5)
	}

	ivs := map[string]func(*karst.Result) float64{
		"int_ks2":   func(r *karst.Result) float64 { return r.IntKS2 },
		"int_epi":   func(r *karst.Result) float64 { return r.IntEpi },
		"int_stal3": func(r *karst.Result) float64 { return r.IntStal3 },
		"int_stal2": func(r *karst.Result) float64 { return r.IntStal2 },
		"int_ks1":   func(r *karst.Result) float64 { return r.IntKS1 },
	}
	for nm, get := range ivs {
		f := make([]float64, len(res))
		for j := range res {
			f[j] = get(&res[j])
		}
		if err := writeFloats(prfx+nm+".bin", f); err != nil {
			return err
		}
	}
	return nil
}

func writeFloats(fp string, f []float64) error {
	f32 := make([]float32, len(f))
	for i, v := range f {
		f32[i] = float32(v)
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, f32); err != nil {
		return fmt.Errorf(" model.writeFloats: %v", err)
	}
	if err := os.WriteFile(fp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf(" model.writeFloats: %v", err)
	}
	return nil
}
