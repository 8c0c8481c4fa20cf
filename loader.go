// Package karstolution assembles a drip-water simulation from a
// project file: the reservoir network parameters, the monthly cave
// climate tables and the path to the forcing record.
package karstolution

import (
	"fmt"
	"path/filepath"

	"github.com/agriff86/karstolution/forcing"
	"github.com/agriff86/karstolution/karst"
	"github.com/agriff86/karstolution/model"
	"github.com/spf13/viper"
)

type monthlyFile struct {
	DriprateFull  []float64 `mapstructure:"driprate_full"`
	DriprateEmpty []float64 `mapstructure:"driprate_empty"`
	DripInterval  []float64 `mapstructure:"drip_interval"`
	DripPCO2      []float64 `mapstructure:"drip_pco2"`
	CavePCO2      []float64 `mapstructure:"cave_pco2"`
	RelHumidity   []float64 `mapstructure:"rel_humidity"`
	Ventilation   []float64 `mapstructure:"ventilation"`
}

type initialFile struct {
	Soilstore float64 `mapstructure:"soilstore"`
	Epikarst  float64 `mapstructure:"epikarst"`
	KS1       float64 `mapstructure:"ks1"`
	KS2       float64 `mapstructure:"ks2"`
	SoilD18O  float64 `mapstructure:"soil_d18o"`
	EpikD18O  float64 `mapstructure:"epikarst_d18o"`
	KS1D18O   float64 `mapstructure:"ks1_d18o"`
	KS2D18O   float64 `mapstructure:"ks2_d18o"`
}

type projFile struct {
	Soilstore float64 `mapstructure:"soilstore"`
	Epikarst  float64 `mapstructure:"epikarst"`
	KS1       float64 `mapstructure:"ks1"`
	KS2       float64 `mapstructure:"ks2"`
	Epicap    float64 `mapstructure:"epicap"`
	Ovicap    float64 `mapstructure:"ovicap"`

	F1       float64 `mapstructure:"f1"`
	F3       float64 `mapstructure:"f3"`
	F4       float64 `mapstructure:"f4"`
	F5       float64 `mapstructure:"f5"`
	F6       float64 `mapstructure:"f6"`
	F7       float64 `mapstructure:"f7"`
	F8       float64 `mapstructure:"f8"`
	KDiffuse float64 `mapstructure:"k_diffuse"`

	KEEvap    float64 `mapstructure:"k_eevap"`
	KD18OSoil float64 `mapstructure:"k_d18o_soil"`
	KD18OEpi  float64 `mapstructure:"k_d18o_epi"`

	I float64 `mapstructure:"i"`
	J float64 `mapstructure:"j"`
	K float64 `mapstructure:"k"`
	M float64 `mapstructure:"m"`
	N float64 `mapstructure:"n"`

	AreaRatio     float64 `mapstructure:"area_ratio"`
	LambdaWeibull float64 `mapstructure:"lambda_weibull"`
	KWeibull      float64 `mapstructure:"k_weibull"`
	DelayMonths   int     `mapstructure:"weibull_delay_months"`
	Phi           float64 `mapstructure:"mixing_parameter_phi"`

	NewTracerMixing bool `mapstructure:"use_new_tracer_mixing_code"`
	NewF8Routing    bool `mapstructure:"use_new_f8_routing"`
	NewWeibull      bool `mapstructure:"use_new_weibull_definition"`
	CalcDrip        bool `mapstructure:"calculate_drip"`
	CalcCalcite     bool `mapstructure:"calculate_isotope_calcite"`

	Forcing string      `mapstructure:"forcing"`
	Monthly monthlyFile `mapstructure:"monthly_forcing"`
	Initial initialFile `mapstructure:"initial"`
}

func monthly(name string, s []float64) ([12]float64, error) {
	var a [12]float64
	if len(s) != 12 {
		return a, fmt.Errorf(" monthly_forcing.%s holds %d values, need 12", name, len(s))
	}
	copy(a[:], s)
	return a, nil
}

// LoadProject reads a project file (TOML, YAML or JSON by extension)
// and returns the assembled domain, its forcing loaded from the path
// named within (resolved against the project file's directory). The
// fractionation model is attached by the caller.
func LoadProject(fp string) (*model.Domain, error) {
	v := viper.New()
	v.SetConfigFile(fp)
	v.SetDefault("weibull_delay_months", 12)
	v.SetDefault("area_ratio", 1.)
	v.SetDefault("use_new_tracer_mixing_code", true)
	v.SetDefault("use_new_f8_routing", true)
	v.SetDefault("use_new_weibull_definition", true)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf(" karstolution.LoadProject: %v", err)
	}
	var pf projFile
	if err := v.Unmarshal(&pf); err != nil {
		return nil, fmt.Errorf(" karstolution.LoadProject: %v", err)
	}

	cfg := karst.Config{
		SoilSize: pf.Soilstore, EpiSize: pf.Epikarst, KS1Size: pf.KS1, KS2Size: pf.KS2,
		EpiOv: pf.Epicap, OvCap: pf.Ovicap,
		F1: pf.F1, F3: pf.F3, F4: pf.F4, F5: pf.F5, F6: pf.F6, F7: pf.F7, F8: pf.F8,
		KDiffuse: pf.KDiffuse,
		KEEvap:   pf.KEEvap, KD18OSoil: pf.KD18OSoil, KD18OEpi: pf.KD18OEpi,
		I: pf.I, J: pf.J, K: pf.K, M: pf.M, N: pf.N,
		AreaRatio:     pf.AreaRatio,
		LambdaWeibull: pf.LambdaWeibull, KWeibull: pf.KWeibull,
		DelayMonths: pf.DelayMonths, Phi: pf.Phi,
		NewTracerMixing: pf.NewTracerMixing, NewF8Routing: pf.NewF8Routing,
		NewWeibull: pf.NewWeibull, CalcDrip: pf.CalcDrip, CalcCalcite: pf.CalcCalcite,
	}
	var err error
	for _, t := range []struct {
		nm  string
		dst *[12]float64
		src []float64
	}{
		{"driprate_full", &cfg.MF.DriprateFull, pf.Monthly.DriprateFull},
		{"driprate_empty", &cfg.MF.DriprateEmpty, pf.Monthly.DriprateEmpty},
		{"drip_interval", &cfg.MF.DripInterval, pf.Monthly.DripInterval},
		{"drip_pco2", &cfg.MF.DripPCO2, pf.Monthly.DripPCO2},
		{"cave_pco2", &cfg.MF.CavePCO2, pf.Monthly.CavePCO2},
		{"rel_humidity", &cfg.MF.RelHumidity, pf.Monthly.RelHumidity},
		{"ventilation", &cfg.MF.Ventilation, pf.Monthly.Ventilation},
	} {
		if *t.dst, err = monthly(t.nm, t.src); err != nil {
			return nil, fmt.Errorf(" karstolution.LoadProject: %v", err)
		}
	}

	if len(pf.Forcing) == 0 {
		return nil, fmt.Errorf(" karstolution.LoadProject: no forcing file named")
	}
	ffp := pf.Forcing
	if !filepath.IsAbs(ffp) {
		ffp = filepath.Join(filepath.Dir(fp), ffp)
	}
	frc, err := forcing.LoadCSV(ffp)
	if err != nil {
		return nil, fmt.Errorf(" karstolution.LoadProject: %v", err)
	}

	st := karst.NewState(&cfg)
	st.Soil, st.Epik, st.KS1, st.KS2 = pf.Initial.Soilstore, pf.Initial.Epikarst, pf.Initial.KS1, pf.Initial.KS2
	st.Soil18O, st.Epik18O, st.KS118O, st.KS218O = pf.Initial.SoilD18O, pf.Initial.EpikD18O, pf.Initial.KS1D18O, pf.Initial.KS2D18O

	return &model.Domain{Cfg: cfg, Frc: frc, Init: st}, nil
}
