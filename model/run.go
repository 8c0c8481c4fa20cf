package model

import (
	"fmt"
	"math"

	"github.com/agriff86/karstolution/evap"
	"github.com/agriff86/karstolution/karst"
	"github.com/gosuri/uiprogress"
	"github.com/maseology/objfunc"
)

// Run steps the network over the full forcing record and returns one
// Result per month. Missing evapotranspiration is estimated from the
// cave evaporation model under that month's cave climate. When
// outdirprfx is given, the full record and the per-site drip interval
// series are written to file; print adds a progress bar and, when
// observations are present, a fit summary.
func (d *Domain) Run(outdirprfx string, print bool) ([]karst.Result, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	p, err := karst.New(d.Cfg, d.Calc)
	if err != nil {
		return nil, err
	}
	st := d.initialState()

	nt := d.Frc.Nstep()
	res := make([]karst.Result, nt)

	var bar *uiprogress.Bar
	if print {
		uiprogress.Start()
		bar = uiprogress.AddBar(nt).AppendCompleted().PrependElapsed()
	}
	for j, t := range d.Frc.T {
		if j > 0 {
			st.Shift()
		}
		mm := int(t.Month())
		evpt := d.Frc.Evpt[j]
		if math.IsNaN(evpt) {
			evpt = evap.Flux(d.Frc.Tsfc[j], d.Cfg.MF.RelHumidity[mm-1], d.Cfg.MF.Ventilation[mm-1])
		}
		in := karst.Input{
			Step: j, Month: mm,
			Prp: d.Frc.Prp[j], Evpt: evpt,
			SurfTemp: d.Frc.Tsfc[j], CaveTemp: d.Frc.Tcave[j],
			D18O: d.Frc.D18O[j],
		}
		if res[j], err = p.Step(in, st); err != nil {
			if print {
				uiprogress.Stop()
			}
			return nil, fmt.Errorf(" model.Run: step %d (%s): %v", j, t.Format("2006-01"), err)
		}
		if print {
			bar.Incr()
		}
	}
	if print {
		uiprogress.Stop()
	}

	if len(outdirprfx) > 0 {
		if err := writeResults(outdirprfx, d.Frc, res); err != nil {
			return nil, err
		}
	}
	if print && d.Frc.HasObs() {
		reportFit(d.Frc.Obs, simSeries(res))
	}
	return res, nil
}

// simSeries extracts the simulated series compared against drip-water
// observations: the δ18O of the KS1 store feeding the central drip.
func simSeries(res []karst.Result) []float64 {
	sim := make([]float64, len(res))
	for i, r := range res {
		sim[i] = r.KS118O
	}
	return sim
}

// pairObs drops months with no observation.
func pairObs(obs, sim []float64) (o, s []float64) {
	for i := range obs {
		if math.IsNaN(obs[i]) {
			continue
		}
		o = append(o, obs[i])
		s = append(s, sim[i])
	}
	return
}

func reportFit(obs, sim []float64) {
	o, s := pairObs(obs, sim)
	if len(o) == 0 {
		return
	}
	fmt.Printf(" fit to %d observations:\n", len(o))
	fmt.Printf("  KGE: %.5f\n", objfunc.KGE(o, s))
	fmt.Printf("  NSE: %.5f\n", objfunc.NSE(o, s))
	fmt.Printf("  RMSE: %.5f\n", objfunc.RMSE(o, s))
	fmt.Printf("  bias: %.5f\n", objfunc.Bias(o, s))
}
