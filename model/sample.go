package model

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/maseology/mmaths"
	"github.com/maseology/mmio"
	"github.com/maseology/montecarlo/smpln"
	"github.com/maseology/objfunc"
)

const nSmplDim = 8

// par8 maps a unit hypercube sample onto the calibrated subset of the
// network parameters: the principal flow coefficients and the lag
// kernel shape.
func par8(u []float64) (f1, f3, f5, f6, kdif, f8, lambda, kweib float64) {
	f1 = mmaths.LogLinearTransform(1e-4, 1., u[0])
	f3 = mmaths.LogLinearTransform(1e-4, 1., u[1])
	f5 = mmaths.LogLinearTransform(1e-4, 1., u[2])
	f6 = mmaths.LogLinearTransform(1e-4, 1., u[3])
	kdif = mmaths.LogLinearTransform(1e-4, 1., u[4])
	f8 = mmaths.LinearTransform(0., 1., u[5])
	lambda = mmaths.LinearTransform(0.2, 2., u[6]) // kernel scale spans the [0,2] lag support
	kweib = mmaths.LinearTransform(0.5, 4., u[7])
	return
}

// toSample applies a parameter vector to a copy of the domain's
// configuration.
func (d *Domain) toSample(u []float64) Domain {
	f1, f3, f5, f6, kdif, f8, lambda, kweib := par8(u)
	cfg := d.Cfg
	cfg.F1, cfg.F3, cfg.F5, cfg.F6, cfg.KDiffuse, cfg.F8 = f1, f3, f5, f6, kdif, f8
	cfg.LambdaWeibull, cfg.KWeibull = lambda, kweib
	return Domain{Cfg: cfg, Frc: d.Frc, Calc: d.Calc, Init: d.Init}
}

// objective returns 1-KGE of the simulated drip-water δ18O against the
// observed series; failed realizations are heavily penalized.
func (d *Domain) objective(u []float64) float64 {
	smpl := d.toSample(u)
	res, err := smpl.Run("", false)
	if err != nil {
		return 9999.
	}
	o, s := pairObs(d.Frc.Obs, simSeries(res))
	of := 1. - objfunc.KGE(o, s)
	if math.IsNaN(of) {
		return 9999.
	}
	return of
}

// Sample draws a latin hypercube over the calibrated parameters,
// evaluates every realization against the observed drip-water series
// and writes the ranked outcome to <outdirprfx>sample.csv.
func (d *Domain) Sample(outdirprfx string, nsmpl int) {
	if err := d.check(); err != nil {
		log.Fatalf(" model.Sample: %v", err)
	}
	if !d.Frc.HasObs() {
		log.Fatalf(" model.Sample: no drip-water observations to evaluate against")
	}

	rng := rand.New(mrg63k3aSource())
	rng.Seed(time.Now().UnixNano())

	tt := mmio.NewTimer()
	fmt.Printf(" running %d samples from %d dimensions..\n", nsmpl, nSmplDim)

	us := make([][]float64, nsmpl)
	ofs := make([]float64, nsmpl)
	sp := smpln.NewLHC(rng, nsmpl, nSmplDim, false)
	for k := 0; k < nsmpl; k++ {
		ut := make([]float64, nSmplDim)
		for j := 0; j < nSmplDim; j++ {
			ut[j] = sp.U[j][k]
		}
		us[k] = ut
		ofs[k] = d.objective(ut)
		fmt.Print(".")
	}
	tt.Lap("\nsampling complete")

	rank := make([]int, nsmpl)
	for i := range rank {
		rank[i] = i
	}
	sort.Slice(rank, func(i, j int) bool { return ofs[rank[i]] < ofs[rank[j]] })

	t, err := mmio.NewTXTwriter(outdirprfx + "sample.csv")
	if err != nil {
		log.Fatalf(" model.Sample: %s save error: %v", outdirprfx+"sample.csv", err)
	}
	t.WriteLine(fmt.Sprintf("rank(of %d),KGE,f1,f3,f5,f6,k_diffuse,f8,lambda,k_weibull", nsmpl))
	for i, dd := range rank {
		f1, f3, f5, f6, kdif, f8, lambda, kweib := par8(us[dd])
		t.WriteLine(fmt.Sprintf("%d,%f,%f,%f,%f,%f,%f,%f,%f,%f",
			i+1, 1.-ofs[dd], f1, f3, f5, f6, kdif, f8, lambda, kweib))
	}
	t.Close()
	tt.Lap("results save complete")
}
