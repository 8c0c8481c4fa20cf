package model

import (
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"time"

	"github.com/maseology/glbopt"
	mrg63k3a "github.com/maseology/goRNG/MRG63k3a"
)

func mrg63k3aSource() rand.Source { return mrg63k3a.New() }

// Optimize calibrates the sampled parameter subset with the shuffled
// complex evolution search, returning the best objective value (1-KGE)
// and the optimal parameters in par8 order.
func (d *Domain) Optimize() (float64, []float64) {
	if err := d.check(); err != nil {
		log.Fatalf(" model.Optimize: %v", err)
	}
	if !d.Frc.HasObs() {
		log.Fatalf(" model.Optimize: no drip-water observations to calibrate against")
	}

	rng := rand.New(mrg63k3aSource())
	rng.Seed(time.Now().UnixNano())

	fmt.Println(" optimizing..")
	uFinal, _ := glbopt.SCE(runtime.GOMAXPROCS(0), nSmplDim, rng, d.objective, true)

	f1, f3, f5, f6, kdif, f8, lambda, kweib := par8(uFinal)
	fmt.Printf("\nfinal parameters:\n\tf1:\t\t%v\n\tf3:\t\t%v\n\tf5:\t\t%v\n\tf6:\t\t%v\n\tk_diffuse:\t%v\n\tf8:\t\t%v\n\tlambda:\t\t%v\n\tk_weibull:\t%v\n\n",
		f1, f3, f5, f6, kdif, f8, lambda, kweib)
	return d.objective(uFinal), []float64{f1, f3, f5, f6, kdif, f8, lambda, kweib}
}
