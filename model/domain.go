// Package model drives the karst reservoir network over a monthly
// forcing record, and samples or optimizes its parameters against an
// observed drip-water δ18O series.
package model

import (
	"fmt"

	"github.com/agriff86/karstolution/forcing"
	"github.com/agriff86/karstolution/karst"
)

// Domain pairs a parameterized reservoir network with its forcing
// record and initial condition. The zero Init is a dry, isotopically
// blank system.
type Domain struct {
	Cfg  karst.Config
	Frc  *forcing.Forcing
	Calc karst.CalciteFn
	Init *karst.State
}

func (d *Domain) check() error {
	if d.Frc == nil || d.Frc.Nstep() == 0 {
		return fmt.Errorf(" model: domain holds no forcings")
	}
	return nil
}

// initialState returns a fresh working state for one realization.
func (d *Domain) initialState() *karst.State {
	if d.Init != nil {
		return d.Init.Copy()
	}
	return karst.NewState(&d.Cfg)
}
