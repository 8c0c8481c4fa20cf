package main

import (
	"os"

	"github.com/agriff86/karstolution"
	"github.com/agriff86/karstolution/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	sugar  *zap.SugaredLogger
	outdir string
	nsmpl  int
)

func loadDomain(projFP string) *model.Domain {
	d, err := karstolution.LoadProject(projFP)
	if err != nil {
		sugar.Fatalf("%v", err)
	}
	sugar.Infow("project loaded", "file", projFP, "months", d.Frc.Nstep())
	return d
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	sugar = logger.Sugar()

	root := &cobra.Command{
		Use:   "karstolution",
		Short: "monthly karst water balance and drip-water δ18O simulation",
	}
	root.PersistentFlags().StringVarP(&outdir, "out", "o", "", "output file prefix")

	runCmd := &cobra.Command{
		Use:   "run <project-file>",
		Short: "run the simulation over the full forcing record",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			d := loadDomain(args[0])
			if _, err := d.Run(outdir, true); err != nil {
				sugar.Fatalf("%v", err)
			}
			sugar.Info("run complete")
		},
	}

	sampleCmd := &cobra.Command{
		Use:   "sample <project-file>",
		Short: "latin hypercube sample of the calibrated parameters",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			loadDomain(args[0]).Sample(outdir, nsmpl)
			sugar.Info("sampling complete")
		},
	}
	sampleCmd.Flags().IntVarP(&nsmpl, "nsmpl", "n", 100, "number of samples")

	optimizeCmd := &cobra.Command{
		Use:   "optimize <project-file>",
		Short: "calibrate against the observed drip-water series",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			of, pars := loadDomain(args[0]).Optimize()
			sugar.Infow("optimization complete", "1-KGE", of, "parameters", pars)
		},
	}

	root.AddCommand(runCmd, sampleCmd, optimizeCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
