// zernigo-info prints which backend zernigo selects in the current
// environment, the device it lands on and the memory available to it. It is
// the diagnostic for "why did my program fall back to the portable backend?".
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/YigitElma/zernigo/backends"
	_ "github.com/YigitElma/zernigo/backends/blas"
	_ "github.com/YigitElma/zernigo/backends/numgo"
)

var configString string

var rootCmd = &cobra.Command{
	Use:   "zernigo-info",
	Short: "Show the zernigo backend selected in this environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configString != "" {
			backends.DefaultConfig = configString
		}
		backend, err := backends.New()
		if err != nil {
			return err
		}
		defer backend.Finalize()

		device := backends.Device()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Registered backends:\t%q\n", backends.List())
		fmt.Fprintf(w, "Selected backend:\t%s (%s)\n", backend.Name(), backend.Description())
		fmt.Fprintf(w, "Accelerated:\t%v\n", backend.Accelerated())
		fmt.Fprintf(w, "Device:\t%s\n", device)
		fmt.Fprintf(w, "CPU devices:\t%d\n", backend.NumDevices(backends.DeviceCPU))
		fmt.Fprintf(w, "GPU devices:\t%d\n", backend.NumDevices(backends.DeviceGPU))
		return w.Flush()
	},
}

func main() {
	klog.InitFlags(nil)
	rootCmd.Flags().StringVarP(&configString, "backend", "b", "",
		`backend configuration, "<name>:<device>" (e.g. "blas:gpu"); overridden by $`+backends.ConfigEnvVar)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
