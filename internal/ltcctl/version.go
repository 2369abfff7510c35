package ltcctl

import (
	"fmt"
	"text/tabwriter"

	"github.com/tinarmengineering/ltc/internal/ltcctl/build"
)

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	a.outMutex.Lock()
	defer a.outMutex.Unlock()

	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
	return nil
}
