package cli

import (
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/mithrel/msgbus/internal/present"
)

const defaultPager = "less -FRSX"

// withPager pipes write's output through $PAGER when stdout is a terminal.
func withPager(cmd *cobra.Command, write func(io.Writer) error) error {
	out := cmd.OutOrStdout()
	outFile, ok := out.(*os.File)
	if !ok || !present.IsTerminal(out) {
		return write(out)
	}
	pager := os.Getenv("PAGER")
	if pager == "" {
		pager = defaultPager
	}
	pc := exec.CommandContext(cmd.Context(), "sh", "-c", pager)
	pc.Stdout = outFile
	if errFile, ok := cmd.ErrOrStderr().(*os.File); ok {
		pc.Stderr = errFile
	} else {
		pc.Stderr = os.Stderr
	}
	stdin, err := pc.StdinPipe()
	if err != nil {
		return write(out)
	}
	if err := pc.Start(); err != nil {
		return write(out)
	}
	writeErr := write(stdin)
	_ = stdin.Close()
	waitErr := pc.Wait()
	if writeErr != nil {
		return writeErr
	}
	return waitErr
}
