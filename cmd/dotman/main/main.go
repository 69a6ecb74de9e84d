package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/dotman/cmd/dotman"
	"github.com/arthur-debert/dotman/pkg/ui"
	"github.com/arthur-debert/dotman/pkg/ui/styles"
)

func main() {
	rootCmd := dotman.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		// Unrecoverable link failures get their own style from the renderer
		renderer, rerr := ui.NewRenderer(ui.FormatAuto, os.Stderr)
		if rerr != nil || renderer.RenderError(err) != nil {
			errorStyle := styles.GetStyle("Error")
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		}
		os.Exit(1)
	}
}
