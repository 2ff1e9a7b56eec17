// esio-restart inspects restart containers and rotates restart files.
package main

import (
	"fmt"
	"os"
	"strings"

	humanize "github.com/dustin/go-humanize"
	flags "github.com/jessevdk/go-flags"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-esio/comm"
	"github.com/robert-malhotra/go-esio/esio"
	"github.com/robert-malhotra/go-esio/internal/container"
)

type inspectCmd struct {
	Args struct {
		File string `positional-arg-name:"FILE" description:"restart container to inspect"`
	} `positional-args:"yes" required:"yes"`
}

func (cmd *inspectCmd) Execute([]string) error {
	c, err := container.Open(cmd.Args.File, false, container.AccessProps{Comm: comm.Self()})
	if err != nil {
		return err
	}
	defer c.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Dataset", "Type", "Extents", "Size", "Attributes"})
	for _, name := range c.List() {
		d, err := c.OpenDataset(name)
		if err != nil {
			return err
		}
		dims := d.Space().Dims()
		extents := make([]string, len(dims))
		for i, dim := range dims {
			extents[i] = fmt.Sprint(dim)
		}
		attrs, err := c.AttrNames(name)
		if err != nil {
			return err
		}
		table.Append([]string{
			name,
			d.Type().String(),
			strings.Join(extents, " x "),
			humanize.IBytes(d.Size()),
			strings.Join(attrs, ", "),
		})
	}
	table.Render()
	return nil
}

type rotateCmd struct {
	Keep int `long:"keep" default:"1" description:"number of restart slots to retain"`

	Args struct {
		Src      string `positional-arg-name:"SRC" description:"freshly written restart file"`
		Template string `positional-arg-name:"TEMPLATE" description:"destination template with one '#' run"`
	} `positional-args:"yes" required:"yes"`
}

func (cmd *rotateCmd) Execute([]string) error {
	return esio.RestartRename(cmd.Args.Src, cmd.Args.Template, cmd.Keep)
}

func main() {
	// The library's default error handler aborts; the CLI prefers to
	// report through its own exit path.
	esio.SetErrorHandlerOff()

	parser := flags.NewParser(nil, flags.Default)
	if _, err := parser.AddCommand("inspect", "Inspect a restart container",
		"List the datasets, shapes, and attributes of a restart container.", &inspectCmd{}); err != nil {
		logrus.WithError(err).Fatal("registering inspect command")
	}
	if _, err := parser.AddCommand("rotate", "Rotate restart files",
		"Rename SRC into index 0 of TEMPLATE, shifting existing indices outward.", &rotateCmd{}); err != nil {
		logrus.WithError(err).Fatal("registering rotate command")
	}

	if _, err := parser.Parse(); err != nil {
		if flagErr, ok := err.(*flags.Error); ok && flagErr.Type == flags.ErrHelp {
			return
		}
		logrus.WithError(err).Fatal("esio-restart")
	}
}
