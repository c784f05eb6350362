package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/qpool/internal/envconfig"
	"github.com/born-ml/qpool/internal/tensor"
	"github.com/born-ml/qpool/qnnp"
)

// NewCLI builds the qpool command tree.
func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "qpool",
		Short:         "Quantized max-pooling planner",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	var planFlags layerFlags
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Show output geometry and indirection sizing for a layer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return PlanHandler(cmd.OutOrStdout(), planFlags)
		},
	}
	planFlags.register(planCmd)

	var runFlags layerFlags
	var seed uint64
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Pool a random input and print the first channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return RunHandler(cmd.OutOrStdout(), runFlags, seed)
		},
	}
	runFlags.register(runCmd)
	runCmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed for the input")

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Show configuration read from the environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return EnvHandler(cmd.OutOrStdout())
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "qpool %s\n", version)
		},
	}

	rootCmd.AddCommand(planCmd, runCmd, envCmd, versionCmd)
	return rootCmd
}

// setupLayer creates and sets up an operator for l over a zeroed input.
func setupLayer(l layer, pool *qnnp.ThreadPool) (*qnnp.MaxPooling, []uint8, []uint8, error) {
	ctx, err := qnnp.Initialize(qnnp.ConfigFromEnv())
	if err != nil {
		return nil, nil, nil, err
	}

	op, err := qnnp.CreateMaxPooling2D(ctx, l.params)
	if err != nil {
		return nil, nil, nil, err
	}

	c := l.params.Channels
	in := make([]uint8, tensor.NHWC{Batch: max(l.batch, 0), Height: max(l.height, 0), Width: max(l.width, 0), Channels: c}.MinLen(c))
	out := make([]uint8, outputLen(l))

	if err := op.Setup(l.batch, l.height, l.width, qnnp.Pixels{Data: in, Stride: c}, qnnp.Pixels{Data: out, Stride: c}, pool); err != nil {
		op.Delete()
		return nil, nil, nil, err
	}
	return op, in, out, nil
}

// outputLen sizes the output buffer before Setup has derived the geometry.
// Invalid layers get an empty buffer and are rejected by Setup.
func outputLen(l layer) int {
	p := l.params
	if p.StrideHeight <= 0 || p.StrideWidth <= 0 || p.DilationHeight <= 0 || p.DilationWidth <= 0 {
		return 0
	}
	ph := p.Padding.Top + l.height + p.Padding.Bottom
	pw := p.Padding.Left + l.width + p.Padding.Right
	eh := (p.KernelHeight-1)*p.DilationHeight + 1
	ew := (p.KernelWidth-1)*p.DilationWidth + 1
	if ph < eh || pw < ew || l.batch <= 0 || p.Channels <= 0 {
		return 0
	}
	oh := (ph-eh)/p.StrideHeight + 1
	ow := (pw-ew)/p.StrideWidth + 1
	return l.batch * oh * ow * p.Channels
}

// PlanHandler prints the geometry and indirection table sizing of a layer.
func PlanHandler(w io.Writer, f layerFlags) error {
	l, err := f.parse()
	if err != nil {
		return err
	}

	op, _, _, err := setupLayer(l, nil)
	if err != nil {
		return err
	}
	defer op.Delete()

	layout := op.Layout()
	p := op.Params()
	data := [][]string{
		{"input", op.InputShape().String()},
		{"output", op.OutputShape().String()},
		{"kernel", fmt.Sprintf("%dx%d", p.KernelHeight, p.KernelWidth)},
		{"stride", fmt.Sprintf("%dx%d", p.StrideHeight, p.StrideWidth)},
		{"dilation", fmt.Sprintf("%dx%d", p.DilationHeight, p.DilationWidth)},
		{"padding", fmt.Sprintf("%d,%d,%d,%d", p.Padding.Top, p.Padding.Right, p.Padding.Bottom, p.Padding.Left)},
		{"format", op.Format().String()},
		{"width step", strconv.Itoa(layout.WidthStep)},
		{"slots per row", strconv.Itoa(layout.RowSlots)},
		{"entries", strconv.Itoa(layout.Entries)},
		{"overread", strconv.Itoa(layout.Overread)},
		{"total", strconv.Itoa(layout.Total())},
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"PROPERTY", "VALUE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	return nil
}

// RunHandler pools a random input and prints channel 0 of every image.
func RunHandler(w io.Writer, f layerFlags, seed uint64) error {
	l, err := f.parse()
	if err != nil {
		return err
	}

	pool := qnnp.NewThreadPool(envconfig.NumThreads())
	op, in, out, err := setupLayer(l, pool)
	if err != nil {
		return err
	}
	defer op.Delete()

	rng := rand.New(rand.NewPCG(seed, seed))
	for i := range in {
		in[i] = uint8(rng.UintN(256))
	}
	if err := op.Run(nil); err != nil {
		return err
	}

	shape := op.OutputShape()
	for n := 0; n < shape.Batch; n++ {
		fmt.Fprintf(w, "image %d\n", n)

		table := tablewriter.NewWriter(w)
		table.SetBorder(false)
		table.SetAlignment(tablewriter.ALIGN_RIGHT)
		table.SetNoWhiteSpace(true)
		table.SetTablePadding(" ")
		for y := 0; y < shape.Height; y++ {
			row := make([]string, shape.Width)
			for x := range row {
				row[x] = strconv.Itoa(int(out[shape.PixelOffset(n, y, x, shape.Channels)]))
			}
			table.Append(row)
		}
		table.Render()
	}
	return nil
}

// EnvHandler prints the QPOOL_* configuration.
func EnvHandler(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"NAME", "VALUE", "DESCRIPTION"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")

	vars := envconfig.AsMap()
	for _, k := range []string{"QPOOL_DEBUG", "QPOOL_EAGER_SETUP", "QPOOL_MAX_INDIRECTION_ENTRIES", "QPOOL_NUM_THREADS", "QPOOL_UKERNEL"} {
		v := vars[k]
		table.Append([]string{v.Name, fmt.Sprintf("%v", v.Value), v.Description})
	}
	table.Render()
	return nil
}
