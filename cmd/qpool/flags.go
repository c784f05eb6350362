package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/qpool/qnnp"
)

// layerFlags holds the flag values shared by plan and run.
type layerFlags struct {
	batch    int
	input    string
	kernel   string
	stride   string
	dilation string
	padding  string
	channels int
	min, max uint
}

func (f *layerFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.batch, "batch", 1, "Batch size")
	cmd.Flags().StringVar(&f.input, "input", "8x8", "Input extent as HxW")
	cmd.Flags().StringVar(&f.kernel, "kernel", "2x2", "Pooling window as HxW")
	cmd.Flags().StringVar(&f.stride, "stride", "", "Stride as HxW (default: kernel)")
	cmd.Flags().StringVar(&f.dilation, "dilation", "1x1", "Dilation as HxW")
	cmd.Flags().StringVar(&f.padding, "padding", "0", "Padding as T,R,B,L or a single value for all sides")
	cmd.Flags().IntVar(&f.channels, "channels", 1, "Channels per pixel")
	cmd.Flags().UintVar(&f.min, "min", 0, "Output clamp minimum")
	cmd.Flags().UintVar(&f.max, "max", 255, "Output clamp maximum")
}

// layer is a parsed layer description.
type layer struct {
	batch, height, width int
	params               qnnp.MaxPoolingParams
}

func (f *layerFlags) parse() (layer, error) {
	var l layer
	var err error

	if l.height, l.width, err = parseExtent(f.input); err != nil {
		return l, fmt.Errorf("--input: %w", err)
	}
	p := &l.params
	if p.KernelHeight, p.KernelWidth, err = parseExtent(f.kernel); err != nil {
		return l, fmt.Errorf("--kernel: %w", err)
	}
	p.StrideHeight, p.StrideWidth = p.KernelHeight, p.KernelWidth
	if f.stride != "" {
		if p.StrideHeight, p.StrideWidth, err = parseExtent(f.stride); err != nil {
			return l, fmt.Errorf("--stride: %w", err)
		}
	}
	if p.DilationHeight, p.DilationWidth, err = parseExtent(f.dilation); err != nil {
		return l, fmt.Errorf("--dilation: %w", err)
	}
	if p.Padding, err = parsePadding(f.padding); err != nil {
		return l, fmt.Errorf("--padding: %w", err)
	}
	if f.min > 255 || f.max > 255 {
		return l, fmt.Errorf("--min/--max: output clamp must fit in a byte")
	}

	p.Channels = f.channels
	p.OutputMin, p.OutputMax = uint8(f.min), uint8(f.max)
	l.batch = f.batch
	return l, nil
}

// parseExtent parses "HxW", or a single number for a square extent.
func parseExtent(s string) (int, int, error) {
	hs, ws, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		ws = hs
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid extent %q", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid extent %q", s)
	}
	return h, w, nil
}

// parsePadding parses "T,R,B,L", "V,H", or a single value.
func parsePadding(s string) (qnnp.Padding, error) {
	parts := strings.Split(s, ",")
	vals := make([]int, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return qnnp.Padding{}, fmt.Errorf("invalid padding %q", s)
		}
		vals[i] = v
	}

	switch len(vals) {
	case 1:
		return qnnp.Padding{Top: vals[0], Right: vals[0], Bottom: vals[0], Left: vals[0]}, nil
	case 2:
		return qnnp.Padding{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}, nil
	case 4:
		return qnnp.Padding{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}, nil
	default:
		return qnnp.Padding{}, fmt.Errorf("invalid padding %q: want 1, 2 or 4 values", s)
	}
}
