// Command lnbench benchmarks the layer-normalization kernel.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/cpu"

	"github.com/lth/pure-go-layernorm/internal/tensorio"
	"github.com/lth/pure-go-layernorm/pkg/layernorm"
	"github.com/lth/pure-go-layernorm/pkg/tensor"
)

var (
	shapeFlag  = flag.String("shape", "512,768", "Input shape as comma-separated dims (ignored with -input)")
	dtypeFlag  = flag.String("dtype", "f32", "Element type: f32 or f64 (ignored with -input)")
	inputFlag  = flag.String("input", "", "Path to a tensor file to normalize instead of random data")
	axisFlag   = flag.Int("axis", -1, "Split axis")
	epsFlag    = flag.Float64("eps", 1e-5, "Epsilon")
	simplified = flag.Bool("simplified", false, "Use simplified (RMS) normalization")
	workers    = flag.Int("workers", 0, "Worker pool size (0 = GOMAXPROCS)")
	iters      = flag.Int("iters", 100, "Timed iterations")
	seed       = flag.Int64("seed", 42, "Random seed for generated data")
	withStats  = flag.Bool("stats", false, "Also materialize mean and inv_std_dev outputs")
)

func main() {
	flag.Parse()

	x, err := loadOrGenerate()
	if err != nil {
		log.Fatalf("Failed to prepare input: %v", err)
	}

	axis, normSize, err := rowSize(x, *axisFlag)
	if err != nil {
		log.Fatalf("Invalid axis: %v", err)
	}

	scale, bias, err := onesAndZeros(x.DType(), normSize)
	if err != nil {
		log.Fatalf("Failed to build scale/bias: %v", err)
	}

	op := layernorm.New(
		layernorm.WithAxis(*axisFlag),
		layernorm.WithEpsilon(float32(*epsFlag)),
		layernorm.WithSimplified(*simplified),
		layernorm.WithWorkers(*workers),
	)
	defer op.Close()

	var want layernorm.Outputs
	if *withStats {
		want = layernorm.WantMean | layernorm.WantInvStdDev
	}

	printEnvironment()
	fmt.Printf("Input: shape=%v dtype=%s axis=%d (norm_size=%d) simplified=%v workers=%d\n\n",
		x.Shape(), x.DType(), axis, normSize, *simplified, poolSize())

	// Warmup
	if _, err := op.Compute(x, scale, bias, want); err != nil {
		log.Fatalf("Compute failed: %v", err)
	}

	rows := x.NumElements() / normSize
	bytes := int64(x.NumElements()) * int64(x.DType().Size()) * 2 // read + write

	cpuStart := cpuTimeNow()
	start := time.Now()
	for i := 0; i < *iters; i++ {
		if _, err := op.Compute(x, scale, bias, want); err != nil {
			log.Fatalf("Compute failed: %v", err)
		}
	}
	wall := time.Since(start)
	cpuUsed := cpuTimeNow() - cpuStart

	perIter := wall / time.Duration(*iters)
	fmt.Printf("Iterations:   %d\n", *iters)
	fmt.Printf("Wall time:    %v total, %v/iter\n", wall, perIter)
	fmt.Printf("CPU time:     %v total\n", cpuUsed)
	fmt.Printf("Rows/s:       %.0f\n", float64(rows)*float64(*iters)/wall.Seconds())
	fmt.Printf("Throughput:   %.2f GB/s\n", float64(bytes)*float64(*iters)/wall.Seconds()/1e9)
}

func loadOrGenerate() (*tensor.Tensor, error) {
	if *inputFlag != "" {
		return tensorio.Load(*inputFlag)
	}

	shape, err := parseShape(*shapeFlag)
	if err != nil {
		return nil, err
	}
	n := 1
	for _, d := range shape {
		n *= d
	}

	rng := rand.New(rand.NewSource(*seed))
	switch *dtypeFlag {
	case "f32":
		data := make([]float32, n)
		for i := range data {
			data[i] = rng.Float32()*2 - 1
		}
		return tensor.FromFloat32(shape, data)
	case "f64":
		data := make([]float64, n)
		for i := range data {
			data[i] = rng.Float64()*2 - 1
		}
		return tensor.FromFloat64(shape, data)
	default:
		return nil, fmt.Errorf("unknown dtype %q", *dtypeFlag)
	}
}

func parseShape(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	shape := make([]int, 0, len(parts))
	for _, part := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("bad dimension %q", part)
		}
		shape = append(shape, d)
	}
	if len(shape) == 0 {
		return nil, fmt.Errorf("empty shape")
	}
	return shape, nil
}

func rowSize(x *tensor.Tensor, axis int) (resolved, normSize int, err error) {
	resolved = axis
	if resolved < 0 {
		resolved += x.Rank()
	}
	if resolved < 0 || resolved >= x.Rank() {
		return 0, 0, fmt.Errorf("axis %d out of range for rank %d", axis, x.Rank())
	}
	normSize = 1
	for _, d := range x.Shape()[resolved:] {
		normSize *= d
	}
	return resolved, normSize, nil
}

func onesAndZeros(dtype tensor.DType, n int) (scale, bias *tensor.Tensor, err error) {
	switch dtype {
	case tensor.DTypeF32:
		ones := make([]float32, n)
		for i := range ones {
			ones[i] = 1
		}
		scale, err = tensor.FromFloat32([]int{n}, ones)
		if err != nil {
			return nil, nil, err
		}
		bias, err = tensor.FromFloat32([]int{n}, make([]float32, n))
		return scale, bias, err
	case tensor.DTypeF64:
		ones := make([]float64, n)
		for i := range ones {
			ones[i] = 1
		}
		scale, err = tensor.FromFloat64([]int{n}, ones)
		if err != nil {
			return nil, nil, err
		}
		bias, err = tensor.FromFloat64([]int{n}, make([]float64, n))
		return scale, bias, err
	default:
		return nil, nil, fmt.Errorf("unsupported dtype %s", dtype)
	}
}

func poolSize() int {
	if *workers > 0 {
		return *workers
	}
	return runtime.GOMAXPROCS(0)
}

func printEnvironment() {
	fmt.Printf("Host: %s/%s, GOMAXPROCS=%d, NumCPU=%d\n",
		runtime.GOOS, runtime.GOARCH, runtime.GOMAXPROCS(0), runtime.NumCPU())
	switch runtime.GOARCH {
	case "amd64":
		fmt.Printf("CPU features: AVX2=%v AVX512F=%v FMA=%v\n", cpu.X86.HasAVX2, cpu.X86.HasAVX512F, cpu.X86.HasFMA)
	case "arm64":
		fmt.Printf("CPU features: ASIMD=%v SVE=%v\n", cpu.ARM64.HasASIMD, cpu.ARM64.HasSVE)
	}
}
