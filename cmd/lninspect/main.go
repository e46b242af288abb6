// Command lninspect inspects tensor container files
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/lth/pure-go-layernorm/internal/tensorio"
	"github.com/lth/pure-go-layernorm/pkg/tensor"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <tensor.lnt>\n", os.Args[0])
		os.Exit(1)
	}

	path := os.Args[1]

	t, err := tensorio.Load(path)
	if err != nil {
		log.Fatalf("Failed to open tensor file: %v", err)
	}

	fmt.Printf("Tensor File: %s\n", path)
	fmt.Printf("DType: %s\n", t.DType())
	fmt.Printf("Shape: %v\n", t.Shape())
	fmt.Printf("Elements: %d (%d bytes)\n\n", t.NumElements(), t.NumElements()*t.DType().Size())

	fmt.Println("=== First values ===")
	limit := t.NumElements()
	if limit > 10 {
		limit = 10
	}
	switch t.DType() {
	case tensor.DTypeF32:
		data, _ := t.Float32s()
		for i := 0; i < limit; i++ {
			fmt.Printf("[%d] %.6f\n", i, data[i])
		}
	case tensor.DTypeF64:
		data, _ := t.Float64s()
		for i := 0; i < limit; i++ {
			fmt.Printf("[%d] %.6f\n", i, data[i])
		}
	}
	if t.NumElements() > limit {
		fmt.Printf("... and %d more elements\n", t.NumElements()-limit)
	}
}
